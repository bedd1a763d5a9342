package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"merkado/internal/domain/geo"
	"merkado/internal/domain/model"
	repo "merkado/internal/repository"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"
)

const (
	msgSelectItem      = "Please select at least one item"
	msgProofNotImage   = "Proof of payment must be an image"
	msgProofInvalid    = "Proof of payment is invalid"
	ProofPathPrefix    = "/uploads/proofs/"
	defaultMaxProofLen = 5 << 20
)

// 支払い証明画像の保存先。返すのはサーバー相対パス
type ProofStore interface {
	Save(ctx context.Context, ownerID int64, ext string, r io.Reader) (string, error)
	// ownerIDがアップロードした画像のパスか
	Exists(ctx context.Context, ownerID int64, path string) (bool, error)
}

// 証明画像として受け付ける形式。SVGなどスクリプトを含められるものは入れない
var proofImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// チェックアウト開始から支払い証明のアップロードまで
type CheckoutUsecase struct {
	cartRepo      repo.CartRepository
	cartItemRepo  repo.CartItemRepository
	productRepo   repo.ProductRepository
	profiles      repo.SellerProfileRepository
	stores        StoreStatusReader
	proofs        ProofStore
	maxProofBytes int64
}

func NewCheckoutUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	profiles repo.SellerProfileRepository,
	stores StoreStatusReader,
	proofs ProofStore,
	maxProofBytes int64,
) *CheckoutUsecase {
	if maxProofBytes <= 0 {
		maxProofBytes = defaultMaxProofLen
	}
	return &CheckoutUsecase{
		cartRepo:      cartRepo,
		cartItemRepo:  cartItemRepo,
		productRepo:   productRepo,
		profiles:      profiles,
		stores:        stores,
		proofs:        proofs,
		maxProofBytes: maxProofBytes,
	}
}

type CheckoutSummary struct {
	SellerID      int64           `json:"seller_id"`
	StoreName     string          `json:"store_name"`
	PaymentQRPath string          `json:"payment_qr_path"`
	StoreLocation *geo.Point      `json:"store_location,omitempty"`
	StoreStatus   string          `json:"store_status"`
	Items         []CartLine      `json:"items"`
	Total         decimal.Decimal `json:"total"`
}

type DistancePreview struct {
	StoreLocation *geo.Point `json:"store_location,omitempty"`
	// 店舗位置が未設定ならnil
	DistanceKm *float64 `json:"distance_km"`
}

// BeginCheckout は選択中の明細が1出品者・営業中であることを確かめ、支払いQRを返す
func (u *CheckoutUsecase) BeginCheckout(ctx context.Context, userID int64) (CheckoutSummary, error) {
	sel, sellerID, err := u.selection(ctx, userID)
	if err != nil {
		return CheckoutSummary{}, err
	}

	st, err := u.stores.StoreStatus(ctx, sellerID)
	if err != nil {
		return CheckoutSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !st.IsOpen {
		return CheckoutSummary{}, NewHTTPError(http.StatusConflict, msgStoreClosed+st.Message)
	}

	total := decimal.Zero
	for _, l := range sel {
		if l.Quantity > l.Stock {
			return CheckoutSummary{}, NewHTTPError(http.StatusConflict, "Not enough stock for "+l.Name)
		}
		total = total.Add(l.Subtotal)
	}

	out := CheckoutSummary{
		SellerID:    sellerID,
		StoreStatus: st.Message,
		Items:       sel,
		Total:       total,
	}

	profile, err := u.profiles.FindByUserID(ctx, sellerID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		// 店舗情報未登録でも進める。QRは出ない
	case err != nil:
		return CheckoutSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	default:
		out.StoreName = profile.StoreName
		out.PaymentQRPath = profile.PaymentQRPath
		out.StoreLocation = storeLocation(profile)
	}
	return out, nil
}

// PreviewDistance は配送先と選択中の出品者の店舗との距離を返す
func (u *CheckoutUsecase) PreviewDistance(ctx context.Context, userID int64, to geo.Point) (DistancePreview, error) {
	if !to.Valid() {
		return DistancePreview{}, NewHTTPError(http.StatusBadRequest, "Delivery location is invalid")
	}
	_, sellerID, err := u.selection(ctx, userID)
	if err != nil {
		return DistancePreview{}, err
	}

	profile, err := u.profiles.FindByUserID(ctx, sellerID)
	if errors.Is(err, repo.ErrNotFound) {
		return DistancePreview{}, nil
	}
	if err != nil {
		return DistancePreview{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	from := storeLocation(profile)
	if from == nil {
		return DistancePreview{}, nil
	}
	km := geo.RoundKm(geo.Distance(*from, to))
	return DistancePreview{StoreLocation: from, DistanceKm: &km}, nil
}

// UploadProof は中身から画像かどうかを判定して保存する。
// size はリクエストが申告した大きさ（不明なら -1）。
func (u *CheckoutUsecase) UploadProof(ctx context.Context, userID int64, size int64, r io.Reader) (string, error) {
	if userID <= 0 {
		return "", NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	tooLarge := NewHTTPError(http.StatusBadRequest,
		fmt.Sprintf("Proof of payment must be %dMB or smaller", u.maxProofBytes>>20))
	if size > u.maxProofBytes {
		return "", tooLarge
	}

	// 申告サイズは信用しない
	buf, err := io.ReadAll(io.LimitReader(r, u.maxProofBytes+1))
	if err != nil {
		return "", NewHTTPError(http.StatusBadRequest, "could not read upload")
	}
	if int64(len(buf)) > u.maxProofBytes {
		return "", tooLarge
	}
	if len(buf) == 0 {
		return "", NewHTTPError(http.StatusBadRequest, "Please upload proof of payment")
	}

	mt := mimetype.Detect(buf)
	if !mimetype.EqualsAny(mt.String(), proofImageTypes...) {
		return "", NewHTTPError(http.StatusBadRequest, msgProofNotImage)
	}

	path, err := u.proofs.Save(ctx, userID, mt.Extension(), bytes.NewReader(buf))
	if err != nil {
		return "", NewHTTPError(http.StatusInternalServerError, "could not save proof of payment")
	}
	return path, nil
}

// 選択中の明細と出品者
func (u *CheckoutUsecase) selection(ctx context.Context, userID int64) ([]CartLine, int64, error) {
	if userID <= 0 {
		return nil, 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	cart, err := u.cartRepo.EnsureForUser(ctx, userID)
	if err != nil {
		return nil, 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return nil, 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	lines, err := resolveCartLines(ctx, u.productRepo, items)
	if err != nil {
		return nil, 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	sel, sellerID, err := selectedLines(lines)
	if err != nil {
		return nil, 0, err
	}
	if len(sel) == 0 {
		return nil, 0, NewHTTPError(http.StatusBadRequest, msgSelectItem)
	}
	return sel, sellerID, nil
}

func storeLocation(p model.SellerProfile) *geo.Point {
	if !p.HasLocation() {
		return nil
	}
	pt := geo.Point{Latitude: *p.Latitude, Longitude: *p.Longitude}
	if !pt.Valid() {
		return nil
	}
	return &pt
}
