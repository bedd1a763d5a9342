package usecase

import (
	"context"
	"errors"
	"net/http"

	"merkado/internal/domain/model"
	repo "merkado/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	msgOneSellerOnly = "You can only checkout items from one seller at a time"
	msgStoreClosed   = "Store is currently closed: "
)

// CartUsecase は /cart の業務ロジック。
// 選択状態もサーバーで持ち、選択は1出品者・営業中の店に限る。
type CartUsecase struct {
	tx           repo.TransactionManager
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	stores       StoreStatusReader
}

func NewCartUsecase(
	tx repo.TransactionManager,
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	stores StoreStatusReader,
) *CartUsecase {
	return &CartUsecase{
		tx:           tx,
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		stores:       stores,
	}
}

// 明細に商品の最新情報を重ねたもの
type CartLine struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	SellerID    int64           `json:"seller_id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Unit        string          `json:"unit"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	Quantity    int64           `json:"quantity"`
	Selected    bool            `json:"selected"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	StoreOpen   bool            `json:"store_open"`
	StoreStatus string          `json:"store_status"`
}

type CartResponse struct {
	Items            []CartLine      `json:"items"`
	Total            decimal.Decimal `json:"total"`
	SelectedTotal    decimal.Decimal `json:"selected_total"`
	SelectedSellerID *int64          `json:"selected_seller_id,omitempty"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// GetCart はカート取得（無ければ作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.EnsureForUser(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// AddToCart はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	cart, err := u.cartRepo.EnsureForUser(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	var existingQty int64
	for _, it := range items {
		if it.ProductID == in.ProductID {
			existingQty = it.Quantity
			break
		}
	}
	if existingQty+in.Quantity > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	if _, err := u.cartItemRepo.UpsertByCartAndProduct(ctx, cart.ID, in.ProductID, in.Quantity); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// 数量変更（所有チェック＋在庫チェック）。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	item, cart, err := u.ownedItem(ctx, userID, cartItemID)
	if err != nil {
		return CartResponse{}, err
	}

	p, err := u.productRepo.FindByID(ctx, item.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if in.Quantity > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// 明細削除
func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID, cartItemID int64) (CartResponse, error) {
	_, cart, err := u.ownedItem(ctx, userID, cartItemID)
	if err != nil {
		return CartResponse{}, err
	}

	if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// SelectItem は明細のチェックアウト対象を切り替える。
// 別の出品者の明細が選択済みなら409、店が閉まっていても409で、選択は変えない。
func (u *CartUsecase) SelectItem(ctx context.Context, userID, cartItemID int64, selected bool) (CartResponse, error) {
	item, cart, err := u.ownedItem(ctx, userID, cartItemID)
	if err != nil {
		return CartResponse{}, err
	}

	if !selected {
		if err := u.cartItemRepo.SetSelected(ctx, cart.ID, []int64{cartItemID}, false); err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return u.buildCartResponse(ctx, cart.ID)
	}

	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	lines, err := resolveCartLines(ctx, u.productRepo, items)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var target *CartLine
	for i := range lines {
		if lines[i].ID == item.ID {
			target = &lines[i]
		}
	}
	if target == nil {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}

	for _, l := range lines {
		if l.ID != target.ID && l.Selected && l.SellerID != target.SellerID {
			return CartResponse{}, NewHTTPError(http.StatusConflict, msgOneSellerOnly)
		}
	}

	if err := u.ensureStoreOpen(ctx, target.SellerID); err != nil {
		return CartResponse{}, err
	}

	if err := u.cartItemRepo.SetSelected(ctx, cart.ID, []int64{cartItemID}, true); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// SelectSeller はその出品者の明細だけを選択状態にする
func (u *CartUsecase) SelectSeller(ctx context.Context, userID, sellerID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if sellerID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid seller id")
	}

	cart, err := u.cartRepo.EnsureForUser(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	lines, err := resolveCartLines(ctx, u.productRepo, items)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if l.SellerID == sellerID {
			ids = append(ids, l.ID)
		}
	}
	if len(ids) == 0 {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "no items from this seller in cart")
	}

	if err := u.ensureStoreOpen(ctx, sellerID); err != nil {
		return CartResponse{}, err
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.CartItems().ClearSelection(ctx, cart.ID); err != nil {
			return err
		}
		return r.CartItems().SetSelected(ctx, cart.ID, ids, true)
	})
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

func (u *CartUsecase) ClearSelection(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	cart, err := u.cartRepo.EnsureForUser(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.cartItemRepo.ClearSelection(ctx, cart.ID); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

func (u *CartUsecase) ensureStoreOpen(ctx context.Context, sellerID int64) error {
	st, err := u.stores.StoreStatus(ctx, sellerID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !st.IsOpen {
		return NewHTTPError(http.StatusConflict, msgStoreClosed+st.Message)
	}
	return nil
}

func (u *CartUsecase) ownedItem(ctx context.Context, userID, cartItemID int64) (model.CartItem, model.Cart, error) {
	if userID <= 0 {
		return model.CartItem{}, model.Cart{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return model.CartItem{}, model.Cart{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	owned, err := u.cartItemRepo.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return model.CartItem{}, model.Cart{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return model.CartItem{}, model.Cart{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartItem{}, model.Cart{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.CartItem{}, model.Cart{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	cart, err := u.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return model.CartItem{}, model.Cart{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//他人のカートの明細は存在しない扱い
	if item.CartID != cart.ID {
		return model.CartItem{}, model.Cart{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return item, cart, nil
}

// cartIDの明細をまとめてCartResponseを作る。
func (u *CartUsecase) buildCartResponse(ctx context.Context, cartID int64) (CartResponse, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	lines, err := resolveCartLines(ctx, u.productRepo, items)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 出品者ごとに1回だけ判定
	statuses := map[int64]CartLine{}
	resp := CartResponse{Items: lines, Total: decimal.Zero, SelectedTotal: decimal.Zero}
	for i := range resp.Items {
		l := &resp.Items[i]
		st, ok := statuses[l.SellerID]
		if !ok {
			s, err := u.stores.StoreStatus(ctx, l.SellerID)
			if err != nil {
				return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
			}
			st = CartLine{StoreOpen: s.IsOpen, StoreStatus: s.Message}
			statuses[l.SellerID] = st
		}
		l.StoreOpen = st.StoreOpen
		l.StoreStatus = st.StoreStatus

		resp.Total = resp.Total.Add(l.Subtotal)
		if l.Selected {
			resp.SelectedTotal = resp.SelectedTotal.Add(l.Subtotal)
			sellerID := l.SellerID
			resp.SelectedSellerID = &sellerID
		}
	}
	return resp, nil
}

// resolveCartLines は明細に商品情報を重ねる。削除済み商品の明細は落とす。
func resolveCartLines(ctx context.Context, products repo.ProductRepository, items []model.CartItem) ([]CartLine, error) {
	lines := make([]CartLine, 0, len(items))
	if len(items) == 0 {
		return lines, nil
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	ps, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Product, len(ps))
	for _, p := range ps {
		byID[p.ID] = p
	}

	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, CartLine{
			ID:        it.ID,
			ProductID: p.ID,
			SellerID:  p.SellerID,
			Name:      p.Name,
			Category:  p.Category,
			Unit:      p.Unit,
			Price:     p.Price,
			Stock:     p.Stock,
			Quantity:  it.Quantity,
			Selected:  it.Selected,
			Subtotal:  p.Price.Mul(decimal.NewFromInt(it.Quantity)),
		})
	}
	return lines, nil
}

// 選択中の明細。出品者が複数なら409
func selectedLines(lines []CartLine) ([]CartLine, int64, error) {
	out := make([]CartLine, 0, len(lines))
	var sellerID int64
	for _, l := range lines {
		if !l.Selected {
			continue
		}
		if sellerID != 0 && l.SellerID != sellerID {
			return nil, 0, NewHTTPError(http.StatusConflict, msgOneSellerOnly)
		}
		sellerID = l.SellerID
		out = append(out, l)
	}
	return out, sellerID, nil
}
