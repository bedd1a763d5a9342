package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"merkado/internal/domain/geo"
	"merkado/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeProofStore struct {
	saved     [][]byte
	exts      []string
	owners    map[string]int64
	err       error
	existsErr error
}

func (s *fakeProofStore) Save(ctx context.Context, ownerID int64, ext string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.saved = append(s.saved, b)
	s.exts = append(s.exts, ext)
	path := fmt.Sprintf("%s%d-proof%d%s", usecase.ProofPathPrefix, ownerID, len(s.saved), ext)
	if s.owners == nil {
		s.owners = map[string]int64{}
	}
	s.owners[path] = ownerID
	return path, nil
}

func (s *fakeProofStore) Exists(ctx context.Context, ownerID int64, path string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	owner, ok := s.owners[path]
	return ok && owner == ownerID, nil
}

// PNGのシグネチャとIHDR
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89,
}

func newCheckoutUsecase(f *orderFixture, proofs usecase.ProofStore, maxBytes int64) *usecase.CheckoutUsecase {
	db := f.db
	return usecase.NewCheckoutUsecase(
		&memCarts{db}, &memCartItems{db}, &memProducts{db}, &memProfiles{db},
		newStoreUsecase(db, mondayMorning), proofs, maxBytes,
	)
}

func TestBeginCheckout_ReturnsPaymentDetails(t *testing.T) {
	f := newOrderFixture(t, mondayMorning)
	uc := newCheckoutUsecase(f, &fakeProofStore{}, 0)
	f.db.addCartItem(f.buyer.ID, f.tilapia.ID, 2, true)
	f.db.addCartItem(f.buyer.ID, f.squid.ID, 1, false)

	out, err := uc.BeginCheckout(context.Background(), f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, f.seller.ID, out.SellerID)
	assert.Equal(t, "Navotas Fresh", out.StoreName)
	assert.Equal(t, "/uploads/qr/1.png", out.PaymentQRPath)
	assert.Equal(t, "Open until 5:00 PM", out.StoreStatus)
	require.NotNil(t, out.StoreLocation)
	assert.Len(t, out.Items, 1)
	assert.True(t, dec("241").Equal(out.Total), out.Total.String())
}

func TestBeginCheckout_Errors(t *testing.T) {
	f := newOrderFixture(t, mondayMorning)
	uc := newCheckoutUsecase(f, &fakeProofStore{}, 0)

	_, err := uc.BeginCheckout(context.Background(), f.buyer.ID)
	requireHTTPError(t, err, http.StatusBadRequest, "Please select at least one item")

	// 2出品者が選択された状態（古いデータなど）
	f.db.addCartItem(f.buyer.ID, f.tilapia.ID, 1, true)
	sq := f.db.addCartItem(f.buyer.ID, f.squid.ID, 1, true)
	_, err = uc.BeginCheckout(context.Background(), f.buyer.ID)
	requireHTTPError(t, err, http.StatusConflict, "You can only checkout items from one seller at a time")

	delete(f.db.cartItems, sq.ID)
	p := f.db.products[f.tilapia.ID]
	p.Stock = 0
	f.db.products[f.tilapia.ID] = p
	_, err = uc.BeginCheckout(context.Background(), f.buyer.ID)
	requireHTTPError(t, err, http.StatusConflict, "Not enough stock for Tilapia")
}

func TestPreviewDistance(t *testing.T) {
	f := newOrderFixture(t, mondayMorning)
	uc := newCheckoutUsecase(f, &fakeProofStore{}, 0)
	f.db.addCartItem(f.buyer.ID, f.tilapia.ID, 1, true)

	// Navotas → Manila
	out, err := uc.PreviewDistance(context.Background(), f.buyer.ID, geo.Point{Latitude: 14.5995, Longitude: 120.9842})
	require.NoError(t, err)
	require.NotNil(t, out.DistanceKm)
	assert.InDelta(t, 8.8, *out.DistanceKm, 0.5)

	_, err = uc.PreviewDistance(context.Background(), f.buyer.ID, geo.Point{Latitude: 91, Longitude: 0})
	requireHTTPError(t, err, http.StatusBadRequest, "Delivery location is invalid")

	delete(f.db.profiles, f.seller.ID)
	out, err = uc.PreviewDistance(context.Background(), f.buyer.ID, geo.Point{Latitude: 14.5995, Longitude: 120.9842})
	require.NoError(t, err)
	assert.Nil(t, out.DistanceKm)
}

func TestUploadProof(t *testing.T) {
	f := newOrderFixture(t, mondayMorning)
	store := &fakeProofStore{}
	uc := newCheckoutUsecase(f, store, 1<<20)

	path, err := uc.UploadProof(context.Background(), f.buyer.ID, int64(len(pngBytes)), bytes.NewReader(pngBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, usecase.ProofPathPrefix), path)
	require.Len(t, store.exts, 1)
	assert.Equal(t, ".png", store.exts[0])
	assert.Equal(t, pngBytes, store.saved[0])
}

func TestUploadProof_RejectsNonImages(t *testing.T) {
	f := newOrderFixture(t, mondayMorning)
	store := &fakeProofStore{}
	uc := newCheckoutUsecase(f, store, 1<<20)

	// 拡張子ではなく中身で判定する
	_, err := uc.UploadProof(context.Background(), f.buyer.ID, -1, strings.NewReader("just some text, not a picture"))
	requireHTTPError(t, err, http.StatusBadRequest, "Proof of payment must be an image")

	_, err = uc.UploadProof(context.Background(), f.buyer.ID, 0, strings.NewReader(""))
	requireHTTPError(t, err, http.StatusBadRequest, "Please upload proof of payment")
	assert.Empty(t, store.saved)
}

func TestUploadProof_RejectsSVG(t *testing.T) {
	f := newOrderFixture(t, mondayMorning)
	store := &fakeProofStore{}
	uc := newCheckoutUsecase(f, store, 1<<20)

	svg := `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`
	_, err := uc.UploadProof(context.Background(), f.buyer.ID, int64(len(svg)), strings.NewReader(svg))
	requireHTTPError(t, err, http.StatusBadRequest, "Proof of payment must be an image")
	assert.Empty(t, store.saved)
}

// アップロードで返ったパスがそのまま注文に使える
func TestUploadProof_PathIsAcceptedByPlaceOrder(t *testing.T) {
	f := newOrderFixture(t, mondayMorning)
	uc := newCheckoutUsecase(f, f.proofs, 1<<20)
	f.db.addCartItem(f.buyer.ID, f.tilapia.ID, 1, true)
	f.events.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

	path, err := uc.UploadProof(context.Background(), f.buyer.ID, -1, bytes.NewReader(pngBytes))
	require.NoError(t, err)

	in := f.placeInput()
	in.ProofOfPayment = path
	out, err := f.uc.PlaceOrder(context.Background(), f.buyer.ID, in)
	require.NoError(t, err)
	assert.Equal(t, path, out.ProofOfPayment)
}

func TestUploadProof_TooLarge(t *testing.T) {
	f := newOrderFixture(t, mondayMorning)
	store := &fakeProofStore{}
	uc := newCheckoutUsecase(f, store, 1<<20)
	big := append(append([]byte{}, pngBytes...), bytes.Repeat([]byte{0}, 1<<20)...)

	// 申告サイズで弾く
	_, err := uc.UploadProof(context.Background(), f.buyer.ID, int64(len(big)), bytes.NewReader(big))
	requireHTTPError(t, err, http.StatusBadRequest, "Proof of payment must be 1MB or smaller")

	// 申告なしでも読んだ量で弾く
	_, err = uc.UploadProof(context.Background(), f.buyer.ID, -1, bytes.NewReader(big))
	requireHTTPError(t, err, http.StatusBadRequest, "Proof of payment must be 1MB or smaller")
	assert.Empty(t, store.saved)
}

func TestUploadProof_StoreFailure(t *testing.T) {
	f := newOrderFixture(t, mondayMorning)
	uc := newCheckoutUsecase(f, &fakeProofStore{err: errors.New("disk full")}, 1<<20)

	_, err := uc.UploadProof(context.Background(), f.buyer.ID, -1, bytes.NewReader(pngBytes))
	requireStatus(t, err, http.StatusInternalServerError)
}
