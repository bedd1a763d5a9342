package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"merkado/internal/domain/geo"
	"merkado/internal/domain/model"
	"merkado/internal/infra/logger"
	repo "merkado/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderUsecase struct {
	tx       repo.TransactionManager
	profiles repo.SellerProfileRepository
	stores   StoreStatusReader
	proofs   ProofStore
	events   OrderEventPublisher
	clock    Clock
	log      *zap.Logger
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	profiles repo.SellerProfileRepository,
	stores StoreStatusReader,
	proofs ProofStore,
	events OrderEventPublisher,
	clock Clock,
	log *zap.Logger,
) *OrderUsecase {
	return &OrderUsecase{tx: tx, profiles: profiles, stores: stores, proofs: proofs, events: events, clock: clock, log: log}
}

type PlaceOrderInput struct {
	CustomerName    string
	CustomerAddress string
	CustomerContact string
	Latitude        *float64
	Longitude       *float64
	// 画面で選択していた明細。指定があればサーバー側の選択と一致すること
	CartItemIDs []int64
	// 画面で表示していた合計。指定があればサーバー側の合計と一致すること
	Total            *decimal.Decimal
	PaymentMode      string
	ProofOfPayment   string
	PaymentConfirmed bool
	IdempotencyKey   string
}

type ListOrdersInput struct {
	Page   int
	Limit  int
	Status string
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderOutput struct {
	ID                int64             `json:"id"`
	BuyerID           int64             `json:"buyer_id"`
	SellerID          int64             `json:"seller_id"`
	Status            string            `json:"status"`
	CustomerName      string            `json:"customer_name"`
	CustomerAddress   string            `json:"customer_address"`
	CustomerContact   string            `json:"customer_contact"`
	DeliveryLatitude  float64           `json:"delivery_latitude"`
	DeliveryLongitude float64           `json:"delivery_longitude"`
	DistanceKm        *float64          `json:"distance_km,omitempty"`
	Total             decimal.Decimal   `json:"total"`
	PaymentMode       string            `json:"payment_mode"`
	ProofOfPayment    string            `json:"proof_of_payment"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	Items             []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// PlaceOrder は選択中の明細だけを1件の注文にする。
// 在庫減算・注文作成・選択明細の削除・出品者への通知は1トランザクション。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.validatePlaceOrder(ctx, userID, &in); err != nil {
		return OrderOutput{}, err
	}

	var (
		out    OrderOutput
		placed bool
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		if in.IdempotencyKey != "" {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if found {
				items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
				if err != nil {
					return err
				}
				out = toOrderOutput(existing, items)
				return nil
			}
		}

		cart, err := r.Carts().FindByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, msgSelectItem)
		}
		if err != nil {
			return err
		}
		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return err
		}
		lines, err := resolveCartLines(ctx, r.Products(), cartItems)
		if err != nil {
			return err
		}
		sel, sellerID, err := selectedLines(lines)
		if err != nil {
			return err
		}
		if len(sel) == 0 {
			return NewHTTPError(http.StatusBadRequest, msgSelectItem)
		}
		if sellerID == userID {
			return NewHTTPError(http.StatusForbidden, "You cannot order your own products")
		}

		selIDs := make([]int64, 0, len(sel))
		for _, l := range sel {
			selIDs = append(selIDs, l.ID)
		}
		if in.CartItemIDs != nil && !sameIDs(in.CartItemIDs, selIDs) {
			return NewHTTPError(http.StatusConflict, "Your cart selection has changed, please review your cart")
		}

		if in.Latitude == nil || in.Longitude == nil {
			return NewHTTPError(http.StatusBadRequest, "Please set your delivery location")
		}
		dest := geo.Point{Latitude: *in.Latitude, Longitude: *in.Longitude}
		if !dest.Valid() {
			return NewHTTPError(http.StatusBadRequest, "Delivery location is invalid")
		}

		st, err := u.stores.StoreStatus(ctx, sellerID)
		if err != nil {
			return err
		}
		if !st.IsOpen {
			return NewHTTPError(http.StatusConflict, msgStoreClosed+st.Message)
		}

		//在庫を確定時に再チェックして減らす
		orderItems := make([]model.OrderItem, 0, len(sel))
		total := decimal.Zero
		for _, l := range sel {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return NewHTTPError(http.StatusConflict, "Not enough stock for "+l.Name)
			}
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           l.ProductID,
				ProductNameSnapshot: l.Name,
				UnitPriceSnapshot:   l.Price,
				Unit:                l.Unit,
				Quantity:            l.Quantity,
			})
			total = total.Add(l.Subtotal)
		}
		if in.Total != nil && !in.Total.Round(2).Equal(total.Round(2)) {
			return NewHTTPError(http.StatusConflict, "Order total has changed, please review your cart")
		}

		distance, err := u.distanceFromStore(ctx, sellerID, dest)
		if err != nil {
			return err
		}

		now := u.clock.Now()
		order := model.Order{
			BuyerID:           userID,
			SellerID:          sellerID,
			Status:            model.OrderStatusPending,
			CustomerName:      in.CustomerName,
			CustomerAddress:   in.CustomerAddress,
			CustomerContact:   in.CustomerContact,
			DeliveryLatitude:  dest.Latitude,
			DeliveryLongitude: dest.Longitude,
			DistanceKm:        distance,
			Total:             total,
			PaymentMode:       model.PaymentMode(in.PaymentMode),
			ProofOfPayment:    in.ProofOfPayment,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if in.IdempotencyKey != "" {
			key := in.IdempotencyKey
			order.IdempotencyKey = &key
		}

		orderID, err := r.Orders().Create(ctx, order)
		if errors.Is(err, repo.ErrDuplicate) {
			return NewHTTPError(http.StatusConflict, "idempotency conflict")
		}
		if err != nil {
			return err
		}
		order.ID = orderID

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return err
		}

		//選択した明細だけ消す。未選択はカートに残る
		if err := r.CartItems().DeleteByIDs(ctx, cart.ID, selIDs); err != nil {
			return err
		}
		if err := r.CartItems().ClearSelection(ctx, cart.ID); err != nil {
			return err
		}

		if err := r.Notifications().Create(ctx, model.Notification{
			UserID:    sellerID,
			Kind:      model.NotificationNewOrder,
			Title:     fmt.Sprintf("New order #%d", orderID),
			Body:      fmt.Sprintf("%s placed an order totaling %s", in.CustomerName, total.StringFixed(2)),
			OrderID:   &orderID,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		out = toOrderOutput(order, orderItems)
		placed = true
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return OrderOutput{}, err
		}
		logger.Error(ctx, u.log, "place order failed", zap.Int64("buyer_id", userID), zap.Error(err))
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if placed {
		publishOrderEvent(ctx, u.events, u.log, model.OrderEvent{
			Type:       model.OrderEventPlaced,
			OrderID:    out.ID,
			BuyerID:    out.BuyerID,
			SellerID:   out.SellerID,
			Status:     model.OrderStatusPending,
			Total:      out.Total,
			OccurredAt: out.CreatedAt,
		})
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, in ListOrdersInput) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return listOrders(ctx, u.tx, in, repo.OrderListFilter{BuyerID: &userID})
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		// 買い手と出品者だけが見られる。それ以外は「存在しない扱い」
		if o.BuyerID != userID && o.SellerID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) distanceFromStore(ctx context.Context, sellerID int64, dest geo.Point) (*float64, error) {
	profile, err := u.profiles.FindByUserID(ctx, sellerID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	from := storeLocation(profile)
	if from == nil {
		return nil, nil
	}
	km := geo.RoundKm(geo.Distance(*from, dest))
	return &km, nil
}

// 入力チェックは画面と同じ順に1つずつ
func (u *OrderUsecase) validatePlaceOrder(ctx context.Context, userID int64, in *PlaceOrderInput) error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerAddress = strings.TrimSpace(in.CustomerAddress)
	in.CustomerContact = strings.TrimSpace(in.CustomerContact)
	in.ProofOfPayment = strings.TrimSpace(in.ProofOfPayment)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)

	if in.CustomerName == "" {
		return NewHTTPError(http.StatusBadRequest, "Please enter your name")
	}
	if in.CustomerAddress == "" {
		return NewHTTPError(http.StatusBadRequest, "Please enter your delivery address")
	}
	if in.CustomerContact == "" {
		return NewHTTPError(http.StatusBadRequest, "Please enter your contact number")
	}
	if in.ProofOfPayment == "" {
		return NewHTTPError(http.StatusBadRequest, "Please upload proof of payment")
	}
	if !strings.HasPrefix(in.ProofOfPayment, ProofPathPrefix) || strings.Contains(in.ProofOfPayment, "..") {
		return NewHTTPError(http.StatusBadRequest, msgProofInvalid)
	}
	// 本人がアップロードした画像だけ
	uploaded, err := u.proofs.Exists(ctx, userID, in.ProofOfPayment)
	if err != nil {
		logger.Error(ctx, u.log, "proof lookup failed", zap.Int64("buyer_id", userID), zap.Error(err))
		return NewHTTPError(http.StatusInternalServerError, "could not verify proof of payment")
	}
	if !uploaded {
		return NewHTTPError(http.StatusBadRequest, msgProofInvalid)
	}
	if !in.PaymentConfirmed {
		return NewHTTPError(http.StatusBadRequest, "Please confirm that you have completed the payment")
	}

	switch strings.ToUpper(strings.TrimSpace(in.PaymentMode)) {
	case "", string(model.PaymentModeQR):
		in.PaymentMode = string(model.PaymentModeQR)
	default:
		return NewHTTPError(http.StatusBadRequest, "payment_mode must be QR")
	}

	if len(in.IdempotencyKey) > 255 {
		return NewHTTPError(http.StatusBadRequest, "invalid idempotency key")
	}
	return nil
}

func listOrders(ctx context.Context, tx repo.TransactionManager, in ListOrdersInput, f repo.OrderListFilter) (OrderListOutput, error) {
	if in.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Status != "" {
		if _, ok := parseOrderStatus(in.Status); !ok {
			return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}
	f.Page = in.Page
	f.Limit = in.Limit
	f.Status = strings.ToUpper(strings.TrimSpace(in.Status))

	out := OrderListOutput{Items: []OrderOutput{}, Page: in.Page, Limit: in.Limit}
	err := tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().List(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out.Total = total

		ids := make([]int64, len(orders))
		for i, o := range orders {
			ids[i] = o.ID
		}
		itemsByOrder, err := r.OrderItems().ListByOrderIDs(ctx, ids)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		for _, o := range orders {
			out.Items = append(out.Items, toOrderOutput(o, itemsByOrder[o.ID]))
		}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

func parseOrderStatus(v string) (model.OrderStatus, bool) {
	switch s := model.OrderStatus(strings.ToUpper(strings.TrimSpace(v))); s {
	case model.OrderStatusPending, model.OrderStatusAccepted, model.OrderStatusDelivered, model.OrderStatusCanceled:
		return s, true
	default:
		return "", false
	}
}

func sameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]int64(nil), a...)
	y := append([]int64(nil), b...)
	sort.Slice(x, func(i, j int) bool { return x[i] < x[j] })
	sort.Slice(y, func(i, j int) bool { return y[i] < y[j] })
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Unit:      it.Unit,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal(),
		})
	}

	return OrderOutput{
		ID:                o.ID,
		BuyerID:           o.BuyerID,
		SellerID:          o.SellerID,
		Status:            string(o.Status),
		CustomerName:      o.CustomerName,
		CustomerAddress:   o.CustomerAddress,
		CustomerContact:   o.CustomerContact,
		DeliveryLatitude:  o.DeliveryLatitude,
		DeliveryLongitude: o.DeliveryLongitude,
		DistanceKm:        o.DistanceKm,
		Total:             o.Total,
		PaymentMode:       string(o.PaymentMode),
		ProofOfPayment:    o.ProofOfPayment,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		Items:             outItems,
	}
}
