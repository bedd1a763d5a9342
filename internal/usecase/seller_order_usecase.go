package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"merkado/internal/domain/model"
	"merkado/internal/infra/logger"
	repo "merkado/internal/repository"

	"go.uber.org/zap"
)

// 出品者の受注管理と管理者の注文一覧
type SellerOrderUsecase struct {
	tx     repo.TransactionManager
	events OrderEventPublisher
	clock  Clock
	log    *zap.Logger
}

func NewSellerOrderUsecase(tx repo.TransactionManager, events OrderEventPublisher, clock Clock, log *zap.Logger) *SellerOrderUsecase {
	return &SellerOrderUsecase{tx: tx, events: events, clock: clock, log: log}
}

type UpdateOrderStatusInput struct {
	Status string
}

// 許される遷移。DELIVERED と CANCELED は終端
var orderTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:  {model.OrderStatusAccepted, model.OrderStatusCanceled},
	model.OrderStatusAccepted: {model.OrderStatusDelivered, model.OrderStatusCanceled},
}

func (u *SellerOrderUsecase) List(ctx context.Context, sellerID int64, in ListOrdersInput) (OrderListOutput, error) {
	if sellerID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return listOrders(ctx, u.tx, in, repo.OrderListFilter{SellerID: &sellerID})
}

// 管理者は全出品者分を見られる
func (u *SellerOrderUsecase) AdminList(ctx context.Context, in ListOrdersInput, from, to *time.Time) (OrderListOutput, error) {
	if from != nil && to != nil && from.After(*to) {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}
	return listOrders(ctx, u.tx, in, repo.OrderListFilter{From: from, To: to})
}

// UpdateStatus はステータスを進める（CANCELED なら在庫戻し）。
func (u *SellerOrderUsecase) UpdateStatus(ctx context.Context, sellerID, orderID int64, in UpdateOrderStatusInput) (OrderOutput, error) {
	if sellerID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	newStatus, ok := parseOrderStatus(in.Status)
	if !ok {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var (
		out     OrderOutput
		before  model.OrderStatus
		changed bool
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return err
		}
		if o.SellerID != sellerID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			out = toOrderOutput(o, items)
			return nil
		}
		if !canTransition(o.Status, newStatus) {
			return NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("cannot change order from %s to %s", o.Status, newStatus))
		}

		now := u.clock.Now()
		if newStatus == model.OrderStatusCanceled {
			for _, it := range items {
				after, err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity)
				if err != nil {
					return err
				}
				if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
					ProductID:   it.ProductID,
					ActorUserID: sellerID,
					Source:      model.AdjustmentSourceOrderCancel,
					Delta:       it.Quantity,
					StockAfter:  after,
					Reason:      fmt.Sprintf("order #%d canceled", orderID),
					OrderID:     &orderID,
					CreatedAt:   now,
				}); err != nil {
					return err
				}
			}
		}

		before = o.Status
		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			return err
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  sellerID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   `{"status":"` + string(before) + `"}`,
			AfterJSON:    `{"status":"` + string(newStatus) + `"}`,
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		if err := r.Notifications().Create(ctx, model.Notification{
			UserID:    o.BuyerID,
			Kind:      model.NotificationOrderStatus,
			Title:     fmt.Sprintf("Order #%d %s", orderID, strings.ToLower(string(newStatus))),
			Body:      statusMessage(newStatus),
			OrderID:   &orderID,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		o.Status = newStatus
		o.UpdatedAt = now
		out = toOrderOutput(o, items)
		changed = true
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return OrderOutput{}, err
		}
		logger.Error(ctx, u.log, "update order status failed", zap.Int64("order_id", orderID), zap.Error(err))
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if changed {
		publishOrderEvent(ctx, u.events, u.log, model.OrderEvent{
			Type:       model.OrderEventStatusChanged,
			OrderID:    out.ID,
			BuyerID:    out.BuyerID,
			SellerID:   out.SellerID,
			Status:     newStatus,
			PrevStatus: before,
			Total:      out.Total,
			OccurredAt: out.UpdatedAt,
		})
	}
	return out, nil
}

func canTransition(from, to model.OrderStatus) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func statusMessage(s model.OrderStatus) string {
	switch s {
	case model.OrderStatusAccepted:
		return "The seller accepted your order and is preparing it."
	case model.OrderStatusDelivered:
		return "Your order has been delivered."
	case model.OrderStatusCanceled:
		return "The seller canceled your order."
	default:
		return "Your order status changed."
	}
}

// 期間パラメータでtime.Timeが必要なら、handlerでこれを使う
func ParseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
