package repository

import "context"

// TxRepos は同じTxに乗ったrepo一式。注文確定と状態変更で使う
type TxRepos interface {
	Products() ProductRepository
	PriceHistory() PriceHistoryRepository
	Inventory() InventoryRepository

	Carts() CartRepository
	CartItems() CartItemRepository

	Orders() OrderRepository
	OrderItems() OrderItemRepository

	AuditLogs() AuditLogRepository
	Notifications() NotificationRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
