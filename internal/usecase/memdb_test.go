package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"merkado/internal/domain/model"
	repo "merkado/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// memDB はテスト用のインメモリ実装。WithinTx がエラーを返したら中身を巻き戻す
type memDB struct {
	nextID int64

	users         map[int64]*model.User
	products      map[int64]model.Product
	priceHistory  []model.PriceChangeRecord
	carts         map[int64]model.Cart
	cartItems     map[int64]model.CartItem
	orders        map[int64]model.Order
	orderItems    []model.OrderItem
	adjustments   []model.InventoryAdjustment
	audits        []model.AuditLog
	notifications []model.Notification
	profiles      map[int64]model.SellerProfile
	hours         map[int64][]model.StoreHours
	addresses     map[int64]model.Address
}

func newMemDB() *memDB {
	return &memDB{
		users:     map[int64]*model.User{},
		products:  map[int64]model.Product{},
		carts:     map[int64]model.Cart{},
		cartItems: map[int64]model.CartItem{},
		orders:    map[int64]model.Order{},
		profiles:  map[int64]model.SellerProfile{},
		hours:     map[int64][]model.StoreHours{},
		addresses: map[int64]model.Address{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) snapshot() *memDB {
	c := &memDB{
		nextID:        db.nextID,
		users:         map[int64]*model.User{},
		products:      map[int64]model.Product{},
		priceHistory:  append([]model.PriceChangeRecord(nil), db.priceHistory...),
		carts:         map[int64]model.Cart{},
		cartItems:     map[int64]model.CartItem{},
		orders:        map[int64]model.Order{},
		orderItems:    append([]model.OrderItem(nil), db.orderItems...),
		adjustments:   append([]model.InventoryAdjustment(nil), db.adjustments...),
		audits:        append([]model.AuditLog(nil), db.audits...),
		notifications: append([]model.Notification(nil), db.notifications...),
		profiles:      map[int64]model.SellerProfile{},
		hours:         map[int64][]model.StoreHours{},
		addresses:     map[int64]model.Address{},
	}
	for k, v := range db.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range db.products {
		c.products[k] = v
	}
	for k, v := range db.carts {
		c.carts[k] = v
	}
	for k, v := range db.cartItems {
		c.cartItems[k] = v
	}
	for k, v := range db.orders {
		c.orders[k] = v
	}
	for k, v := range db.profiles {
		c.profiles[k] = v
	}
	for k, v := range db.hours {
		c.hours[k] = append([]model.StoreHours(nil), v...)
	}
	for k, v := range db.addresses {
		c.addresses[k] = v
	}
	return c
}

// ---- seed helpers ----

func (db *memDB) addUser(role model.Role) *model.User {
	id := db.id()
	u := &model.User{ID: id, Email: fmt.Sprintf("user%d@example.com", id), Role: role, IsActive: true}
	db.users[u.ID] = u
	return u
}

func (db *memDB) addProduct(sellerID int64, name, price string, stock int64) model.Product {
	p := model.Product{
		ID:        db.id(),
		SellerID:  sellerID,
		Name:      name,
		Category:  "Fish",
		Unit:      "kg",
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Freshness: model.FreshnessFresh,
	}
	db.products[p.ID] = p
	return p
}

func (db *memDB) addCartItem(userID, productID, qty int64, selected bool) model.CartItem {
	cart := db.activeCart(userID)
	it := model.CartItem{ID: db.id(), CartID: cart.ID, ProductID: productID, Quantity: qty, Selected: selected}
	db.cartItems[it.ID] = it
	return it
}

func (db *memDB) activeCart(userID int64) model.Cart {
	for _, c := range db.carts {
		if c.UserID == userID {
			return c
		}
	}
	c := model.Cart{ID: db.id(), UserID: userID}
	db.carts[c.ID] = c
	return c
}

func (db *memDB) itemsOfUser(userID int64) []model.CartItem {
	cart := db.activeCart(userID)
	var out []model.CartItem
	for _, it := range db.cartItems {
		if it.CartID == cart.ID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// 月〜日 9:00-17:00
func (db *memDB) openAllWeek(sellerID int64) {
	rows := make([]model.StoreHours, 0, 7)
	for d := 0; d < 7; d++ {
		rows = append(rows, model.StoreHours{SellerID: sellerID, DayOfWeek: d, IsOpen: true, OpenTime: "09:00:00", CloseTime: "17:00:00"})
	}
	db.hours[sellerID] = rows
}

// ---- TransactionManager ----

type memTx struct{ db *memDB }

func (t *memTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	before := t.db.snapshot()
	if err := fn(memRepos{t.db}); err != nil {
		*t.db = *before
		return err
	}
	return nil
}

type memRepos struct{ db *memDB }

func (r memRepos) Orders() repo.OrderRepository               { return &memOrders{r.db} }
func (r memRepos) OrderItems() repo.OrderItemRepository       { return &memOrderItems{r.db} }
func (r memRepos) Carts() repo.CartRepository                 { return &memCarts{r.db} }
func (r memRepos) CartItems() repo.CartItemRepository         { return &memCartItems{r.db} }
func (r memRepos) Inventory() repo.InventoryRepository        { return &memInventory{r.db} }
func (r memRepos) Products() repo.ProductRepository           { return &memProducts{r.db} }
func (r memRepos) PriceHistory() repo.PriceHistoryRepository  { return &memPriceHistory{r.db} }
func (r memRepos) AuditLogs() repo.AuditLogRepository         { return &memAudits{r.db} }
func (r memRepos) Notifications() repo.NotificationRepository { return &memNotifications{r.db} }

// ---- products ----

type memProducts struct{ db *memDB }

func (m *memProducts) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range m.db.products {
		if p.DeletedAt.Valid {
			continue
		}
		if q.SellerID != nil && p.SellerID != *q.SellerID {
			continue
		}
		if !q.IncludeSoldOut && p.Stock <= 0 {
			continue
		}
		if q.Q != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Q)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := m.db.products[id]
	if !ok || p.DeletedAt.Valid {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (m *memProducts) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, err := m.FindByID(ctx, id); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	return m.FindByID(ctx, id)
}

func (m *memProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	p.ID = m.db.id()
	m.db.products[p.ID] = p
	return p, nil
}

func (m *memProducts) Update(ctx context.Context, p model.Product) error {
	if _, ok := m.db.products[p.ID]; !ok {
		return repo.ErrNotFound
	}
	m.db.products[p.ID] = p
	return nil
}

func (m *memProducts) SoftDelete(ctx context.Context, id int64) error {
	p, ok := m.db.products[id]
	if !ok {
		return repo.ErrNotFound
	}
	p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	m.db.products[id] = p
	return nil
}

// ---- price history ----

type memPriceHistory struct{ db *memDB }

func (m *memPriceHistory) Append(ctx context.Context, rec model.PriceChangeRecord) error {
	rec.ID = m.db.id()
	m.db.priceHistory = append(m.db.priceHistory, rec)
	return nil
}

// 新しい順
func (m *memPriceHistory) ListByProductID(ctx context.Context, productID int64, limit int) ([]model.PriceChangeRecord, error) {
	var out []model.PriceChangeRecord
	for i := len(m.db.priceHistory) - 1; i >= 0; i-- {
		if m.db.priceHistory[i].ProductID == productID {
			out = append(out, m.db.priceHistory[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- carts ----

type memCarts struct{ db *memDB }

func (m *memCarts) EnsureForUser(ctx context.Context, userID int64) (model.Cart, error) {
	return m.db.activeCart(userID), nil
}

func (m *memCarts) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	for _, c := range m.db.carts {
		if c.UserID == userID {
			return c, nil
		}
	}
	return model.Cart{}, repo.ErrNotFound
}

type memCartItems struct{ db *memDB }

func (m *memCartItems) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	var out []model.CartItem
	for _, it := range m.db.cartItems {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memCartItems) UpsertByCartAndProduct(ctx context.Context, cartID, productID, addQty int64) (model.CartItem, error) {
	for id, it := range m.db.cartItems {
		if it.CartID == cartID && it.ProductID == productID {
			it.Quantity += addQty
			m.db.cartItems[id] = it
			return it, nil
		}
	}
	it := model.CartItem{ID: m.db.id(), CartID: cartID, ProductID: productID, Quantity: addQty}
	m.db.cartItems[it.ID] = it
	return it, nil
}

func (m *memCartItems) UpdateQuantity(ctx context.Context, cartItemID, qty int64) error {
	it, ok := m.db.cartItems[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	it.Quantity = qty
	m.db.cartItems[cartItemID] = it
	return nil
}

func (m *memCartItems) DeleteByID(ctx context.Context, cartItemID int64) error {
	if _, ok := m.db.cartItems[cartItemID]; !ok {
		return repo.ErrNotFound
	}
	delete(m.db.cartItems, cartItemID)
	return nil
}

func (m *memCartItems) DeleteByIDs(ctx context.Context, cartID int64, ids []int64) error {
	for _, id := range ids {
		if it, ok := m.db.cartItems[id]; ok && it.CartID == cartID {
			delete(m.db.cartItems, id)
		}
	}
	return nil
}

func (m *memCartItems) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	it, ok := m.db.cartItems[cartItemID]
	if !ok {
		return model.CartItem{}, repo.ErrNotFound
	}
	return it, nil
}

func (m *memCartItems) IsOwnedByUser(ctx context.Context, cartItemID, userID int64) (bool, error) {
	it, ok := m.db.cartItems[cartItemID]
	if !ok {
		return false, nil
	}
	return m.db.carts[it.CartID].UserID == userID, nil
}

func (m *memCartItems) SetSelected(ctx context.Context, cartID int64, ids []int64, selected bool) error {
	for _, id := range ids {
		if it, ok := m.db.cartItems[id]; ok && it.CartID == cartID {
			it.Selected = selected
			m.db.cartItems[id] = it
		}
	}
	return nil
}

func (m *memCartItems) ClearSelection(ctx context.Context, cartID int64) error {
	for id, it := range m.db.cartItems {
		if it.CartID == cartID {
			it.Selected = false
			m.db.cartItems[id] = it
		}
	}
	return nil
}

// ---- inventory ----

type memInventory struct{ db *memDB }

func (m *memInventory) DecreaseStockIfEnough(ctx context.Context, productID, qty int64) (bool, error) {
	p, ok := m.db.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	m.db.products[productID] = p
	return true, nil
}

func (m *memInventory) IncreaseStock(ctx context.Context, productID, qty int64) (int64, error) {
	p, ok := m.db.products[productID]
	if !ok {
		return 0, repo.ErrNotFound
	}
	p.Stock += qty
	m.db.products[productID] = p
	return p.Stock, nil
}

func (m *memInventory) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	adj.ID = m.db.id()
	m.db.adjustments = append(m.db.adjustments, adj)
	return nil
}

// ---- orders ----

type memOrders struct{ db *memDB }

func (m *memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := m.db.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	return m.FindByID(ctx, orderID)
}

func (m *memOrders) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range m.db.orders {
		if f.BuyerID != nil && o.BuyerID != *f.BuyerID {
			continue
		}
		if f.SellerID != nil && o.SellerID != *f.SellerID {
			continue
		}
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memOrders) Create(ctx context.Context, o model.Order) (int64, error) {
	if o.IdempotencyKey != nil {
		for _, x := range m.db.orders {
			if x.IdempotencyKey != nil && *x.IdempotencyKey == *o.IdempotencyKey {
				return 0, repo.ErrDuplicate
			}
		}
	}
	o.ID = m.db.id()
	m.db.orders[o.ID] = o
	return o.ID, nil
}

func (m *memOrders) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	o, ok := m.db.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	m.db.orders[orderID] = o
	return nil
}

func (m *memOrders) FindByIdempotencyKey(ctx context.Context, buyerID int64, key string) (model.Order, bool, error) {
	for _, o := range m.db.orders {
		if o.BuyerID == buyerID && o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			return o, true, nil
		}
	}
	return model.Order{}, false, nil
}

type memOrderItems struct{ db *memDB }

func (m *memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	for _, it := range items {
		it.ID = m.db.id()
		it.OrderID = orderID
		m.db.orderItems = append(m.db.orderItems, it)
	}
	return nil
}

func (m *memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	var out []model.OrderItem
	for _, it := range m.db.orderItems {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memOrderItems) ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	out := map[int64][]model.OrderItem{}
	for _, id := range orderIDs {
		items, _ := m.ListByOrderID(ctx, id)
		out[id] = items
	}
	return out, nil
}

// ---- audit / notifications ----

type memAudits struct{ db *memDB }

func (m *memAudits) Create(ctx context.Context, log model.AuditLog) error {
	log.ID = m.db.id()
	m.db.audits = append(m.db.audits, log)
	return nil
}

type memNotifications struct{ db *memDB }

func (m *memNotifications) Create(ctx context.Context, n model.Notification) error {
	n.ID = m.db.id()
	m.db.notifications = append(m.db.notifications, n)
	return nil
}

func (m *memNotifications) ListByUserID(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]model.Notification, error) {
	var out []model.Notification
	for i := len(m.db.notifications) - 1; i >= 0; i-- {
		n := m.db.notifications[i]
		if n.UserID != userID || (unreadOnly && n.ReadAt != nil) {
			continue
		}
		out = append(out, n)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memNotifications) MarkRead(ctx context.Context, notificationID, userID int64, at time.Time) error {
	for i, n := range m.db.notifications {
		if n.ID == notificationID && n.UserID == userID {
			m.db.notifications[i].ReadAt = &at
			return nil
		}
	}
	return repo.ErrNotFound
}

// ---- store ----

type memProfiles struct{ db *memDB }

func (m *memProfiles) FindByUserID(ctx context.Context, userID int64) (model.SellerProfile, error) {
	p, ok := m.db.profiles[userID]
	if !ok {
		return model.SellerProfile{}, repo.ErrNotFound
	}
	return p, nil
}

func (m *memProfiles) Upsert(ctx context.Context, p model.SellerProfile) (model.SellerProfile, error) {
	m.db.profiles[p.UserID] = p
	return p, nil
}

type memHours struct{ db *memDB }

func (m *memHours) ListBySellerID(ctx context.Context, sellerID int64) ([]model.StoreHours, error) {
	return append([]model.StoreHours(nil), m.db.hours[sellerID]...), nil
}

func (m *memHours) ReplaceForSeller(ctx context.Context, sellerID int64, hours []model.StoreHours) error {
	m.db.hours[sellerID] = append([]model.StoreHours(nil), hours...)
	return nil
}

type memUsers struct{ db *memDB }

func (m *memUsers) Create(ctx context.Context, user *model.User) error {
	for _, u := range m.db.users {
		if u.Email == user.Email {
			return repo.ErrDuplicate
		}
	}
	user.ID = m.db.id()
	c := *user
	m.db.users[user.ID] = &c
	return nil
}

func (m *memUsers) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	u, ok := m.db.users[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range m.db.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memUsers) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	u, ok := m.db.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.LastLoginAt = &at
	return nil
}

func (m *memUsers) IncrementTokenVersion(ctx context.Context, userID int64) (int, error) {
	u, ok := m.db.users[userID]
	if !ok {
		return 0, repo.ErrNotFound
	}
	u.TokenVersion++
	return u.TokenVersion, nil
}

// ---- addresses ----

type memAddresses struct{ db *memDB }

func (m *memAddresses) Create(ctx context.Context, a model.Address) (model.Address, error) {
	a.ID = m.db.id()
	m.db.addresses[a.ID] = a
	return a, nil
}

func (m *memAddresses) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	var out []model.Address
	for _, a := range m.db.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memAddresses) FindByID(ctx context.Context, id int64) (model.Address, error) {
	a, ok := m.db.addresses[id]
	if !ok {
		return model.Address{}, repo.ErrNotFound
	}
	return a, nil
}

func (m *memAddresses) Update(ctx context.Context, a model.Address) error {
	old, ok := m.db.addresses[a.ID]
	if !ok {
		return repo.ErrNotFound
	}
	a.UserID = old.UserID
	a.IsDefault = old.IsDefault
	a.CreatedAt = old.CreatedAt
	m.db.addresses[a.ID] = a
	return nil
}

func (m *memAddresses) Delete(ctx context.Context, id int64) error {
	a, ok := m.db.addresses[id]
	if !ok {
		return repo.ErrNotFound
	}
	delete(m.db.addresses, id)
	if !a.IsDefault {
		return nil
	}
	var next int64
	for oid, o := range m.db.addresses {
		if o.UserID == a.UserID && (next == 0 || oid < next) {
			next = oid
		}
	}
	if next != 0 {
		n := m.db.addresses[next]
		n.IsDefault = true
		m.db.addresses[next] = n
	}
	return nil
}

func (m *memAddresses) IsOwnedByUser(ctx context.Context, id, userID int64) (bool, error) {
	a, ok := m.db.addresses[id]
	return ok && a.UserID == userID, nil
}

func (m *memAddresses) SetDefault(ctx context.Context, userID, id int64) error {
	if _, ok := m.db.addresses[id]; !ok {
		return repo.ErrNotFound
	}
	for k, a := range m.db.addresses {
		if a.UserID == userID {
			a.IsDefault = k == id
			m.db.addresses[k] = a
		}
	}
	return nil
}

// ---- clock ----

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
