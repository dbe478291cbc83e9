package services

import (
	"time"

	"supplestore_backend/internal/models"
	"supplestore_backend/internal/repositories"
)

// Fakes embed the repository interface so only the methods a test needs are implemented.

type fakeProductRepo struct {
	repositories.ProductRepository
	products    map[int64]*models.Product
	stockDeltas map[int64]int
	kitItems    map[int64][]models.KitItem
	nextID      int64
}

func newFakeProductRepo(products ...models.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: map[int64]*models.Product{}, stockDeltas: map[int64]int{}, kitItems: map[int64][]models.KitItem{}, nextID: 50}
	for i := range products {
		p := products[i]
		r.products[p.ID] = &p
	}
	return r
}

func (r *fakeProductRepo) GetProductByID(storeID, productID int64) (*models.Product, error) {
	p, ok := r.products[productID]
	if !ok || p.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) GetProductsByIDs(storeID int64, ids []int64) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok && p.StoreID == storeID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) CreateProduct(_ repositories.SQLExecutor, p *models.Product) (int64, error) {
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.products[p.ID] = &cp
	return p.ID, nil
}

func (r *fakeProductRepo) UpdateProduct(_ repositories.SQLExecutor, p *models.Product) error {
	if _, ok := r.products[p.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) ReplaceKitItems(_ repositories.SQLExecutor, kitID int64, items []models.KitItem) error {
	r.kitItems[kitID] = append([]models.KitItem{}, items...)
	return nil
}

func (r *fakeProductRepo) GetKitItems(kitID int64) ([]models.KitItem, error) {
	return append([]models.KitItem{}, r.kitItems[kitID]...), nil
}

func (r *fakeProductRepo) UpdateStock(_ repositories.SQLExecutor, storeID, productID int64, delta int) (int, error) {
	p, ok := r.products[productID]
	if !ok || p.StoreID != storeID {
		return 0, repositories.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return p.Stock, repositories.ErrNegativeStock
	}
	p.Stock += delta
	r.stockDeltas[productID] += delta
	return p.Stock, nil
}

type fakeOrderRepo struct {
	repositories.OrderRepository
	orders         map[int64]*models.Order
	items          map[int64][]models.OrderItem
	nextID         int64
	statusErr      error
	completedCount int
	countCalls     int
	// afterStatusWrite lets a test simulate another writer.
	afterStatusWrite func(o *models.Order)
	deleted          []int64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[int64]*models.Order{}, items: map[int64][]models.OrderItem{}, nextID: 100}
}

func (r *fakeOrderRepo) CreateOrder(_ repositories.SQLExecutor, o *models.Order) (int64, error) {
	r.nextID++
	o.ID = r.nextID
	cp := *o
	r.orders[o.ID] = &cp
	return o.ID, nil
}

func (r *fakeOrderRepo) CreateOrderItem(_ repositories.SQLExecutor, it *models.OrderItem) (int64, error) {
	it.ID = int64(len(r.items[it.OrderID]) + 1)
	r.items[it.OrderID] = append(r.items[it.OrderID], *it)
	return it.ID, nil
}

func (r *fakeOrderRepo) GetOrderByID(storeID, orderID int64) (*models.Order, error) {
	o, ok := r.orders[orderID]
	if !ok || o.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error) {
	return append([]models.OrderItem{}, r.items[orderID]...), nil
}

func (r *fakeOrderRepo) UpdateOrderStatus(_ repositories.SQLExecutor, storeID, orderID int64, from, to models.OrderStatus) error {
	if r.statusErr != nil {
		if r.afterStatusWrite != nil {
			r.afterStatusWrite(r.orders[orderID])
		}
		return r.statusErr
	}
	o, ok := r.orders[orderID]
	if !ok || o.StoreID != storeID || o.Status != from {
		return repositories.ErrNotFound
	}
	o.Status = to
	return nil
}

func (r *fakeOrderRepo) DeleteOrder(_ repositories.SQLExecutor, storeID, orderID int64) error {
	if _, ok := r.orders[orderID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.orders, orderID)
	r.deleted = append(r.deleted, orderID)
	return nil
}

func (r *fakeOrderRepo) CountCompletedOrdersByPhone(storeID int64, phone string) (int, error) {
	r.countCalls++
	return r.completedCount, nil
}

type fakeCustomerRepo struct {
	repositories.CustomerRepository
	upserted []models.Customer
}

func (r *fakeCustomerRepo) UpsertCustomerByPhone(_ repositories.SQLExecutor, c *models.Customer) (int64, error) {
	c.ID = int64(len(r.upserted) + 1)
	r.upserted = append(r.upserted, *c)
	return c.ID, nil
}

type fakeMovementRepo struct {
	repositories.StockMovementRepository
	movements []models.StockMovement
}

func (r *fakeMovementRepo) CreateMovement(_ repositories.SQLExecutor, m *models.StockMovement) (int64, error) {
	m.ID = int64(len(r.movements) + 1)
	r.movements = append(r.movements, *m)
	return m.ID, nil
}

type fakeTransactionRepo struct {
	repositories.TransactionRepository
	created []models.Transaction
	list    []models.Transaction
}

func (r *fakeTransactionRepo) CreateTransaction(_ repositories.SQLExecutor, t *models.Transaction) (int64, error) {
	t.ID = int64(len(r.created) + 1)
	r.created = append(r.created, *t)
	return t.ID, nil
}

func (r *fakeTransactionRepo) GetTransactions(storeID int64, filters models.TransactionFilters) ([]models.Transaction, int, error) {
	return r.list, len(r.list), nil
}

type fakeCouponRepo struct {
	repositories.CouponRepository
	byCode map[string]*models.Coupon
}

func (r *fakeCouponRepo) GetCouponByCode(storeID int64, code string) (*models.Coupon, error) {
	c, ok := r.byCode[code]
	if !ok || c.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	return c, nil
}

type fakeStoreRepo struct {
	repositories.StoreRepository
	stores  map[int64]*models.Store
	loadErr   error
	updateErr error
	updates   []subscriptionUpdate
}

type subscriptionUpdate struct {
	StoreID int64
	Status  models.SubscriptionStatus
	EndsAt  *time.Time
}

func (r *fakeStoreRepo) GetStoreByID(storeID int64) (*models.Store, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	s, ok := r.stores[storeID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStoreRepo) UpdateSubscription(_ repositories.SQLExecutor, storeID int64, status models.SubscriptionStatus, endsAt *time.Time) error {
	if _, ok := r.stores[storeID]; !ok {
		return repositories.ErrNotFound
	}
	r.updates = append(r.updates, subscriptionUpdate{storeID, status, endsAt})
	return nil
}

func (r *fakeStoreRepo) UpdateStore(_ repositories.SQLExecutor, store *models.Store) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	cp := *store
	r.stores[store.ID] = &cp
	return nil
}

func (r *fakeStoreRepo) CreateStore(_ repositories.SQLExecutor, store *models.Store) (int64, error) {
	store.ID = int64(len(r.stores) + 1)
	cp := *store
	r.stores[store.ID] = &cp
	return store.ID, nil
}

func (r *fakeStoreRepo) SlugExists(slug string) (bool, error) {
	for _, s := range r.stores {
		if s.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeStoreRepo) GetStoreByOwnerID(ownerID int64) (*models.Store, error) {
	for _, s := range r.stores {
		if s.OwnerID == ownerID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

type fakeAuthRepo struct {
	repositories.AuthRepository
	users  map[string]*models.User
	hashes map[string]string
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: map[string]*models.User{}, hashes: map[string]string{}}
}

func (r *fakeAuthRepo) CreateUser(_ repositories.SQLExecutor, user *models.User, passwordHash string) (int64, error) {
	if _, ok := r.users[user.Email]; ok {
		return 0, repositories.ErrDuplicateKey
	}
	user.ID = int64(len(r.users) + 1)
	cp := *user
	r.users[user.Email] = &cp
	r.hashes[user.Email] = passwordHash
	return user.ID, nil
}

func (r *fakeAuthRepo) FindUserByEmail(email string) (*models.User, string, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, "", repositories.ErrNotFound
	}
	cp := *u
	return &cp, r.hashes[email], nil
}

func (r *fakeAuthRepo) GetStaffByStore(storeID int64) ([]models.User, error) {
	out := []models.User{}
	for _, u := range r.users {
		if u.Role == models.RoleStaff && u.StoreID != nil && *u.StoreID == storeID {
			out = append(out, *u)
		}
	}
	return out, nil
}
