package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"supplestore_backend/internal/models"
)

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	// Order methods
	CreateOrder(executor SQLExecutor, order *models.Order) (int64, error)
	GetOrderByID(storeID, orderID int64) (*models.Order, error) // Basic order details
	GetOrders(storeID int64, filters models.OrderFilters) ([]models.Order, int, error) // orders, total count, error
	UpdateOrderStatus(executor SQLExecutor, storeID, orderID int64, from, to models.OrderStatus) error
	UpdateOrderDetails(executor SQLExecutor, order *models.Order) error
	SetInvoiceURL(executor SQLExecutor, storeID, orderID int64, url string) error
	DeleteOrder(executor SQLExecutor, storeID, orderID int64) error
	CountCompletedOrdersByPhone(storeID int64, phone string) (int, error)

	// OrderItem methods
	CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error)
	GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// --- Order Methods ---

const orderColumns = `o.id, o.store_id, o.customer_id, o.customer_name, o.customer_phone, o.delivery_mode, o.address,
	o.subtotal, o.shipping_fee, o.discount_amount, o.coupon_code, o.total_amount, o.status,
	o.payment_method, o.notes, o.invoice_url, o.created_at, o.updated_at`

func scanOrder(row scanner, extra ...interface{}) (*models.Order, error) {
	o := &models.Order{Items: []models.OrderItem{}}
	dest := []interface{}{
		&o.ID, &o.StoreID, &o.CustomerID, &o.CustomerName, &o.CustomerPhone, &o.DeliveryMode, &o.Address,
		&o.Subtotal, &o.ShippingFee, &o.DiscountAmount, &o.CouponCode, &o.TotalAmount, &o.Status,
		&o.PaymentMethod, &o.Notes, &o.InvoiceURL, &o.CreatedAt, &o.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) CreateOrder(executor SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders
	            (store_id, customer_id, customer_name, customer_phone, delivery_mode, address,
	             subtotal, shipping_fee, discount_amount, coupon_code, total_amount, status,
	             payment_method, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	          RETURNING id`

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}

	err := executor.QueryRow(query,
		order.StoreID, order.CustomerID, order.CustomerName, order.CustomerPhone, order.DeliveryMode, order.Address,
		order.Subtotal, order.ShippingFee, order.DiscountAmount, order.CouponCode, order.TotalAmount, order.Status,
		order.PaymentMethod, order.Notes, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return order.ID, nil
}

func (r *orderRepository) GetOrderByID(storeID, orderID int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.store_id = $1 AND o.id = $2`
	order, err := scanOrder(r.db.QueryRow(query, storeID, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return order, nil
}

func (r *orderRepository) GetOrders(storeID int64, filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count FROM orders o`)

	conditions := []string{"o.store_id = $1"}
	args := []interface{}{storeID}
	argCounter := 2

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.DateFrom != nil && *filters.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d::date", argCounter))
		args = append(args, *filters.DateFrom)
		argCounter++
	}
	if filters.DateTo != nil && *filters.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("o.created_at < ($%d::date + INTERVAL '1 day')", argCounter))
		args = append(args, *filters.DateTo)
		argCounter++
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(o.customer_name ILIKE $%d OR o.customer_phone LIKE $%d)", argCounter, argCounter))
		args = append(args, "%"+filters.Search+"%")
		argCounter++
	}

	queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY o.created_at DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
		args = append(args, filters.PageSize, offsetFor(filters.Page, filters.PageSize))
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOrder(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

// UpdateOrderStatus is a compare-and-set on status: it reports ErrNotFound when the
// order is missing or no longer in the from state.
func (r *orderRepository) UpdateOrderStatus(executor SQLExecutor, storeID, orderID int64, from, to models.OrderStatus) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND store_id = $4 AND status = $5`
	result, err := executor.Exec(query, to, time.Now(), orderID, storeID, from)
	if err != nil {
		return fmt.Errorf("%w: updating order status for ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return checkRowsAffected(result)
}

func (r *orderRepository) UpdateOrderDetails(executor SQLExecutor, order *models.Order) error {
	query := `UPDATE orders SET customer_name = $1, customer_phone = $2, address = $3, payment_method = $4,
	            notes = $5, updated_at = $6
	          WHERE id = $7 AND store_id = $8`
	order.UpdatedAt = time.Now()
	result, err := executor.Exec(query, order.CustomerName, order.CustomerPhone, order.Address, order.PaymentMethod,
		order.Notes, order.UpdatedAt, order.ID, order.StoreID)
	if err != nil {
		return fmt.Errorf("%w: updating order ID %d: %v", ErrDatabaseError, order.ID, err)
	}
	return checkRowsAffected(result)
}

func (r *orderRepository) SetInvoiceURL(executor SQLExecutor, storeID, orderID int64, url string) error {
	result, err := executor.Exec(`UPDATE orders SET invoice_url = $1, updated_at = $2 WHERE id = $3 AND store_id = $4`,
		url, time.Now(), orderID, storeID)
	if err != nil {
		return fmt.Errorf("%w: setting invoice for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return checkRowsAffected(result)
}

// DeleteOrder removes the order; order_items go with it through ON DELETE CASCADE.
func (r *orderRepository) DeleteOrder(executor SQLExecutor, storeID, orderID int64) error {
	result, err := executor.Exec(`DELETE FROM orders WHERE id = $1 AND store_id = $2`, orderID, storeID)
	if err != nil {
		return fmt.Errorf("%w: deleting order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return checkRowsAffected(result)
}

func (r *orderRepository) CountCompletedOrdersByPhone(storeID int64, phone string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders WHERE store_id = $1 AND customer_phone = $2 AND status = $3`
	if err := r.db.QueryRow(query, storeID, phone, models.OrderStatusCompleted).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting completed orders: %v", ErrDatabaseError, err)
	}
	return count, nil
}

// --- OrderItem Methods ---

func (r *orderRepository) CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error) {
	query := `INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, total_price)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	err := executor.QueryRow(query,
		item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice,
	).Scan(&item.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating order item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *orderRepository) GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	query := `SELECT id, order_id, product_id, product_name, quantity, unit_price, total_price
	          FROM order_items
	          WHERE order_id = $1
	          ORDER BY id`
	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity,
			&item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, fmt.Errorf("%w: scanning order item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}
