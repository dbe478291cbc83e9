package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"supplestore_backend/internal/models"

	"github.com/lib/pq"
)

// ProductRepository defines the interface for catalog and stock persistence.
type ProductRepository interface {
	CreateProduct(executor SQLExecutor, product *models.Product) (int64, error)
	GetProductByID(storeID, productID int64) (*models.Product, error)
	GetProductByBarcode(storeID int64, barcode string) (*models.Product, error)
	GetProducts(storeID int64, filters models.ProductFilters) ([]models.Product, int, error)
	GetProductsByIDs(storeID int64, ids []int64) ([]models.Product, error)
	UpdateProduct(executor SQLExecutor, product *models.Product) error
	DeleteProduct(executor SQLExecutor, storeID, productID int64) error
	UpdateStock(executor SQLExecutor, storeID, productID int64, quantityChange int) (int, error) // Returns new stock level

	ReplaceKitItems(executor SQLExecutor, kitID int64, items []models.KitItem) error
	GetKitItems(kitID int64) ([]models.KitItem, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `p.id, p.store_id, p.name, p.description, p.price, p.cost_price, p.stock, p.category, p.brand,
	p.barcode, p.volume, p.flavor, p.image_url, p.is_kit, p.is_active, p.created_at, p.updated_at`

func scanProduct(row scanner, extra ...interface{}) (*models.Product, error) {
	p := &models.Product{}
	dest := []interface{}{
		&p.ID, &p.StoreID, &p.Name, &p.Description, &p.Price, &p.CostPrice, &p.Stock, &p.Category, &p.Brand,
		&p.Barcode, &p.Volume, &p.Flavor, &p.ImageURL, &p.IsKit, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) CreateProduct(executor SQLExecutor, product *models.Product) (int64, error) {
	query := `INSERT INTO products
	            (store_id, name, description, price, cost_price, stock, category, brand, barcode, volume, flavor,
	             image_url, is_kit, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		product.StoreID, product.Name, product.Description, product.Price, product.CostPrice, product.Stock,
		product.Category, product.Brand, product.Barcode, product.Volume, product.Flavor,
		product.ImageURL, product.IsKit, product.IsActive, now, now,
	).Scan(&product.ID)
	if err != nil {
		if dup, constraint := isUniqueViolation(err); dup {
			return 0, fmt.Errorf("%w: creating product (constraint: %s): %v", ErrDuplicateKey, constraint, err)
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	product.CreatedAt, product.UpdatedAt = now, now
	return product.ID, nil
}

func (r *productRepository) GetProductByID(storeID, productID int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.store_id = $1 AND p.id = $2`
	product, err := scanProduct(r.db.QueryRow(query, storeID, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, productID, err)
	}
	return product, nil
}

func (r *productRepository) GetProductByBarcode(storeID int64, barcode string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.store_id = $1 AND p.barcode = $2`
	product, err := scanProduct(r.db.QueryRow(query, storeID, strings.TrimSpace(barcode)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by barcode '%s': %v", ErrDatabaseError, barcode, err)
	}
	return product, nil
}

func (r *productRepository) GetProducts(storeID int64, filters models.ProductFilters) ([]models.Product, int, error) {
	products := []models.Product{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + productColumns + `, COUNT(*) OVER() AS total_count FROM products p`)

	conditions := []string{"p.store_id = $1"}
	args := []interface{}{storeID}
	argCounter := 2

	if filters.OnlyActive {
		conditions = append(conditions, "p.is_active = TRUE")
	}
	if filters.Category != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(p.category) = LOWER($%d)", argCounter))
		args = append(args, filters.Category)
		argCounter++
	}
	if filters.Brand != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(p.brand) = LOWER($%d)", argCounter))
		args = append(args, filters.Brand)
		argCounter++
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%d OR p.barcode = $%d)", argCounter, argCounter+1))
		args = append(args, "%"+filters.Search+"%", filters.Search)
		argCounter += 2
	}
	if filters.LowStock != nil {
		conditions = append(conditions, fmt.Sprintf("p.stock <= $%d", argCounter))
		args = append(args, *filters.LowStock)
		argCounter++
	}

	queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY p.name")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
		args = append(args, filters.PageSize, offsetFor(filters.Page, filters.PageSize))
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, totalCount, nil
}

func (r *productRepository) GetProductsByIDs(storeID int64, ids []int64) ([]models.Product, error) {
	products := []models.Product{}
	if len(ids) == 0 {
		return products, nil
	}
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.store_id = $1 AND p.id = ANY($2)`
	rows, err := r.db.Query(query, storeID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: querying products by IDs: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *productRepository) UpdateProduct(executor SQLExecutor, product *models.Product) error {
	query := `UPDATE products SET
	            name = $1, description = $2, price = $3, cost_price = $4, category = $5, brand = $6, barcode = $7,
	            volume = $8, flavor = $9, image_url = $10, is_kit = $11, is_active = $12, updated_at = $13
	          WHERE id = $14 AND store_id = $15`
	product.UpdatedAt = time.Now()
	result, err := executor.Exec(query,
		product.Name, product.Description, product.Price, product.CostPrice, product.Category, product.Brand, product.Barcode,
		product.Volume, product.Flavor, product.ImageURL, product.IsKit, product.IsActive, product.UpdatedAt,
		product.ID, product.StoreID,
	)
	if err != nil {
		if dup, constraint := isUniqueViolation(err); dup {
			return fmt.Errorf("%w: updating product (constraint: %s): %v", ErrDuplicateKey, constraint, err)
		}
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	return checkRowsAffected(result)
}

func (r *productRepository) DeleteProduct(executor SQLExecutor, storeID, productID int64) error {
	result, err := executor.Exec(`DELETE FROM products WHERE id = $1 AND store_id = $2`, productID, storeID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: product ID %d is a component of a kit", ErrForeignKey, productID)
		}
		return fmt.Errorf("%w: deleting product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return checkRowsAffected(result)
}

// UpdateStock applies a relative change; the guard in the WHERE clause keeps stock >= 0.
func (r *productRepository) UpdateStock(executor SQLExecutor, storeID, productID int64, quantityChange int) (int, error) {
	query := `UPDATE products SET stock = stock + $1, updated_at = $2
	          WHERE id = $3 AND store_id = $4 AND stock + $1 >= 0
	          RETURNING stock`
	var newStock int
	err := executor.QueryRow(query, quantityChange, time.Now(), productID, storeID).Scan(&newStock)
	if err == nil {
		return newStock, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: updating stock for product ID %d: %v", ErrDatabaseError, productID, err)
	}

	var current int
	err = executor.QueryRow(`SELECT stock FROM products WHERE id = $1 AND store_id = $2`, productID, storeID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading stock for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return current, fmt.Errorf("%w: product ID %d has %d, change %d", ErrNegativeStock, productID, current, quantityChange)
}

func (r *productRepository) ReplaceKitItems(executor SQLExecutor, kitID int64, items []models.KitItem) error {
	if _, err := executor.Exec(`DELETE FROM kit_items WHERE kit_id = $1`, kitID); err != nil {
		return fmt.Errorf("%w: clearing kit items for kit ID %d: %v", ErrDatabaseError, kitID, err)
	}
	for _, it := range items {
		_, err := executor.Exec(`INSERT INTO kit_items (kit_id, product_id, quantity) VALUES ($1, $2, $3)`,
			kitID, it.ProductID, it.Quantity)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: kit component product ID %d does not exist", ErrForeignKey, it.ProductID)
			}
			if dup, _ := isUniqueViolation(err); dup {
				return fmt.Errorf("%w: product ID %d listed twice in kit", ErrDuplicateKey, it.ProductID)
			}
			return fmt.Errorf("%w: inserting kit item: %v", ErrDatabaseError, err)
		}
	}
	return nil
}

func (r *productRepository) GetKitItems(kitID int64) ([]models.KitItem, error) {
	items := []models.KitItem{}
	query := `SELECT ki.product_id, ki.quantity, p.name, p.cost_price
	          FROM kit_items ki
	          JOIN products p ON p.id = ki.product_id
	          WHERE ki.kit_id = $1
	          ORDER BY p.name`
	rows, err := r.db.Query(query, kitID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying kit items for kit ID %d: %v", ErrDatabaseError, kitID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var it models.KitItem
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.ProductName, &it.CostPrice); err != nil {
			return nil, fmt.Errorf("%w: scanning kit item: %v", ErrDatabaseError, err)
		}
		items = append(items, it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating kit items: %v", ErrDatabaseError, err)
	}
	return items, nil
}
