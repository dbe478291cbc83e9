package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"supplestore_backend/internal/models"
)

// CustomerRepository defines the interface for customer data operations.
type CustomerRepository interface {
	UpsertCustomerByPhone(executor SQLExecutor, customer *models.Customer) (int64, error)
	CreateCustomer(executor SQLExecutor, customer *models.Customer) (int64, error)
	GetCustomerByID(storeID, customerID int64) (*models.Customer, error)
	GetCustomers(storeID int64, search string, page, pageSize int) ([]models.Customer, int, error)
	UpdateCustomer(executor SQLExecutor, customer *models.Customer) error
	DeleteCustomer(executor SQLExecutor, storeID, customerID int64) error
}

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, store_id, full_name, phone, email, address, notes, created_at, updated_at`

func scanCustomer(row scanner, extra ...interface{}) (*models.Customer, error) {
	c := &models.Customer{}
	dest := []interface{}{&c.ID, &c.StoreID, &c.FullName, &c.Phone, &c.Email, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return c, nil
}

// UpsertCustomerByPhone creates the customer or refreshes name and address of the
// existing one with the same phone in the store.
func (r *customerRepository) UpsertCustomerByPhone(executor SQLExecutor, customer *models.Customer) (int64, error) {
	query := `INSERT INTO customers (store_id, full_name, phone, address, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $5)
	          ON CONFLICT ON CONSTRAINT customers_store_phone_key DO UPDATE
	            SET full_name = EXCLUDED.full_name,
	                address = COALESCE(EXCLUDED.address, customers.address),
	                updated_at = EXCLUDED.updated_at
	          RETURNING id, created_at`
	now := time.Now()
	err := executor.QueryRow(query, customer.StoreID, customer.FullName, customer.Phone, customer.Address, now).
		Scan(&customer.ID, &customer.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("%w: upserting customer: %v", ErrDatabaseError, err)
	}
	customer.UpdatedAt = now
	return customer.ID, nil
}

func (r *customerRepository) CreateCustomer(executor SQLExecutor, customer *models.Customer) (int64, error) {
	query := `INSERT INTO customers (store_id, full_name, phone, email, address, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query, customer.StoreID, customer.FullName, customer.Phone, customer.Email,
		customer.Address, customer.Notes, now).Scan(&customer.ID)
	if err != nil {
		if dup, constraint := isUniqueViolation(err); dup {
			return 0, fmt.Errorf("%w: creating customer (constraint: %s): %v", ErrDuplicateKey, constraint, err)
		}
		return 0, fmt.Errorf("%w: creating customer: %v", ErrDatabaseError, err)
	}
	customer.CreatedAt, customer.UpdatedAt = now, now
	return customer.ID, nil
}

func (r *customerRepository) GetCustomerByID(storeID, customerID int64) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE store_id = $1 AND id = $2`
	c, err := scanCustomer(r.db.QueryRow(query, storeID, customerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting customer by ID %d: %v", ErrDatabaseError, customerID, err)
	}
	return c, nil
}

func (r *customerRepository) GetCustomers(storeID int64, search string, page, pageSize int) ([]models.Customer, int, error) {
	customers := []models.Customer{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + customerColumns + `, COUNT(*) OVER() AS total_count FROM customers WHERE store_id = $1`)
	args := []interface{}{storeID}
	argCount := 2
	if search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (full_name ILIKE $%d OR phone LIKE $%d)", argCount, argCount))
		args = append(args, "%"+search+"%")
		argCount++
	}
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY full_name LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, offsetFor(page, pageSize))

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying customers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCustomer(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning customer: %v", ErrDatabaseError, err)
		}
		customers = append(customers, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating customer rows: %v", ErrDatabaseError, err)
	}
	return customers, totalCount, nil
}

func (r *customerRepository) UpdateCustomer(executor SQLExecutor, customer *models.Customer) error {
	query := `UPDATE customers SET full_name = $1, phone = $2, email = $3, address = $4, notes = $5, updated_at = $6
	          WHERE id = $7 AND store_id = $8`
	customer.UpdatedAt = time.Now()
	result, err := executor.Exec(query, customer.FullName, customer.Phone, customer.Email, customer.Address,
		customer.Notes, customer.UpdatedAt, customer.ID, customer.StoreID)
	if err != nil {
		if dup, constraint := isUniqueViolation(err); dup {
			return fmt.Errorf("%w: updating customer (constraint: %s): %v", ErrDuplicateKey, constraint, err)
		}
		return fmt.Errorf("%w: updating customer ID %d: %v", ErrDatabaseError, customer.ID, err)
	}
	return checkRowsAffected(result)
}

func (r *customerRepository) DeleteCustomer(executor SQLExecutor, storeID, customerID int64) error {
	result, err := executor.Exec(`DELETE FROM customers WHERE id = $1 AND store_id = $2`, customerID, storeID)
	if err != nil {
		return fmt.Errorf("%w: deleting customer ID %d: %v", ErrDatabaseError, customerID, err)
	}
	return checkRowsAffected(result)
}
