package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"supplestore_backend/internal/models"
)

// StockMovementRepository records and lists stock changes.
type StockMovementRepository interface {
	CreateMovement(executor SQLExecutor, movement *models.StockMovement) (int64, error)
	GetMovements(storeID int64, productID *int64, page, pageSize int) ([]models.StockMovement, int, error)
}

type stockMovementRepository struct {
	db *sql.DB
}

// NewStockMovementRepository creates a new instance of StockMovementRepository.
func NewStockMovementRepository(db *sql.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) CreateMovement(executor SQLExecutor, movement *models.StockMovement) (int64, error) {
	query := `INSERT INTO stock_movements (store_id, product_id, user_id, movement_type, quantity_changed, reason, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query,
		movement.StoreID, movement.ProductID, movement.UserID, movement.MovementType,
		movement.QuantityChanged, movement.Reason, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating stock movement: %v", ErrDatabaseError, err)
	}
	return movement.ID, nil
}

func (r *stockMovementRepository) GetMovements(storeID int64, productID *int64, page, pageSize int) ([]models.StockMovement, int, error) {
	movements := []models.StockMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    sm.id, sm.store_id, sm.product_id, sm.user_id, sm.movement_type, sm.quantity_changed, sm.reason, sm.created_at,
	    p.name AS product_name,
	    COUNT(*) OVER() AS total_count
	  FROM stock_movements sm
	  JOIN products p ON sm.product_id = p.id
	  WHERE sm.store_id = $1`)
	args := []interface{}{storeID}
	argCount := 2

	if productID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND sm.product_id = $%d", argCount))
		args = append(args, *productID)
		argCount++
	}
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY sm.created_at DESC LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, offsetFor(page, pageSize))

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying stock movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.StockMovement
		if err := rows.Scan(&m.ID, &m.StoreID, &m.ProductID, &m.UserID, &m.MovementType, &m.QuantityChanged,
			&m.Reason, &m.CreatedAt, &m.ProductName, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning stock movement: %v", ErrDatabaseError, err)
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating stock movements: %v", ErrDatabaseError, err)
	}
	return movements, totalCount, nil
}
