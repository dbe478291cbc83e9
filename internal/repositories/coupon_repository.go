package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"supplestore_backend/internal/models"
)

// CouponRepository persists store discount codes. Codes are stored upper-case.
type CouponRepository interface {
	CreateCoupon(executor SQLExecutor, coupon *models.Coupon) (int64, error)
	GetCouponByID(storeID, couponID int64) (*models.Coupon, error)
	GetCouponByCode(storeID int64, code string) (*models.Coupon, error)
	GetCoupons(storeID int64) ([]models.Coupon, error)
	UpdateCoupon(executor SQLExecutor, coupon *models.Coupon) error
	DeleteCoupon(executor SQLExecutor, storeID, couponID int64) error
}

type couponRepository struct {
	db *sql.DB
}

// NewCouponRepository creates a new instance of CouponRepository.
func NewCouponRepository(db *sql.DB) CouponRepository {
	return &couponRepository{db: db}
}

const couponColumns = `id, store_id, code, discount_type, discount_value, usage_type, target_type, target_id, active, created_at, updated_at`

func scanCoupon(row scanner) (*models.Coupon, error) {
	c := &models.Coupon{}
	err := row.Scan(&c.ID, &c.StoreID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.UsageType, &c.TargetType,
		&c.TargetID, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *couponRepository) CreateCoupon(executor SQLExecutor, coupon *models.Coupon) (int64, error) {
	query := `INSERT INTO coupons (store_id, code, discount_type, discount_value, usage_type, target_type, target_id, active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	          RETURNING id`
	now := time.Now()
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	err := executor.QueryRow(query, coupon.StoreID, coupon.Code, coupon.DiscountType, coupon.DiscountValue,
		coupon.UsageType, coupon.TargetType, coupon.TargetID, coupon.Active, now).Scan(&coupon.ID)
	if err != nil {
		if dup, constraint := isUniqueViolation(err); dup {
			return 0, fmt.Errorf("%w: creating coupon (constraint: %s): %v", ErrDuplicateKey, constraint, err)
		}
		return 0, fmt.Errorf("%w: creating coupon: %v", ErrDatabaseError, err)
	}
	coupon.CreatedAt, coupon.UpdatedAt = now, now
	return coupon.ID, nil
}

func (r *couponRepository) GetCouponByID(storeID, couponID int64) (*models.Coupon, error) {
	c, err := scanCoupon(r.db.QueryRow(`SELECT `+couponColumns+` FROM coupons WHERE store_id = $1 AND id = $2`, storeID, couponID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting coupon by ID %d: %v", ErrDatabaseError, couponID, err)
	}
	return c, nil
}

func (r *couponRepository) GetCouponByCode(storeID int64, code string) (*models.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	c, err := scanCoupon(r.db.QueryRow(`SELECT `+couponColumns+` FROM coupons WHERE store_id = $1 AND code = $2`, storeID, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting coupon by code '%s': %v", ErrDatabaseError, code, err)
	}
	return c, nil
}

func (r *couponRepository) GetCoupons(storeID int64) ([]models.Coupon, error) {
	coupons := []models.Coupon{}
	rows, err := r.db.Query(`SELECT `+couponColumns+` FROM coupons WHERE store_id = $1 ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying coupons: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning coupon: %v", ErrDatabaseError, err)
		}
		coupons = append(coupons, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating coupon rows: %v", ErrDatabaseError, err)
	}
	return coupons, nil
}

func (r *couponRepository) UpdateCoupon(executor SQLExecutor, coupon *models.Coupon) error {
	query := `UPDATE coupons SET code = $1, discount_type = $2, discount_value = $3, usage_type = $4,
	            target_type = $5, target_id = $6, active = $7, updated_at = $8
	          WHERE id = $9 AND store_id = $10`
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	coupon.UpdatedAt = time.Now()
	result, err := executor.Exec(query, coupon.Code, coupon.DiscountType, coupon.DiscountValue, coupon.UsageType,
		coupon.TargetType, coupon.TargetID, coupon.Active, coupon.UpdatedAt, coupon.ID, coupon.StoreID)
	if err != nil {
		if dup, constraint := isUniqueViolation(err); dup {
			return fmt.Errorf("%w: updating coupon (constraint: %s): %v", ErrDuplicateKey, constraint, err)
		}
		return fmt.Errorf("%w: updating coupon ID %d: %v", ErrDatabaseError, coupon.ID, err)
	}
	return checkRowsAffected(result)
}

func (r *couponRepository) DeleteCoupon(executor SQLExecutor, storeID, couponID int64) error {
	result, err := executor.Exec(`DELETE FROM coupons WHERE id = $1 AND store_id = $2`, couponID, storeID)
	if err != nil {
		return fmt.Errorf("%w: deleting coupon ID %d: %v", ErrDatabaseError, couponID, err)
	}
	return checkRowsAffected(result)
}
