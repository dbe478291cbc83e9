package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"supplestore_backend/internal/models"

	"github.com/lib/pq"
)

// StoreRepository persists stores and the merchant billing state they carry.
type StoreRepository interface {
	CreateStore(executor SQLExecutor, store *models.Store) (int64, error)
	GetStoreByID(storeID int64) (*models.Store, error)
	GetStoreBySlug(slug string) (*models.Store, error)
	GetStoreByOwnerID(ownerID int64) (*models.Store, error)
	SlugExists(slug string) (bool, error)
	UpdateStore(executor SQLExecutor, store *models.Store) error
	UpdateSubscription(executor SQLExecutor, storeID int64, status models.SubscriptionStatus, endsAt *time.Time) error
}

type storeRepository struct {
	db *sql.DB
}

// NewStoreRepository creates a new instance of StoreRepository.
func NewStoreRepository(db *sql.DB) StoreRepository {
	return &storeRepository{db: db}
}

const storeColumns = `id, owner_id, name, slug, description, logo_url, whatsapp_phone, theme_color, address,
	delivery_fee_type, delivery_fee, delivery_fee_per_km, free_delivery_above,
	opening_time, closing_time, opening_days, timezone, low_stock_threshold,
	subscription_status, trial_ends_at, subscription_ends_at, created_at, updated_at`

func scanStore(row scanner) (*models.Store, error) {
	s := &models.Store{}
	var days pq.Int64Array
	var feeType, subStatus string
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Name, &s.Slug, &s.Description, &s.LogoURL, &s.WhatsAppPhone, &s.ThemeColor, &s.Address,
		&feeType, &s.DeliveryFee.Fee, &s.DeliveryFee.PerKm, &s.DeliveryFee.FreeAbove,
		&s.Hours.OpensAt, &s.Hours.ClosesAt, &days, &s.Hours.Timezone, &s.LowStockThreshold,
		&subStatus, &s.TrialEndsAt, &s.SubscriptionEndsAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.DeliveryFee.Type = models.DeliveryFeeType(feeType)
	s.SubscriptionStatus = models.SubscriptionStatus(subStatus)
	s.Hours.Days = make([]int, len(days))
	for i, d := range days {
		s.Hours.Days[i] = int(d)
	}
	return s, nil
}

func daysArray(days []int) pq.Int64Array {
	out := make(pq.Int64Array, len(days))
	for i, d := range days {
		out[i] = int64(d)
	}
	return out
}

func (r *storeRepository) CreateStore(executor SQLExecutor, store *models.Store) (int64, error) {
	query := `INSERT INTO stores
	            (owner_id, name, slug, description, whatsapp_phone, theme_color,
	             delivery_fee_type, delivery_fee, delivery_fee_per_km, free_delivery_above,
	             opening_time, closing_time, opening_days, timezone, low_stock_threshold,
	             subscription_status, trial_ends_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		store.OwnerID, store.Name, store.Slug, store.Description, store.WhatsAppPhone, store.ThemeColor,
		string(store.DeliveryFee.Type), store.DeliveryFee.Fee, store.DeliveryFee.PerKm, store.DeliveryFee.FreeAbove,
		store.Hours.OpensAt, store.Hours.ClosesAt, daysArray(store.Hours.Days), store.Hours.Timezone, store.LowStockThreshold,
		string(store.SubscriptionStatus), store.TrialEndsAt, now, now,
	).Scan(&store.ID)
	if err != nil {
		if dup, constraint := isUniqueViolation(err); dup {
			return 0, fmt.Errorf("%w: store slug '%s' already taken (constraint: %s)", ErrDuplicateKey, store.Slug, constraint)
		}
		return 0, fmt.Errorf("%w: creating store: %v", ErrDatabaseError, err)
	}
	store.CreatedAt, store.UpdatedAt = now, now
	return store.ID, nil
}

func (r *storeRepository) getOne(where string, arg interface{}) (*models.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE ` + where
	store, err := scanStore(r.db.QueryRow(query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting store (%s %v): %v", ErrDatabaseError, where, arg, err)
	}
	return store, nil
}

func (r *storeRepository) GetStoreByID(storeID int64) (*models.Store, error) {
	return r.getOne("id = $1", storeID)
}

func (r *storeRepository) GetStoreBySlug(slug string) (*models.Store, error) {
	return r.getOne("slug = $1", slug)
}

func (r *storeRepository) GetStoreByOwnerID(ownerID int64) (*models.Store, error) {
	return r.getOne("owner_id = $1", ownerID)
}

func (r *storeRepository) SlugExists(slug string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM stores WHERE slug = $1)`, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: checking slug '%s': %v", ErrDatabaseError, slug, err)
	}
	return exists, nil
}

func (r *storeRepository) UpdateStore(executor SQLExecutor, store *models.Store) error {
	query := `UPDATE stores SET
	            name = $1, slug = $2, description = $3, logo_url = $4, whatsapp_phone = $5, theme_color = $6, address = $7,
	            delivery_fee_type = $8, delivery_fee = $9, delivery_fee_per_km = $10, free_delivery_above = $11,
	            opening_time = $12, closing_time = $13, opening_days = $14, timezone = $15, low_stock_threshold = $16,
	            updated_at = $17
	          WHERE id = $18`
	store.UpdatedAt = time.Now()
	result, err := executor.Exec(query,
		store.Name, store.Slug, store.Description, store.LogoURL, store.WhatsAppPhone, store.ThemeColor, store.Address,
		string(store.DeliveryFee.Type), store.DeliveryFee.Fee, store.DeliveryFee.PerKm, store.DeliveryFee.FreeAbove,
		store.Hours.OpensAt, store.Hours.ClosesAt, daysArray(store.Hours.Days), store.Hours.Timezone, store.LowStockThreshold,
		store.UpdatedAt, store.ID,
	)
	if err != nil {
		if dup, constraint := isUniqueViolation(err); dup {
			return fmt.Errorf("%w: store slug '%s' already taken (constraint: %s)", ErrDuplicateKey, store.Slug, constraint)
		}
		return fmt.Errorf("%w: updating store ID %d: %v", ErrDatabaseError, store.ID, err)
	}
	return checkRowsAffected(result)
}

func (r *storeRepository) UpdateSubscription(executor SQLExecutor, storeID int64, status models.SubscriptionStatus, endsAt *time.Time) error {
	query := `UPDATE stores SET subscription_status = $1, subscription_ends_at = COALESCE($2, subscription_ends_at), updated_at = $3
	          WHERE id = $4`
	result, err := executor.Exec(query, string(status), endsAt, time.Now(), storeID)
	if err != nil {
		return fmt.Errorf("%w: updating subscription for store ID %d: %v", ErrDatabaseError, storeID, err)
	}
	return checkRowsAffected(result)
}
