package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"supplestore_backend/internal/models"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrCartBusy is returned when another request holds the cart lock for too long.
var ErrCartBusy = errors.New("cart is being modified by another request")

// CartRepository stores shopper carts keyed by "<storeID>:<token>".
// Load returns an empty cart for unknown keys.
type CartRepository interface {
	Load(ctx context.Context, key string) (*models.Cart, error)
	Save(ctx context.Context, key string, cart *models.Cart) error
	Delete(ctx context.Context, key string) error
	// Update runs fn on the stored cart under a per-key lock and saves the result.
	Update(ctx context.Context, key string, fn func(cart *models.Cart) error) (*models.Cart, error)
}

// CartKey builds the storage key for a store's cart token.
func CartKey(storeID int64, token string) string {
	return fmt.Sprintf("%d:%s", storeID, token)
}

// --- Redis ---

type redisCartRepository struct {
	rdb    *redis.Client
	locker *redislock.Client
	ttl    time.Duration
}

// NewRedisCartRepository stores carts as JSON with a sliding TTL.
func NewRedisCartRepository(rdb *redis.Client, ttl time.Duration) CartRepository {
	return &redisCartRepository{rdb: rdb, locker: redislock.New(rdb), ttl: ttl}
}

func (r *redisCartRepository) dataKey(key string) string { return "storefront:cart:" + key }
func (r *redisCartRepository) lockKey(key string) string { return "lock:cart:" + key }

func (r *redisCartRepository) Load(ctx context.Context, key string) (*models.Cart, error) {
	raw, err := r.rdb.Get(ctx, r.dataKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.NewCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: loading cart: %v", ErrDatabaseError, err)
	}
	cart := models.NewCart()
	if err := json.Unmarshal(raw, cart); err != nil {
		return nil, fmt.Errorf("%w: decoding cart: %v", ErrDatabaseError, err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return cart, nil
}

func (r *redisCartRepository) Save(ctx context.Context, key string, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("%w: encoding cart: %v", ErrDatabaseError, err)
	}
	if err := r.rdb.Set(ctx, r.dataKey(key), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: saving cart: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *redisCartRepository) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.dataKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: deleting cart: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *redisCartRepository) Update(ctx context.Context, key string, fn func(cart *models.Cart) error) (*models.Cart, error) {
	lock, err := r.locker.Obtain(ctx, r.lockKey(key), 5*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(25*time.Millisecond), 40),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrCartBusy
	} else if err != nil {
		return nil, fmt.Errorf("%w: obtaining cart lock: %v", ErrDatabaseError, err)
	}
	defer func() {
		_ = lock.Release(context.WithoutCancel(ctx))
	}()

	cart, err := r.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	if err := r.Save(ctx, key, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// --- In-memory ---

type memoryCartEntry struct {
	raw       []byte
	expiresAt time.Time
}

type memoryCartRepository struct {
	mu    sync.Mutex
	carts map[string]memoryCartEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryCartRepository keeps carts in process memory. Used when no Redis address is configured.
func NewMemoryCartRepository(ttl time.Duration) CartRepository {
	return &memoryCartRepository{carts: map[string]memoryCartEntry{}, ttl: ttl, now: time.Now}
}

func (r *memoryCartRepository) loadLocked(key string) (*models.Cart, error) {
	entry, ok := r.carts[key]
	if !ok || (r.ttl > 0 && r.now().After(entry.expiresAt)) {
		delete(r.carts, key)
		return models.NewCart(), nil
	}
	cart := models.NewCart()
	if err := json.Unmarshal(entry.raw, cart); err != nil {
		return nil, fmt.Errorf("%w: decoding cart: %v", ErrDatabaseError, err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return cart, nil
}

func (r *memoryCartRepository) saveLocked(key string, cart *models.Cart) error {
	cart.UpdatedAt = r.now()
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("%w: encoding cart: %v", ErrDatabaseError, err)
	}
	r.carts[key] = memoryCartEntry{raw: raw, expiresAt: cart.UpdatedAt.Add(r.ttl)}
	return nil
}

func (r *memoryCartRepository) Load(_ context.Context, key string) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked(key)
}

func (r *memoryCartRepository) Save(_ context.Context, key string, cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(key, cart)
}

func (r *memoryCartRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, key)
	return nil
}

func (r *memoryCartRepository) Update(_ context.Context, key string, fn func(cart *models.Cart) error) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, err := r.loadLocked(key)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	if err := r.saveLocked(key, cart); err != nil {
		return nil, err
	}
	return cart, nil
}
