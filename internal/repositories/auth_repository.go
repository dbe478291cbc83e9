package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"supplestore_backend/internal/models"
)

// AuthRepository defines the interface for user account persistence.
type AuthRepository interface {
	CreateUser(executor SQLExecutor, user *models.User, passwordHash string) (int64, error)
	FindUserByEmail(email string) (*models.User, string, error) // user, password hash, error
	FindUserByID(userID int64) (*models.User, error)
	GetStaffByStore(storeID int64) ([]models.User, error)
}

type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

const userColumns = `id, email, password_hash, full_name, role, store_id, is_active, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.StoreID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *authRepository) CreateUser(executor SQLExecutor, user *models.User, passwordHash string) (int64, error) {
	query := `INSERT INTO users (email, password_hash, full_name, role, store_id, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	now := time.Now()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := executor.QueryRow(query, user.Email, passwordHash, user.FullName, user.Role, user.StoreID, true, now, now).Scan(&user.ID)
	if err != nil {
		if dup, constraint := isUniqueViolation(err); dup {
			return 0, fmt.Errorf("%w: email '%s' already registered (constraint: %s)", ErrDuplicateKey, user.Email, constraint)
		}
		return 0, fmt.Errorf("%w: creating user: %v", ErrDatabaseError, err)
	}
	user.IsActive = true
	user.CreatedAt, user.UpdatedAt = now, now
	return user.ID, nil
}

func (r *authRepository) FindUserByEmail(email string) (*models.User, string, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRow(query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: finding user by email: %v", ErrDatabaseError, err)
	}
	hash := user.PasswordHash
	user.PasswordHash = ""
	return user, hash, nil
}

func (r *authRepository) FindUserByID(userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %d: %v", ErrDatabaseError, userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}

// GetStaffByStore lists the staff accounts attached to a store, oldest first.
func (r *authRepository) GetStaffByStore(storeID int64) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE store_id = $1 AND role = $2 ORDER BY created_at, id`
	rows, err := r.db.Query(query, storeID, models.RoleStaff)
	if err != nil {
		return nil, fmt.Errorf("%w: listing staff for store %d: %v", ErrDatabaseError, storeID, err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning staff row: %v", ErrDatabaseError, err)
		}
		u.PasswordHash = ""
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating staff rows: %v", ErrDatabaseError, err)
	}
	return users, nil
}
