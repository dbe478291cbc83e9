package models

import "time"

const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

// User is a merchant account that can sign in to the admin dashboard.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"full_name" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	StoreID      *int64    `json:"store_id,omitempty" db:"store_id"` // set for staff; owners reach their store through stores.owner_id
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
