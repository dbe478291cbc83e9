package models

import "time"

// Customer is a storefront shopper known to the store, keyed by phone.
type Customer struct {
	ID        int64     `json:"id"`
	StoreID   int64     `json:"store_id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
