package customer

import (
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-backend/internal/modules/address"
)

// Customer is a shopper account.
type Customer struct {
	ID           uuid.UUID          `json:"id"`
	Username     string             `json:"username"`
	PasswordHash string             `json:"-"`
	Email        string             `json:"email,omitempty"`
	FirstName    string             `json:"first_name,omitempty"`
	LastName     string             `json:"last_name,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Addresses    []*address.Address `json:"addresses,omitempty"`
	CartID       uuid.UUID          `json:"cart_id,omitempty"`
}

// RegisterRequest holds the data for creating a customer account.
type RegisterRequest struct {
	Username  string          `json:"username"`
	Password  string          `json:"password"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Addresses []address.Input `json:"addresses"`
}

// UpdateRequest holds the editable profile fields. The username is fixed.
type UpdateRequest struct {
	Password  string `json:"password,omitempty"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
