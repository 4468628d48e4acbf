package supplier

import (
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-backend/internal/modules/address"
)

// Supplier is a delivery company an order position can be assigned to.
type Supplier struct {
	ID          uuid.UUID          `json:"id"`
	CompanyName string             `json:"company_name"`
	CreatedAt   time.Time          `json:"created_at"`
	Addresses   []*address.Address `json:"addresses,omitempty"`
}

// CreateRequest holds data for registering a supplier.
type CreateRequest struct {
	CompanyName string          `json:"company_name"`
	Addresses   []address.Input `json:"addresses"`
}

// UpdateRequest renames a supplier.
type UpdateRequest struct {
	CompanyName string `json:"company_name"`
}
