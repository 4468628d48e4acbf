package customer

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for customer data storage.
type Repository interface {
	// CreateCustomer fails with Conflict when the username is taken.
	CreateCustomer(ctx context.Context, c *Customer) error
	GetCustomerByUsername(ctx context.Context, username string) (*Customer, error)
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	UpdateCustomer(ctx context.Context, c *Customer) error
	// DeleteCustomer removes the customer together with its cart. A customer
	// referenced by orders is a ReferentialIntegrityViolation.
	DeleteCustomer(ctx context.Context, id uuid.UUID) error
}
