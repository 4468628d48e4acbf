package cart

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for carts and their lines.
type Repository interface {
	// CreateCart fails with Conflict when the customer already has a cart.
	CreateCart(ctx context.Context, c *ShoppingCart) error
	GetCart(ctx context.Context, id uuid.UUID) (*ShoppingCart, error)
	GetCartByCustomer(ctx context.Context, customerID uuid.UUID) (*ShoppingCart, error)

	// LockCart reads the cart row and locks it for the current transaction,
	// serializing line mutations and order placement on one cart.
	LockCart(ctx context.Context, id uuid.UUID) (*ShoppingCart, error)

	GetLine(ctx context.Context, cartID, vendorProductID uuid.UUID) (*Line, error)
	ListLines(ctx context.Context, cartID uuid.UUID) ([]*Line, error)
	InsertLine(ctx context.Context, l *Line) error
	UpdateLineAmount(ctx context.Context, cartID, vendorProductID uuid.UUID, amount int) error
	DeleteLine(ctx context.Context, cartID, vendorProductID uuid.UUID) error
}
