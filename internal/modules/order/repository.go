package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for orders.
type Repository interface {
	// CreateOrder inserts the order header only.
	CreateOrder(ctx context.Context, o *CustomerOrder) error

	// CreatePosition inserts one order position.
	CreatePosition(ctx context.Context, p *Position) error

	// GetOrderByID retrieves an order with its positions.
	GetOrderByID(ctx context.Context, id uuid.UUID) (*CustomerOrder, error)

	// ListOrdersByCustomer returns a customer's orders, newest first, without positions.
	ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]*CustomerOrder, error)

	// MarkPaid sets is_paid on an order.
	MarkPaid(ctx context.Context, id uuid.UUID) error
}
