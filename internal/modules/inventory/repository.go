package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository defines vendor product storage.
type Repository interface {
	// Create inserts a listing. An unknown vendor or product is NotFound and a
	// second listing of the same product by one vendor is a Conflict.
	Create(ctx context.Context, vp *VendorProduct) error

	GetByID(ctx context.Context, id uuid.UUID) (*VendorProduct, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*VendorProduct, error)

	// DecrementIfAvailable lowers the inventory level by amount in a single
	// conditional write. It reports false, changing nothing, when the level
	// is below amount.
	DecrementIfAvailable(ctx context.Context, id uuid.UUID, amount int) (bool, error)

	UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (*VendorProduct, error)
	// Delete removes a listing. A listing still held by a cart line or an
	// order position is a ReferentialIntegrityViolation.
	Delete(ctx context.Context, id uuid.UUID) error
}
