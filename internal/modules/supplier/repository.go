package supplier

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines supplier storage.
type Repository interface {
	// Create fails with Conflict when the company name is taken.
	Create(ctx context.Context, s *Supplier) error
	GetByID(ctx context.Context, id uuid.UUID) (*Supplier, error)
	List(ctx context.Context) ([]*Supplier, error)
	// Update renames the supplier, failing with Conflict on a taken name.
	Update(ctx context.Context, s *Supplier) error
	// Delete fails with ReferentialIntegrityViolation while order positions
	// are assigned to the supplier.
	Delete(ctx context.Context, id uuid.UUID) error
}
