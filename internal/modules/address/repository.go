package address

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for addresses and their affiliations.
// Lookups return an apperr NotFound error when the row is absent.
type Repository interface {
	// GetByID reads an address without locking it.
	GetByID(ctx context.Context, id uuid.UUID) (*Address, error)

	// LockByID reads an address and locks its row for the current transaction.
	LockByID(ctx context.Context, id uuid.UUID) (*Address, error)

	// LockByContent finds the address with exactly this content and locks it.
	LockByContent(ctx context.Context, c Content) (*Address, error)

	// InsertIfAbsent inserts a, reporting false when an address with the same
	// content or ID already exists.
	InsertIfAbsent(ctx context.Context, a *Address) (bool, error)

	// Delete removes the address row.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddAffiliation links owner to the address; existing links are kept.
	AddAffiliation(ctx context.Context, owner Owner, addressID uuid.UUID) error

	// RemoveAffiliation unlinks owner, reporting whether a link existed.
	RemoveAffiliation(ctx context.Context, owner Owner, addressID uuid.UUID) (bool, error)

	// CountReferences counts affiliations and order references to the address.
	CountReferences(ctx context.Context, addressID uuid.UUID) (References, error)

	// ListByOwner returns the addresses affiliated with owner.
	ListByOwner(ctx context.Context, owner Owner) ([]*Address, error)

	// OwnerExists reports whether the party row behind owner exists.
	OwnerExists(ctx context.Context, owner Owner) (bool, error)
}
