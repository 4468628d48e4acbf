package customer

import (
	"context"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-backend/internal/modules/auth"
)

// Service defines the interface for customer-related business logic.
type Service interface {
	// Register creates the account, attaches its addresses and opens its
	// cart in one transaction.
	Register(ctx context.Context, req RegisterRequest) (*Customer, error)
	// Login checks the password and returns a session token.
	Login(ctx context.Context, username, password string) (string, error)
	Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*Customer, error)
	// Update replaces the profile fields; a non-empty password is rehashed.
	Update(ctx context.Context, p auth.Principal, id uuid.UUID, req UpdateRequest) (*Customer, error)
	Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error
}
