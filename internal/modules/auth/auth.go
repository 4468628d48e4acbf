package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
)

// Role is the kind of party a session was issued to.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

// Principal identifies the caller of an operation.
type Principal struct {
	Role Role      `json:"role"`
	ID   uuid.UUID `json:"id"`
}

// Authorizer is the session gate the services call once per operation.
type Authorizer interface {
	// Verify reports whether partyID currently holds a valid session for role.
	Verify(ctx context.Context, role Role, partyID uuid.UUID) (bool, error)
}

// Service defines the interface for authentication-related business logic.
type Service interface {
	Authorizer

	// Issue starts a new session for p, replacing any previous one, and
	// returns the signed token.
	Issue(ctx context.Context, p Principal) (string, error)

	// Parse validates a token's signature and expiry and returns its principal.
	Parse(token string) (Principal, error)

	// Revoke ends p's session.
	Revoke(ctx context.Context, p Principal) error

	// AdminLogin checks the configured admin credentials and issues a session.
	AdminLogin(ctx context.Context, adminID, password string) (string, error)
}

// Require fails with Unauthorized unless p holds a valid session.
func Require(ctx context.Context, authz Authorizer, p Principal) error {
	if p.ID == uuid.Nil || p.Role == "" {
		return apperr.Unauthorized("missing session")
	}
	ok, err := authz.Verify(ctx, p.Role, p.ID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Unauthorized("session for %s %s is not valid", p.Role, p.ID)
	}
	return nil
}

// RequireParty passes when p is the given party itself or an admin.
func RequireParty(ctx context.Context, authz Authorizer, p Principal, role Role, partyID uuid.UUID) error {
	if p.Role != RoleAdmin && (p.Role != role || p.ID != partyID) {
		return apperr.Unauthorized("%s %s may not act for %s %s", p.Role, p.ID, role, partyID)
	}
	return Require(ctx, authz, p)
}

// RequireRole passes when p holds one of roles.
func RequireRole(ctx context.Context, authz Authorizer, p Principal, roles ...Role) error {
	for _, r := range roles {
		if p.Role == r {
			return Require(ctx, authz, p)
		}
	}
	return apperr.Unauthorized("%s may not perform this operation", p.Role)
}

type principalKey struct{}
type tokenKey struct{}

// WithPrincipal stores the authenticated caller and the token it presented.
func WithPrincipal(ctx context.Context, p Principal, token string) context.Context {
	ctx = context.WithValue(ctx, principalKey{}, p)
	return context.WithValue(ctx, tokenKey{}, token)
}

// PrincipalFrom returns the caller stored by the middleware, or the zero value.
func PrincipalFrom(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}

func presentedToken(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}

// Options configures the session service.
type Options struct {
	Secret            []byte
	TTL               time.Duration
	AdminID           string
	AdminPasswordHash string
}
