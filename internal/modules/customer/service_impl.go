package customer

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/marketplace-backend/internal/modules/address"
	"github.com/georgemunganga/marketplace-backend/internal/modules/auth"
	"github.com/georgemunganga/marketplace-backend/internal/modules/cart"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/logging"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/store"
)

// Sessions issues, verifies and revokes customer sessions.
type Sessions interface {
	auth.Authorizer
	Issue(ctx context.Context, p auth.Principal) (string, error)
	Revoke(ctx context.Context, p auth.Principal) error
}

// Carts opens the cart of a new customer and looks it up afterwards.
type Carts interface {
	Ensure(ctx context.Context, customerID uuid.UUID) (*cart.ShoppingCart, error)
	Find(ctx context.Context, customerID uuid.UUID) (*cart.ShoppingCart, error)
}

type service struct {
	repo      Repository
	addresses address.Registry
	carts     Carts
	sessions  Sessions
	tx        store.Transactor
}

// NewService creates a new customer service.
func NewService(repo Repository, addresses address.Registry, carts Carts, sessions Sessions, tx store.Transactor) Service {
	return &service{repo: repo, addresses: addresses, carts: carts, sessions: sessions, tx: tx}
}

func owner(id uuid.UUID) address.Owner {
	return address.Owner{Kind: address.OwnerCustomer, ID: id}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*Customer, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, apperr.InvalidInput("username and password are required")
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	c := &Customer{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hashedPassword),
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateCustomer(ctx, c); err != nil {
			return err
		}
		for _, in := range req.Addresses {
			a, err := s.addresses.Attach(ctx, owner(c.ID), in)
			if err != nil {
				return err
			}
			c.Addresses = append(c.Addresses, a)
		}
		sc, err := s.carts.Ensure(ctx, c.ID)
		if err != nil {
			return err
		}
		c.CartID = sc.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("customer registered",
		zap.Stringer("customer_id", c.ID),
		zap.Int("addresses", len(c.Addresses)),
	)
	return c, nil
}

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	c, err := s.repo.GetCustomerByUsername(ctx, strings.TrimSpace(username))
	if apperr.KindOf(err) == apperr.KindNotFound {
		return "", apperr.Unauthorized("invalid username or password")
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return "", apperr.Unauthorized("invalid username or password")
	}
	return s.sessions.Issue(ctx, auth.Principal{Role: auth.RoleCustomer, ID: c.ID})
}

func (s *service) Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*Customer, error) {
	if err := auth.RequireParty(ctx, s.sessions, p, auth.RoleCustomer, id); err != nil {
		return nil, err
	}
	c, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Addresses, err = s.addresses.Affiliated(ctx, owner(id)); err != nil {
		return nil, err
	}
	sc, err := s.carts.Find(ctx, id)
	switch {
	case err == nil:
		c.CartID = sc.ID
	case apperr.KindOf(err) != apperr.KindNotFound:
		return nil, err
	}
	return c, nil
}

func (s *service) Update(ctx context.Context, p auth.Principal, id uuid.UUID, req UpdateRequest) (*Customer, error) {
	if err := auth.RequireParty(ctx, s.sessions, p, auth.RoleCustomer, id); err != nil {
		return nil, err
	}
	var c *Customer
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if c, err = s.repo.GetCustomerByID(ctx, id); err != nil {
			return err
		}
		c.Email, c.FirstName, c.LastName = req.Email, req.FirstName, req.LastName
		if req.Password != "" {
			hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			c.PasswordHash = string(hashed)
		}
		return s.repo.UpdateCustomer(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("customer updated", zap.Stringer("customer_id", id))
	return s.Get(ctx, p, id)
}

// Delete removes the account with its cart and address affiliations. A
// customer with orders is kept and the call fails with
// ReferentialIntegrityViolation.
func (s *service) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if err := auth.RequireParty(ctx, s.sessions, p, auth.RoleCustomer, id); err != nil {
		return err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteCustomer(ctx, id); err != nil {
			return err
		}
		return s.addresses.DetachAll(ctx, owner(id))
	})
	if err != nil {
		return err
	}
	if err := s.sessions.Revoke(ctx, auth.Principal{Role: auth.RoleCustomer, ID: id}); err != nil {
		logging.FromContext(ctx).Warn("revoke session of deleted customer", zap.Error(err))
	}
	logging.FromContext(ctx).Info("customer deleted", zap.Stringer("customer_id", id))
	return nil
}
