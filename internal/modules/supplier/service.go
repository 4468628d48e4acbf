package supplier

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/marketplace-backend/internal/modules/address"
	"github.com/georgemunganga/marketplace-backend/internal/modules/auth"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/logging"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/store"
)

// Service defines supplier management. Mutations are admin-only.
type Service interface {
	Create(ctx context.Context, p auth.Principal, req CreateRequest) (*Supplier, error)
	Get(ctx context.Context, id uuid.UUID) (*Supplier, error)
	List(ctx context.Context) ([]*Supplier, error)
	Update(ctx context.Context, p auth.Principal, id uuid.UUID, req UpdateRequest) (*Supplier, error)
	Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error
}

type service struct {
	repo      Repository
	addresses address.Registry
	tx        store.Transactor
	authz     auth.Authorizer
}

func NewService(repo Repository, addresses address.Registry, tx store.Transactor, authz auth.Authorizer) Service {
	return &service{repo: repo, addresses: addresses, tx: tx, authz: authz}
}

func owner(id uuid.UUID) address.Owner {
	return address.Owner{Kind: address.OwnerSupplier, ID: id}
}

func (s *service) Create(ctx context.Context, p auth.Principal, req CreateRequest) (*Supplier, error) {
	if err := auth.RequireRole(ctx, s.authz, p, auth.RoleAdmin); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.CompanyName)
	if name == "" {
		return nil, apperr.InvalidInput("company_name is required")
	}

	sup := &Supplier{ID: uuid.New(), CompanyName: name}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, sup); err != nil {
			return err
		}
		for _, in := range req.Addresses {
			a, err := s.addresses.Attach(ctx, owner(sup.ID), in)
			if err != nil {
				return err
			}
			sup.Addresses = append(sup.Addresses, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("supplier created", zap.Stringer("supplier_id", sup.ID))
	return sup, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	sup, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sup.Addresses, err = s.addresses.Affiliated(ctx, owner(id)); err != nil {
		return nil, err
	}
	return sup, nil
}

func (s *service) List(ctx context.Context) ([]*Supplier, error) {
	return s.repo.List(ctx)
}

func (s *service) Update(ctx context.Context, p auth.Principal, id uuid.UUID, req UpdateRequest) (*Supplier, error) {
	if err := auth.RequireRole(ctx, s.authz, p, auth.RoleAdmin); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.CompanyName)
	if name == "" {
		return nil, apperr.InvalidInput("company_name is required")
	}
	if err := s.repo.Update(ctx, &Supplier{ID: id, CompanyName: name}); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("supplier renamed", zap.Stringer("supplier_id", id), zap.String("company_name", name))
	return s.Get(ctx, id)
}

// Delete drops the supplier's address affiliations and then the supplier.
// Both are undone if order positions still reference the supplier.
func (s *service) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if err := auth.RequireRole(ctx, s.authz, p, auth.RoleAdmin); err != nil {
		return err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		if err := s.addresses.DetachAll(ctx, owner(id)); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("supplier deleted", zap.Stringer("supplier_id", id))
	return nil
}
