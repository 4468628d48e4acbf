package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/marketplace-backend/internal/modules/auth"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/logging"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/store"
)

// Service defines catalog business logic.
type Service interface {
	CreateCategory(ctx context.Context, p auth.Principal, name string) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
	UpdateCategory(ctx context.Context, p auth.Principal, id uuid.UUID, name string) (*Category, error)
	DeleteCategory(ctx context.Context, p auth.Principal, id uuid.UUID) error

	CreateProduct(ctx context.Context, p auth.Principal, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context, categoryID uuid.UUID) ([]*Product, error)
	// AddProductCategories files the product under each category, skipping
	// references that already exist.
	AddProductCategories(ctx context.Context, p auth.Principal, productID uuid.UUID, categoryIDs []uuid.UUID) (*Product, error)
}

type service struct {
	repo  Repository
	tx    store.Transactor
	authz auth.Authorizer
}

func NewService(repo Repository, tx store.Transactor, authz auth.Authorizer) Service {
	return &service{repo: repo, tx: tx, authz: authz}
}

func (s *service) CreateCategory(ctx context.Context, p auth.Principal, name string) (*Category, error) {
	if err := auth.RequireRole(ctx, s.authz, p, auth.RoleAdmin); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidInput("category name is required")
	}
	c := &Category{ID: uuid.New(), Name: name}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *service) UpdateCategory(ctx context.Context, p auth.Principal, id uuid.UUID, name string) (*Category, error) {
	if err := auth.RequireRole(ctx, s.authz, p, auth.RoleAdmin); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidInput("category name is required")
	}
	c := &Category{ID: id, Name: name}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("category renamed", zap.Stringer("category_id", id), zap.String("name", name))
	return c, nil
}

func (s *service) DeleteCategory(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if err := auth.RequireRole(ctx, s.authz, p, auth.RoleAdmin); err != nil {
		return err
	}
	return s.repo.DeleteCategory(ctx, id)
}

// CreateProduct is open to vendors and the admin.
func (s *service) CreateProduct(ctx context.Context, p auth.Principal, req CreateProductRequest) (*Product, error) {
	if err := auth.RequireRole(ctx, s.authz, p, auth.RoleVendor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.InvalidInput("product name is required")
	}
	product := &Product{
		ID:          uuid.New(),
		CategoryID:  req.CategoryID,
		Name:        name,
		Description: req.Description,
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateProduct(ctx, product); err != nil {
			return err
		}
		return s.addCategories(ctx, product, req.CategoryIDs)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.CategoryIDs, err = s.repo.ProductCategories(ctx, id); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) AddProductCategories(ctx context.Context, p auth.Principal, productID uuid.UUID, categoryIDs []uuid.UUID) (*Product, error) {
	if err := auth.RequireRole(ctx, s.authz, p, auth.RoleVendor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	var product *Product
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if product, err = s.repo.GetProduct(ctx, productID); err != nil {
			return err
		}
		return s.addCategories(ctx, product, categoryIDs)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// addCategories references each category from product and refreshes
// product.CategoryIDs. The primary category is never duplicated.
func (s *service) addCategories(ctx context.Context, product *Product, categoryIDs []uuid.UUID) error {
	for _, id := range categoryIDs {
		if id == product.CategoryID {
			continue
		}
		if err := s.repo.AddProductCategory(ctx, product.ID, id); err != nil {
			return err
		}
	}
	ids, err := s.repo.ProductCategories(ctx, product.ID)
	if err != nil {
		return err
	}
	product.CategoryIDs = ids
	return nil
}

func (s *service) ListProducts(ctx context.Context, categoryID uuid.UUID) ([]*Product, error) {
	return s.repo.ListProducts(ctx, categoryID)
}
