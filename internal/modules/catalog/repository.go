package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for catalog data storage.
type Repository interface {
	// CreateCategory fails with Conflict when the name is taken.
	CreateCategory(ctx context.Context, c *Category) error
	ListCategories(ctx context.Context) ([]*Category, error)
	// UpdateCategory renames a category; a taken name is a Conflict.
	UpdateCategory(ctx context.Context, c *Category) error
	// DeleteCategory fails with ReferentialIntegrityViolation while products
	// still belong to or reference the category.
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	// CreateProduct fails with NotFound when the category does not exist.
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	// ListProducts returns every product when categoryID is uuid.Nil.
	// Products referencing categoryID through product categories match too.
	ListProducts(ctx context.Context, categoryID uuid.UUID) ([]*Product, error)

	// AddProductCategory references categoryID from the product unless the
	// reference exists. An unknown product or category is NotFound.
	AddProductCategory(ctx context.Context, productID, categoryID uuid.UUID) error
	ProductCategories(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error)
}
