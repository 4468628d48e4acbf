package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Category groups catalog products.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is an entry in the shared catalog that vendors list.
type Product struct {
	ID          uuid.UUID `json:"id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	// CategoryIDs are further categories the product is filed under.
	CategoryIDs []uuid.UUID `json:"category_ids,omitempty"`
}

// CreateProductRequest holds the data for creating a catalog product.
type CreateProductRequest struct {
	CategoryID  uuid.UUID   `json:"category_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	CategoryIDs []uuid.UUID `json:"category_ids"`
}
