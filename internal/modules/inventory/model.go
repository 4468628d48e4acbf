package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendorProduct is a vendor's listing of a catalog product with its own
// price and stock count.
type VendorProduct struct {
	ID             uuid.UUID       `json:"id"`
	VendorID       uuid.UUID       `json:"vendor_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	InventoryLevel int             `json:"inventory_level"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CreateListingRequest holds data for listing a catalog product.
type CreateListingRequest struct {
	VendorID       uuid.UUID       `json:"vendor_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	InventoryLevel int             `json:"inventory_level"`
}

// UpdatePriceRequest reprices a listing.
type UpdatePriceRequest struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
}
