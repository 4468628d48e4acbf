package cart

import (
	"time"

	"github.com/google/uuid"
)

// ShoppingCart is a customer's single open cart.
type ShoppingCart struct {
	ID          uuid.UUID `json:"id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	DateCreated time.Time `json:"date_created"`
	Lines       []*Line   `json:"lines"`
}

// Line is a pending quantity of one vendor product. Amount is always > 0
// while the line exists.
type Line struct {
	CartID          uuid.UUID `json:"cart_id"`
	VendorProductID uuid.UUID `json:"vendor_product_id"`
	Amount          int       `json:"amount"`
}

// ItemRequest is the body of an add or remove call.
type ItemRequest struct {
	VendorProductID uuid.UUID `json:"vendor_product_id"`
	Amount          int       `json:"amount"`
}
