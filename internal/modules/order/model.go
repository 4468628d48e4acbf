package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryLeadTime is the fixed gap between the order date and each
// position's delivery date.
const DeliveryLeadTime = 14 * 24 * time.Hour

// CustomerOrder is the immutable record of a placed cart. Only IsPaid
// changes after creation.
type CustomerOrder struct {
	ID               uuid.UUID       `json:"id"`
	OrderNumber      string          `json:"order_number"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	BillingAddressID uuid.UUID       `json:"billing_address_id"`
	OrderDate        time.Time       `json:"order_date"`
	IsPaid           bool            `json:"is_paid"`
	Total            decimal.Decimal `json:"total"`
	Positions        []*Position     `json:"positions,omitempty"`
}

// Position is one committed cart line.
type Position struct {
	ID                uuid.UUID       `json:"id"`
	OrderID           uuid.UUID       `json:"order_id"`
	VendorProductID   uuid.UUID       `json:"vendor_product_id"`
	Amount            int             `json:"amount"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	SupplierCompanyID uuid.UUID       `json:"supplier_company_id"`
	DeliveryAddressID uuid.UUID       `json:"delivery_address_id"`
	DeliveryDate      time.Time       `json:"delivery_date"`
}

// LineTotal is UnitPrice * Amount.
func (p *Position) LineTotal() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Amount)))
}

// PlaceOrderRequest is the payload for placing a cart.
type PlaceOrderRequest struct {
	CartID            uuid.UUID `json:"cart_id"`
	BillingAddressID  uuid.UUID `json:"billing_address_id"`
	SupplierCompanyID uuid.UUID `json:"supplier_company_id"`
}
