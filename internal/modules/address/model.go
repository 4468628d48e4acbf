package address

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OwnerKind is the kind of party an address can be affiliated with.
type OwnerKind string

const (
	OwnerCustomer OwnerKind = "CUSTOMER"
	OwnerVendor   OwnerKind = "VENDOR"
	OwnerSupplier OwnerKind = "SUPPLIER"
)

// Valid reports whether k is one of the known owner kinds.
func (k OwnerKind) Valid() bool {
	switch k {
	case OwnerCustomer, OwnerVendor, OwnerSupplier:
		return true
	}
	return false
}

// Owner is a party holding an affiliation to an address.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

// Content is the tuple an address is deduplicated on.
type Content struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Canonical trims surrounding whitespace from every field.
func (c Content) Canonical() Content {
	return Content{
		Street:     strings.TrimSpace(c.Street),
		City:       strings.TrimSpace(c.City),
		PostalCode: strings.TrimSpace(c.PostalCode),
		Country:    strings.TrimSpace(c.Country),
	}
}

// Address is a shared, content-addressed postal address.
type Address struct {
	ID uuid.UUID `json:"id"`
	Content
	CreatedAt time.Time `json:"created_at"`
}

// Input is the caller-supplied data for resolving an address. ID is
// optional; when set it must not name an address with different content.
type Input struct {
	ID uuid.UUID `json:"address_id,omitempty"`
	Content
}

// References counts what still points at an address.
type References struct {
	Affiliations      int `json:"affiliations"`
	BillingOrders     int `json:"billing_orders"`
	DeliveryPositions int `json:"delivery_positions"`
}

// Total is the number of references of any kind.
func (r References) Total() int {
	return r.Affiliations + r.BillingOrders + r.DeliveryPositions
}
