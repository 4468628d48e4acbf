// Package testutil wires every service over the in-memory store and seeds a
// small marketplace for the module tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/marketplace-backend/internal/modules/address"
	"github.com/georgemunganga/marketplace-backend/internal/modules/auth"
	"github.com/georgemunganga/marketplace-backend/internal/modules/cart"
	"github.com/georgemunganga/marketplace-backend/internal/modules/catalog"
	"github.com/georgemunganga/marketplace-backend/internal/modules/customer"
	"github.com/georgemunganga/marketplace-backend/internal/modules/inventory"
	"github.com/georgemunganga/marketplace-backend/internal/modules/order"
	"github.com/georgemunganga/marketplace-backend/internal/modules/supplier"
	"github.com/georgemunganga/marketplace-backend/internal/modules/vendor"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/store/memory"
)

// Password is the password of every seeded account.
const Password = "correct horse"

// HomeAddress is the address the seeded customer registers with.
var HomeAddress = address.Content{Street: "12 Cairo Road", City: "Lusaka", PostalCode: "10101", Country: "ZM"}

// Env is a fully wired marketplace over one in-memory store.
type Env struct {
	Store     *memory.Store
	Auth      auth.Service
	Addresses address.Registry
	Customers customer.Service
	Vendors   vendor.Service
	Suppliers supplier.Service
	Catalog   catalog.Service
	Inventory inventory.Service
	Carts     cart.Service
	Orders    order.Service
}

// Options lets a test swap collaborators before the services are built.
type Options struct {
	// Ledger wraps the inventory ledger handed to the order service.
	Ledger func(inventory.Ledger) inventory.Ledger
}

// NewEnv wires an empty marketplace.
func NewEnv(t *testing.T, opts ...Options) *Env {
	t.Helper()
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	s := memory.New()
	authSvc := auth.NewService(auth.NewMemorySessionStore(), auth.Options{
		Secret: []byte("test-secret"),
		TTL:    time.Hour,
	})
	addresses := address.NewRegistry(s.Addresses(), s, authSvc, nil)
	inv := inventory.NewService(s.Listings(), authSvc, nil)
	carts := cart.NewService(s.Carts(), inv, s, authSvc)

	var ledger inventory.Ledger = inv
	if o.Ledger != nil {
		ledger = o.Ledger(inv)
	}

	return &Env{
		Store:     s,
		Auth:      authSvc,
		Addresses: addresses,
		Customers: customer.NewService(s.Customers(), addresses, carts, authSvc, s),
		Vendors:   vendor.NewService(s.Vendors(), addresses, authSvc, s),
		Suppliers: supplier.NewService(s.Suppliers(), addresses, s, authSvc),
		Catalog:   catalog.NewService(s.Catalog(), s, authSvc),
		Inventory: inv,
		Carts:     carts,
		Orders: order.NewService(order.Deps{
			Repo:      s.Orders(),
			Carts:     s.Carts(),
			Inventory: ledger,
			Addresses: addresses,
			Suppliers: s.Suppliers(),
			Tx:        s,
			Authz:     authSvc,
		}),
	}
}

// Admin issues an admin session and returns its principal.
func (e *Env) Admin(t *testing.T) auth.Principal {
	t.Helper()
	p := auth.Principal{Role: auth.RoleAdmin, ID: uuid.New()}
	_, err := e.Auth.Issue(context.Background(), p)
	require.NoError(t, err)
	return p
}

// Customer registers a customer with HomeAddress and logs them in.
func (e *Env) Customer(t *testing.T, username string) (*customer.Customer, auth.Principal) {
	t.Helper()
	ctx := context.Background()
	c, err := e.Customers.Register(ctx, customer.RegisterRequest{
		Username:  username,
		Password:  Password,
		Email:     username + "@example.com",
		FirstName: "Test",
		LastName:  "Customer",
		Addresses: []address.Input{{Content: HomeAddress}},
	})
	require.NoError(t, err)
	_, err = e.Customers.Login(ctx, username, Password)
	require.NoError(t, err)
	return c, auth.Principal{Role: auth.RoleCustomer, ID: c.ID}
}

// Vendor registers a vendor and logs them in.
func (e *Env) Vendor(t *testing.T, username string) (*vendor.Vendor, auth.Principal) {
	t.Helper()
	ctx := context.Background()
	v, err := e.Vendors.Register(ctx, vendor.RegisterRequest{
		Username:    username,
		Password:    Password,
		CompanyName: username + " Ltd",
		Email:       username + "@example.com",
	})
	require.NoError(t, err)
	_, err = e.Vendors.Login(ctx, username, Password)
	require.NoError(t, err)
	return v, auth.Principal{Role: auth.RoleVendor, ID: v.ID}
}

// Supplier creates a delivery company.
func (e *Env) Supplier(t *testing.T, admin auth.Principal, name string) *supplier.Supplier {
	t.Helper()
	s, err := e.Suppliers.Create(context.Background(), admin, supplier.CreateRequest{CompanyName: name})
	require.NoError(t, err)
	return s
}

// Listing creates a catalog product in a fresh category and lists it for v.
func (e *Env) Listing(t *testing.T, admin, v auth.Principal, price string, level int) *inventory.VendorProduct {
	t.Helper()
	ctx := context.Background()
	cat, err := e.Catalog.CreateCategory(ctx, admin, "category-"+uuid.NewString()[:8])
	require.NoError(t, err)
	prod, err := e.Catalog.CreateProduct(ctx, v, catalog.CreateProductRequest{CategoryID: cat.ID, Name: "product"})
	require.NoError(t, err)
	vp, err := e.Inventory.CreateListing(ctx, v, inventory.CreateListingRequest{
		VendorID:       v.ID,
		ProductID:      prod.ID,
		UnitPrice:      decimal.RequireFromString(price),
		InventoryLevel: level,
	})
	require.NoError(t, err)
	return vp
}

// Marketplace is a seeded scenario: one customer with a cart and home
// address, one vendor with a listing, one supplier and an admin.
type Marketplace struct {
	*Env
	Admin       auth.Principal
	Customer    *customer.Customer
	CustomerP   auth.Principal
	Vendor      *vendor.Vendor
	VendorP     auth.Principal
	Supplier    *supplier.Supplier
	Listing     *inventory.VendorProduct
	HomeAddress *address.Address
}

// NewMarketplace seeds a Marketplace whose listing holds level units at price.
func NewMarketplace(t *testing.T, price string, level int, opts ...Options) *Marketplace {
	t.Helper()
	env := NewEnv(t, opts...)
	m := &Marketplace{Env: env, Admin: env.Admin(t)}
	m.Customer, m.CustomerP = env.Customer(t, "ada")
	m.Vendor, m.VendorP = env.Vendor(t, "acme")
	m.Supplier = env.Supplier(t, m.Admin, "Swift Couriers")
	m.Listing = env.Listing(t, m.Admin, m.VendorP, price, level)
	require.Len(t, m.Customer.Addresses, 1)
	m.HomeAddress = m.Customer.Addresses[0]
	return m
}
