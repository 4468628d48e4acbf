// Package memory is an in-process implementation of every repository, used by
// the tests and by STORE_DRIVER=memory. It enforces the same unique and
// foreign key rules as the Postgres schema.
//
// A transaction holds the store-wide mutex from start to finish, so
// transactions are serializable. A failed transaction restores the tables
// to the snapshot taken when it began.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-backend/internal/modules/address"
	"github.com/georgemunganga/marketplace-backend/internal/modules/cart"
	"github.com/georgemunganga/marketplace-backend/internal/modules/catalog"
	"github.com/georgemunganga/marketplace-backend/internal/modules/customer"
	"github.com/georgemunganga/marketplace-backend/internal/modules/inventory"
	"github.com/georgemunganga/marketplace-backend/internal/modules/order"
	"github.com/georgemunganga/marketplace-backend/internal/modules/supplier"
	"github.com/georgemunganga/marketplace-backend/internal/modules/vendor"
)

type affiliationKey struct {
	kind    address.OwnerKind
	ownerID uuid.UUID
	address uuid.UUID
}

type lineKey struct {
	cartID          uuid.UUID
	vendorProductID uuid.UUID
}

type productCategoryKey struct {
	productID  uuid.UUID
	categoryID uuid.UUID
}

type tables struct {
	addresses    map[uuid.UUID]address.Address
	affiliations map[affiliationKey]time.Time
	customers    map[uuid.UUID]customer.Customer
	vendors      map[uuid.UUID]vendor.Vendor
	suppliers    map[uuid.UUID]supplier.Supplier
	categories   map[uuid.UUID]catalog.Category
	products     map[uuid.UUID]catalog.Product
	productCats  map[productCategoryKey]struct{}
	listings     map[uuid.UUID]inventory.VendorProduct
	carts        map[uuid.UUID]cart.ShoppingCart
	lines        map[lineKey]cart.Line
	orders       map[uuid.UUID]order.CustomerOrder
	positions    map[uuid.UUID]order.Position
}

func newTables() *tables {
	return &tables{
		addresses:    map[uuid.UUID]address.Address{},
		affiliations: map[affiliationKey]time.Time{},
		customers:    map[uuid.UUID]customer.Customer{},
		vendors:      map[uuid.UUID]vendor.Vendor{},
		suppliers:    map[uuid.UUID]supplier.Supplier{},
		categories:   map[uuid.UUID]catalog.Category{},
		products:     map[uuid.UUID]catalog.Product{},
		productCats:  map[productCategoryKey]struct{}{},
		listings:     map[uuid.UUID]inventory.VendorProduct{},
		carts:        map[uuid.UUID]cart.ShoppingCart{},
		lines:        map[lineKey]cart.Line{},
		orders:       map[uuid.UUID]order.CustomerOrder{},
		positions:    map[uuid.UUID]order.Position{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (t *tables) clone() *tables {
	return &tables{
		addresses:    cloneMap(t.addresses),
		affiliations: cloneMap(t.affiliations),
		customers:    cloneMap(t.customers),
		vendors:      cloneMap(t.vendors),
		suppliers:    cloneMap(t.suppliers),
		categories:   cloneMap(t.categories),
		products:     cloneMap(t.products),
		productCats:  cloneMap(t.productCats),
		listings:     cloneMap(t.listings),
		carts:        cloneMap(t.carts),
		lines:        cloneMap(t.lines),
		orders:       cloneMap(t.orders),
		positions:    cloneMap(t.positions),
	}
}

// Store holds every table behind one mutex.
type Store struct {
	mu   sync.Mutex
	data *tables
	now  func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{data: newTables(), now: func() time.Time { return time.Now().UTC() }}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// WithinTx implements store.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// enter takes the store lock for a single statement unless ctx already
// carries a transaction of this store.
func (s *Store) enter(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Addresses() address.Repository  { return addressRepo{s} }
func (s *Store) Customers() customer.Repository { return customerRepo{s} }
func (s *Store) Vendors() vendor.Repository     { return vendorRepo{s} }
func (s *Store) Suppliers() supplier.Repository { return supplierRepo{s} }
func (s *Store) Catalog() catalog.Repository    { return catalogRepo{s} }
func (s *Store) Listings() inventory.Repository { return listingRepo{s} }
func (s *Store) Carts() cart.Repository         { return cartRepo{s} }
func (s *Store) Orders() order.Repository       { return orderRepo{s} }
