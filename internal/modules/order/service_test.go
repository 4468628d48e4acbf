package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/marketplace-backend/internal/modules/auth"
	"github.com/georgemunganga/marketplace-backend/internal/modules/cart"
	"github.com/georgemunganga/marketplace-backend/internal/modules/customer"
	"github.com/georgemunganga/marketplace-backend/internal/modules/inventory"
	"github.com/georgemunganga/marketplace-backend/internal/modules/order"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
	"github.com/georgemunganga/marketplace-backend/internal/testutil"
)

func addItem(t *testing.T, m *testutil.Marketplace, p auth.Principal, cartID, vpID uuid.UUID, n int) {
	t.Helper()
	_, err := m.Carts.AddItem(context.Background(), p, cartID, cart.ItemRequest{VendorProductID: vpID, Amount: n})
	require.NoError(t, err)
}

func placeRequest(m *testutil.Marketplace) order.PlaceOrderRequest {
	return order.PlaceOrderRequest{
		CartID:            m.Customer.CartID,
		BillingAddressID:  m.HomeAddress.ID,
		SupplierCompanyID: m.Supplier.ID,
	}
}

func TestPlaceOrderScenario(t *testing.T) {
	m := testutil.NewMarketplace(t, "2.50", 10)
	ctx := context.Background()

	addItem(t, m, m.CustomerP, m.Customer.CartID, m.Listing.ID, 4)
	addItem(t, m, m.CustomerP, m.Customer.CartID, m.Listing.ID, 4)
	_, err := m.Carts.AddItem(ctx, m.CustomerP, m.Customer.CartID, cart.ItemRequest{VendorProductID: m.Listing.ID, Amount: 5})
	require.Equal(t, apperr.KindInsufficientInventory, apperr.KindOf(err))

	o, err := m.Orders.PlaceOrder(ctx, m.CustomerP, placeRequest(m))
	require.NoError(t, err)
	require.Len(t, o.Positions, 1)
	assert.Equal(t, 8, o.Positions[0].Amount)
	assert.True(t, decimal.RequireFromString("20").Equal(o.Total))
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{8}$`, o.OrderNumber)
	assert.False(t, o.IsPaid)

	vp, err := m.Inventory.GetListing(ctx, m.Listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, vp.InventoryLevel)

	c, err := m.Carts.GetCart(ctx, m.CustomerP, m.Customer.CartID)
	require.NoError(t, err)
	assert.Empty(t, c.Lines)

	stored, err := m.Orders.GetOrder(ctx, m.CustomerP, o.ID)
	require.NoError(t, err)
	require.Len(t, stored.Positions, 1)
	assert.Equal(t, o.OrderNumber, stored.OrderNumber)
}

func TestPlaceOrderOnePositionPerLine(t *testing.T) {
	m := testutil.NewMarketplace(t, "2.50", 10)
	ctx := context.Background()
	second := m.Env.Listing(t, m.Admin, m.VendorP, "0.75", 5)

	addItem(t, m, m.CustomerP, m.Customer.CartID, m.Listing.ID, 3)
	addItem(t, m, m.CustomerP, m.Customer.CartID, second.ID, 5)

	o, err := m.Orders.PlaceOrder(ctx, m.CustomerP, placeRequest(m))
	require.NoError(t, err)
	require.Len(t, o.Positions, 2)

	amounts := map[uuid.UUID]int{}
	for _, pos := range o.Positions {
		amounts[pos.VendorProductID] = pos.Amount
		assert.Equal(t, o.OrderDate.Add(14*24*time.Hour), pos.DeliveryDate)
		assert.Equal(t, m.HomeAddress.ID, pos.DeliveryAddressID)
		assert.Equal(t, m.Supplier.ID, pos.SupplierCompanyID)
	}
	assert.Equal(t, map[uuid.UUID]int{m.Listing.ID: 3, second.ID: 5}, amounts)
	assert.True(t, decimal.RequireFromString("11.25").Equal(o.Total))

	vp, err := m.Inventory.GetListing(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, vp.InventoryLevel)
}

func TestPlaceOrderValidation(t *testing.T) {
	m := testutil.NewMarketplace(t, "2.50", 10)
	ctx := context.Background()
	eve, eveP := m.Env.Customer(t, "eve")

	_, err := m.Orders.PlaceOrder(ctx, m.CustomerP, placeRequest(m))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err), "empty cart")

	addItem(t, m, m.CustomerP, m.Customer.CartID, m.Listing.ID, 1)

	tests := []struct {
		name string
		p    auth.Principal
		edit func(*order.PlaceOrderRequest)
		want apperr.Kind
	}{
		{"unknown billing address", m.CustomerP, func(r *order.PlaceOrderRequest) { r.BillingAddressID = uuid.New() }, apperr.KindNotFound},
		{"unknown supplier", m.CustomerP, func(r *order.PlaceOrderRequest) { r.SupplierCompanyID = uuid.New() }, apperr.KindNotFound},
		{"unknown cart", m.CustomerP, func(r *order.PlaceOrderRequest) { r.CartID = uuid.New() }, apperr.KindNotFound},
		{"foreign cart", eveP, func(r *order.PlaceOrderRequest) {}, apperr.KindUnauthorized},
		{"vendor caller", m.VendorP, func(r *order.PlaceOrderRequest) {}, apperr.KindUnauthorized},
		{"no session", auth.Principal{Role: auth.RoleCustomer, ID: uuid.New()}, func(r *order.PlaceOrderRequest) {}, apperr.KindUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := placeRequest(m)
			tt.edit(&req)
			_, err := m.Orders.PlaceOrder(ctx, tt.p, req)
			assert.Equal(t, tt.want, apperr.KindOf(err))
		})
	}

	orders, err := m.Orders.ListCustomerOrders(ctx, m.CustomerP, m.Customer.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
	orders, err = m.Orders.ListCustomerOrders(ctx, eveP, eve.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestConcurrentPlacementsNeverOversell(t *testing.T) {
	m := testutil.NewMarketplace(t, "2.50", 10)
	ctx := context.Background()
	bob, bobP := m.Env.Customer(t, "bob")

	addItem(t, m, m.CustomerP, m.Customer.CartID, m.Listing.ID, 6)
	addItem(t, m, bobP, bob.CartID, m.Listing.ID, 6)

	requests := []struct {
		p   auth.Principal
		req order.PlaceOrderRequest
	}{
		{m.CustomerP, placeRequest(m)},
		{bobP, order.PlaceOrderRequest{CartID: bob.CartID, BillingAddressID: bob.Addresses[0].ID, SupplierCompanyID: m.Supplier.ID}},
	}
	errs := make([]error, len(requests))
	var g errgroup.Group
	for i, r := range requests {
		i, r := i, r
		g.Go(func() error {
			_, errs[i] = m.Orders.PlaceOrder(ctx, r.p, r.req)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var ok, short int
	for _, err := range errs {
		switch apperr.KindOf(err) {
		case "":
			ok++
		case apperr.KindInsufficientInventory:
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)

	vp, err := m.Inventory.GetListing(ctx, m.Listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, vp.InventoryLevel)
}

// flakyLedger refuses every decrement, as if a concurrent placement had
// taken the stock between validation and reservation.
type flakyLedger struct{ inventory.Ledger }

func (flakyLedger) Decrement(_ context.Context, id uuid.UUID, amount int) error {
	return apperr.InsufficientInventory("vendor product %s: lost the race for %d", id, amount)
}

func TestPlaceOrderRollsBackOnDecrementFailure(t *testing.T) {
	m := testutil.NewMarketplace(t, "2.50", 10, testutil.Options{
		Ledger: func(l inventory.Ledger) inventory.Ledger { return flakyLedger{l} },
	})
	ctx := context.Background()
	addItem(t, m, m.CustomerP, m.Customer.CartID, m.Listing.ID, 3)

	_, err := m.Orders.PlaceOrder(ctx, m.CustomerP, placeRequest(m))
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientInventory, apperr.KindOf(err))

	orders, err := m.Orders.ListCustomerOrders(ctx, m.CustomerP, m.Customer.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	line, err := m.Store.Carts().GetLine(ctx, m.Customer.CartID, m.Listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, line.Amount)

	refs, err := m.Store.Addresses().CountReferences(ctx, m.HomeAddress.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, refs.BillingOrders+refs.DeliveryPositions)
}

func TestGetOrderAndMarkPaid(t *testing.T) {
	m := testutil.NewMarketplace(t, "2.50", 10)
	ctx := context.Background()
	_, eveP := m.Env.Customer(t, "eve")
	addItem(t, m, m.CustomerP, m.Customer.CartID, m.Listing.ID, 1)
	o, err := m.Orders.PlaceOrder(ctx, m.CustomerP, placeRequest(m))
	require.NoError(t, err)

	_, err = m.Orders.GetOrder(ctx, eveP, o.ID)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = m.Orders.MarkPaid(ctx, m.CustomerP, o.ID)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	paid, err := m.Orders.MarkPaid(ctx, m.Admin, o.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)

	_, err = m.Orders.MarkPaid(ctx, m.Admin, uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestPlacedOrderSurvivesCustomerLookup(t *testing.T) {
	m := testutil.NewMarketplace(t, "2.50", 10)
	ctx := context.Background()
	addItem(t, m, m.CustomerP, m.Customer.CartID, m.Listing.ID, 2)
	_, err := m.Orders.PlaceOrder(ctx, m.CustomerP, placeRequest(m))
	require.NoError(t, err)

	var c *customer.Customer
	c, err = m.Customers.Get(ctx, m.CustomerP, m.Customer.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Customer.CartID, c.CartID, "the cart is reused after placement")
}
