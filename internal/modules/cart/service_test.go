package cart_test

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/marketplace-backend/internal/modules/cart"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
	"github.com/georgemunganga/marketplace-backend/internal/testutil"
)

func TestAddItemBoundedByInventory(t *testing.T) {
	m := testutil.NewMarketplace(t, "2.50", 10)
	ctx := context.Background()
	cartID := m.Customer.CartID
	item := func(n int) cart.ItemRequest { return cart.ItemRequest{VendorProductID: m.Listing.ID, Amount: n} }

	line, err := m.Carts.AddItem(ctx, m.CustomerP, cartID, item(4))
	require.NoError(t, err)
	assert.Equal(t, 4, line.Amount)

	line, err = m.Carts.AddItem(ctx, m.CustomerP, cartID, item(4))
	require.NoError(t, err)
	assert.Equal(t, 8, line.Amount)

	_, err = m.Carts.AddItem(ctx, m.CustomerP, cartID, item(5))
	assert.Equal(t, apperr.KindInsufficientInventory, apperr.KindOf(err))

	c, err := m.Carts.GetCart(ctx, m.CustomerP, cartID)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 8, c.Lines[0].Amount)

	vp, err := m.Inventory.GetListing(ctx, m.Listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, vp.InventoryLevel, "carts never touch stock")
}

func TestAddItemRejectsNonPositiveAmount(t *testing.T) {
	m := testutil.NewMarketplace(t, "2.50", 10)
	for _, n := range []int{0, -3} {
		_, err := m.Carts.AddItem(context.Background(), m.CustomerP, m.Customer.CartID,
			cart.ItemRequest{VendorProductID: m.Listing.ID, Amount: n})
		assert.Equal(t, apperr.KindInvalidAmount, apperr.KindOf(err))
	}
}

func TestAddItemUnknownListing(t *testing.T) {
	m := testutil.NewMarketplace(t, "2.50", 10)
	_, err := m.Carts.AddItem(context.Background(), m.CustomerP, m.Customer.CartID,
		cart.ItemRequest{VendorProductID: uuid.New(), Amount: 1})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRemoveItem(t *testing.T) {
	m := testutil.NewMarketplace(t, "2.50", 10)
	ctx := context.Background()
	cartID := m.Customer.CartID
	item := func(n int) cart.ItemRequest { return cart.ItemRequest{VendorProductID: m.Listing.ID, Amount: n} }

	_, err := m.Carts.AddItem(ctx, m.CustomerP, cartID, item(5))
	require.NoError(t, err)

	_, err = m.Carts.RemoveItem(ctx, m.CustomerP, cartID, item(6))
	assert.Equal(t, apperr.KindInvalidAmount, apperr.KindOf(err))
	l, err := m.Store.Carts().GetLine(ctx, cartID, m.Listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, l.Amount, "a rejected removal leaves the line unchanged")

	line, err := m.Carts.RemoveItem(ctx, m.CustomerP, cartID, item(2))
	require.NoError(t, err)
	assert.Equal(t, 3, line.Amount)

	line, err = m.Carts.RemoveItem(ctx, m.CustomerP, cartID, item(3))
	require.NoError(t, err)
	assert.Equal(t, 0, line.Amount)

	_, err = m.Store.Carts().GetLine(ctx, cartID, m.Listing.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = m.Carts.RemoveItem(ctx, m.CustomerP, cartID, item(1))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCartBelongsToCustomer(t *testing.T) {
	m := testutil.NewMarketplace(t, "2.50", 10)
	ctx := context.Background()
	_, eveP := m.Env.Customer(t, "eve")

	_, err := m.Carts.AddItem(ctx, eveP, m.Customer.CartID, cart.ItemRequest{VendorProductID: m.Listing.ID, Amount: 1})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = m.Carts.GetCart(ctx, eveP, m.Customer.CartID)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestOpenCartReturnsTheSingleCart(t *testing.T) {
	m := testutil.NewMarketplace(t, "2.50", 10)
	c, err := m.Carts.OpenCart(context.Background(), m.CustomerP, m.Customer.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Customer.CartID, c.ID)
	assert.Empty(t, c.Lines)
}

func TestAddItemRejectsAmountsPastTheColumnRange(t *testing.T) {
	m := testutil.NewMarketplace(t, "2.50", 10)
	ctx := context.Background()
	cartID := m.Customer.CartID
	item := func(n int) cart.ItemRequest { return cart.ItemRequest{VendorProductID: m.Listing.ID, Amount: n} }

	_, err := m.Carts.AddItem(ctx, m.CustomerP, cartID, item(4))
	require.NoError(t, err)

	_, err = m.Carts.AddItem(ctx, m.CustomerP, cartID, item(math.MaxInt))
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidAmount, apperr.KindOf(err))

	_, err = m.Carts.AddItem(ctx, m.CustomerP, cartID, item(cart.MaxLineAmount))
	assert.Equal(t, apperr.KindInsufficientInventory, apperr.KindOf(err))

	_, err = m.Carts.RemoveItem(ctx, m.CustomerP, cartID, item(math.MaxInt))
	assert.Equal(t, apperr.KindInvalidAmount, apperr.KindOf(err))

	l, err := m.Store.Carts().GetLine(ctx, cartID, m.Listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, l.Amount)
}
