package address_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/marketplace-backend/internal/modules/address"
	"github.com/georgemunganga/marketplace-backend/internal/modules/auth"
	"github.com/georgemunganga/marketplace-backend/internal/modules/cart"
	"github.com/georgemunganga/marketplace-backend/internal/modules/order"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
	"github.com/georgemunganga/marketplace-backend/internal/testutil"
)

var office = address.Content{Street: "4 Church Road", City: "Ndola", PostalCode: "20100", Country: "ZM"}

func customerOwner(id uuid.UUID) address.Owner {
	return address.Owner{Kind: address.OwnerCustomer, ID: id}
}

func TestResolveOrCreateDeduplicates(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ada, adaP := env.Customer(t, "ada")
	bob, bobP := env.Customer(t, "bob")

	first, err := env.Addresses.ResolveOrCreate(ctx, adaP, customerOwner(ada.ID), address.Input{Content: office})
	require.NoError(t, err)

	padded := office
	padded.Street = "  " + office.Street + " "
	second, err := env.Addresses.ResolveOrCreate(ctx, bobP, customerOwner(bob.ID), address.Input{Content: padded})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	again, err := env.Addresses.ResolveOrCreate(ctx, adaP, customerOwner(ada.ID), address.Input{Content: office})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	list, err := env.Addresses.ListByOwner(ctx, adaP, customerOwner(ada.ID))
	require.NoError(t, err)
	assert.Len(t, list, 2, "home address plus office, no duplicates")
}

func TestResolveOrCreateExplicitID(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ada, adaP := env.Customer(t, "ada")

	id := uuid.New()
	a, err := env.Addresses.ResolveOrCreate(ctx, adaP, customerOwner(ada.ID), address.Input{ID: id, Content: office})
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)

	other := office
	other.Street = "5 Church Road"
	_, err = env.Addresses.ResolveOrCreate(ctx, adaP, customerOwner(ada.ID), address.Input{ID: id, Content: other})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	same, err := env.Addresses.ResolveOrCreate(ctx, adaP, customerOwner(ada.ID), address.Input{ID: id, Content: office})
	require.NoError(t, err)
	assert.Equal(t, id, same.ID)
}

func TestResolveOrCreateUnknownOwner(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.Admin(t)

	_, err := env.Addresses.ResolveOrCreate(context.Background(), admin, customerOwner(uuid.New()), address.Input{Content: office})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestResolveOrCreateRequiresSession(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ada, _ := env.Customer(t, "ada")
	_, bobP := env.Customer(t, "bob")

	_, err := env.Addresses.ResolveOrCreate(ctx, bobP, customerOwner(ada.ID), address.Input{Content: office})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = env.Addresses.ResolveOrCreate(ctx, auth.Principal{}, customerOwner(ada.ID), address.Input{Content: office})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestConcurrentResolveCreatesOneAddress(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	admin := env.Admin(t)

	const callers = 8
	owners := make([]address.Owner, callers)
	for i := range owners {
		s := env.Supplier(t, admin, "supplier-"+uuid.NewString()[:8])
		owners[i] = address.Owner{Kind: address.OwnerSupplier, ID: s.ID}
	}

	ids := make([]uuid.UUID, callers)
	var g errgroup.Group
	for i := range owners {
		i := i
		g.Go(func() error {
			a, err := env.Addresses.ResolveOrCreate(ctx, admin, owners[i], address.Input{Content: office})
			if err != nil {
				return err
			}
			ids[i] = a.ID
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestReleaseCollectsUnreferencedAddress(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ada, adaP := env.Customer(t, "ada")
	bob, bobP := env.Customer(t, "bob")

	a, err := env.Addresses.ResolveOrCreate(ctx, adaP, customerOwner(ada.ID), address.Input{Content: office})
	require.NoError(t, err)
	_, err = env.Addresses.ResolveOrCreate(ctx, bobP, customerOwner(bob.ID), address.Input{Content: office})
	require.NoError(t, err)

	require.NoError(t, env.Addresses.Release(ctx, adaP, customerOwner(ada.ID), a.ID))
	_, err = env.Store.Addresses().GetByID(ctx, a.ID)
	require.NoError(t, err, "bob still references the address")

	err = env.Addresses.Release(ctx, adaP, customerOwner(ada.ID), a.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.NoError(t, env.Addresses.Release(ctx, bobP, customerOwner(bob.ID), a.ID))
	_, err = env.Store.Addresses().GetByID(ctx, a.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestReleaseKeepsAddressReferencedByOrder(t *testing.T) {
	m := testutil.NewMarketplace(t, "9.99", 10)
	ctx := context.Background()

	_, err := m.Carts.AddItem(ctx, m.CustomerP, m.Customer.CartID, cart.ItemRequest{VendorProductID: m.Listing.ID, Amount: 1})
	require.NoError(t, err)
	_, err = m.Orders.PlaceOrder(ctx, m.CustomerP, order.PlaceOrderRequest{
		CartID:            m.Customer.CartID,
		BillingAddressID:  m.HomeAddress.ID,
		SupplierCompanyID: m.Supplier.ID,
	})
	require.NoError(t, err)

	require.NoError(t, m.Addresses.Release(ctx, m.CustomerP, customerOwner(m.Customer.ID), m.HomeAddress.ID))

	kept, err := m.Store.Addresses().GetByID(ctx, m.HomeAddress.ID)
	require.NoError(t, err)
	assert.Equal(t, testutil.HomeAddress, kept.Content)

	refs, err := m.Store.Addresses().CountReferences(ctx, m.HomeAddress.ID)
	require.NoError(t, err)
	assert.Equal(t, address.References{BillingOrders: 1, DeliveryPositions: 1}, refs)
}

func TestReplace(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ada, adaP := env.Customer(t, "ada")
	home := ada.Addresses[0]

	moved, err := env.Addresses.Replace(ctx, adaP, customerOwner(ada.ID), home.ID, address.Input{Content: office})
	require.NoError(t, err)
	assert.NotEqual(t, home.ID, moved.ID)

	_, err = env.Store.Addresses().GetByID(ctx, home.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err), "old address had no other references")

	list, err := env.Addresses.ListByOwner(ctx, adaP, customerOwner(ada.ID))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, moved.ID, list[0].ID)
}

func TestReleaseRacingResolveKeepsReferencedRows(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ada, adaP := env.Customer(t, "ada")
	bob, bobP := env.Customer(t, "bob")

	// The office row must exist exactly when something references it.
	exists := func(id uuid.UUID) bool {
		_, err := env.Store.Addresses().GetByID(ctx, id)
		if err == nil {
			return true
		}
		require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		return false
	}
	referenced := func(id uuid.UUID) bool {
		refs, err := env.Store.Addresses().CountReferences(ctx, id)
		require.NoError(t, err)
		return refs.Total() > 0
	}

	for round := 0; round < 50; round++ {
		held, err := env.Addresses.ResolveOrCreate(ctx, adaP, customerOwner(ada.ID), address.Input{Content: office})
		require.NoError(t, err)

		var resolved *address.Address
		var g errgroup.Group
		g.Go(func() error {
			return env.Addresses.Release(ctx, adaP, customerOwner(ada.ID), held.ID)
		})
		g.Go(func() error {
			a, err := env.Addresses.ResolveOrCreate(ctx, bobP, customerOwner(bob.ID), address.Input{Content: office})
			resolved = a
			return err
		})
		require.NoError(t, g.Wait(), "round %d", round)

		assert.True(t, exists(resolved.ID), "round %d: bob's address was collected", round)
		assert.True(t, referenced(resolved.ID), "round %d", round)
		if held.ID != resolved.ID {
			assert.Equal(t, exists(held.ID), referenced(held.ID), "round %d", round)
		}

		require.NoError(t, env.Addresses.Release(ctx, bobP, customerOwner(bob.ID), resolved.ID))
		assert.False(t, exists(resolved.ID), "round %d: unreferenced row survived", round)
	}
}
