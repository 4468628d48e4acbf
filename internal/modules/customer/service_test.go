package customer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/marketplace-backend/internal/modules/auth"
	"github.com/georgemunganga/marketplace-backend/internal/modules/cart"
	"github.com/georgemunganga/marketplace-backend/internal/modules/customer"
	"github.com/georgemunganga/marketplace-backend/internal/modules/order"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
	"github.com/georgemunganga/marketplace-backend/internal/testutil"
)

func TestRegisterAndLogin(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	c, p := env.Customer(t, "ada")

	assert.NotEqual(t, uuid.Nil, c.CartID)
	require.Len(t, c.Addresses, 1)
	assert.Equal(t, testutil.HomeAddress, c.Addresses[0].Content)

	token, err := env.Customers.Login(ctx, "ada", testutil.Password)
	require.NoError(t, err)
	parsed, err := env.Auth.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, p, parsed)

	_, err = env.Customers.Login(ctx, "ada", "wrong")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	_, err = env.Customers.Login(ctx, "nobody", testutil.Password)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Customer(t, "ada")

	_, err := env.Customers.Register(context.Background(), customer.RegisterRequest{Username: "ada", Password: "x"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = env.Customers.Register(context.Background(), customer.RegisterRequest{Username: " ", Password: "x"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestGet(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ada, adaP := env.Customer(t, "ada")
	_, bobP := env.Customer(t, "bob")

	got, err := env.Customers.Get(ctx, adaP, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, ada.CartID, got.CartID)
	assert.NotEmpty(t, got.PasswordHash)

	_, err = env.Customers.Get(ctx, bobP, ada.ID)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	require.NoError(t, env.Auth.Revoke(ctx, adaP))
	_, err = env.Customers.Get(ctx, adaP, ada.ID)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = env.Customers.Get(ctx, env.Admin(t), ada.ID)
	require.NoError(t, err)
}

// lookupCarts counts cart creations and fails lookups with findErr.
type lookupCarts struct {
	cart.Service
	ensured int
	findErr error
}

func (c *lookupCarts) Ensure(ctx context.Context, customerID uuid.UUID) (*cart.ShoppingCart, error) {
	c.ensured++
	return c.Service.Ensure(ctx, customerID)
}

func (c *lookupCarts) Find(ctx context.Context, customerID uuid.UUID) (*cart.ShoppingCart, error) {
	if c.findErr != nil {
		return nil, c.findErr
	}
	return c.Service.Find(ctx, customerID)
}

func TestGetReadsCartWithoutCreatingIt(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	carts := &lookupCarts{Service: env.Carts}
	svc := customer.NewService(env.Store.Customers(), env.Addresses, carts, env.Auth, env.Store)

	c, err := svc.Register(ctx, customer.RegisterRequest{Username: "ada", Password: testutil.Password})
	require.NoError(t, err)
	require.Equal(t, 1, carts.ensured)
	_, err = svc.Login(ctx, "ada", testutil.Password)
	require.NoError(t, err)
	p := auth.Principal{Role: auth.RoleCustomer, ID: c.ID}

	got, err := svc.Get(ctx, p, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.CartID, got.CartID)
	assert.Equal(t, 1, carts.ensured, "reading a customer never opens a cart")

	carts.findErr = errors.New("connection reset")
	_, err = svc.Get(ctx, p, c.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	carts.findErr = apperr.NotFound("no cart")
	got, err = svc.Get(ctx, p, c.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, got.CartID)
}

func TestUpdate(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ada, adaP := env.Customer(t, "ada")
	_, bobP := env.Customer(t, "bob")

	got, err := env.Customers.Update(ctx, adaP, ada.ID, customer.UpdateRequest{
		Email:     "ada@lovelace.dev",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  "analytical engine",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)
	assert.Equal(t, "Lovelace", got.LastName)
	assert.Equal(t, ada.CartID, got.CartID)
	require.Len(t, got.Addresses, 1)

	_, err = env.Customers.Login(ctx, "ada", testutil.Password)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	_, err = env.Customers.Login(ctx, "ada", "analytical engine")
	require.NoError(t, err)

	_, err = env.Customers.Update(ctx, bobP, ada.ID, customer.UpdateRequest{Email: "x"})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	_, err = env.Customers.Update(ctx, env.Admin(t), uuid.New(), customer.UpdateRequest{Email: "x"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteDropsCartAndAddresses(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ada, adaP := env.Customer(t, "ada")
	home := ada.Addresses[0]

	require.NoError(t, env.Customers.Delete(ctx, adaP, ada.ID))

	_, err := env.Store.Customers().GetCustomerByID(ctx, ada.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = env.Store.Carts().GetCart(ctx, ada.CartID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = env.Store.Addresses().GetByID(ctx, home.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err), "the home address lost its only reference")

	_, err = env.Customers.Login(ctx, "ada", testutil.Password)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestDeleteCustomerWithOrdersRollsBack(t *testing.T) {
	m := testutil.NewMarketplace(t, "3.00", 5)
	ctx := context.Background()

	_, err := m.Carts.AddItem(ctx, m.CustomerP, m.Customer.CartID, cart.ItemRequest{VendorProductID: m.Listing.ID, Amount: 1})
	require.NoError(t, err)
	_, err = m.Orders.PlaceOrder(ctx, m.CustomerP, order.PlaceOrderRequest{
		CartID:            m.Customer.CartID,
		BillingAddressID:  m.HomeAddress.ID,
		SupplierCompanyID: m.Supplier.ID,
	})
	require.NoError(t, err)

	err = m.Customers.Delete(ctx, m.CustomerP, m.Customer.ID)
	assert.Equal(t, apperr.KindReferentialIntegrityViolation, apperr.KindOf(err))

	got, err := m.Customers.Get(ctx, m.CustomerP, m.Customer.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Customer.CartID, got.CartID)
	require.Len(t, got.Addresses, 1)
	assert.Equal(t, m.HomeAddress.ID, got.Addresses[0].ID)
}
