package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/marketplace-backend/internal/modules/address"
	"github.com/georgemunganga/marketplace-backend/internal/modules/customer"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
)

func TestWithinTxRestoresSnapshotOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := uuid.New()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Customers().CreateCustomer(ctx, &customer.Customer{ID: id, Username: "ada"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Customers().GetCustomerByID(ctx, id)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestWithinTxNestedJoinsOuter(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := uuid.New()

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		return s.WithinTx(ctx, func(ctx context.Context) error {
			return s.Customers().CreateCustomer(ctx, &customer.Customer{ID: id, Username: "ada"})
		})
	})
	require.NoError(t, err)

	c, err := s.Customers().GetCustomerByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ada", c.Username)
}

func TestAddressDeleteRefusedWhileAffiliated(t *testing.T) {
	s := New()
	ctx := context.Background()
	cust := &customer.Customer{ID: uuid.New(), Username: "ada"}
	require.NoError(t, s.Customers().CreateCustomer(ctx, cust))

	repo := s.Addresses()
	a := &address.Address{ID: uuid.New(), Content: address.Content{Street: "1 Main St", City: "Lusaka", PostalCode: "10101", Country: "ZM"}}
	created, err := repo.InsertIfAbsent(ctx, a)
	require.NoError(t, err)
	require.True(t, created)

	dup := &address.Address{ID: uuid.New(), Content: a.Content}
	created, err = repo.InsertIfAbsent(ctx, dup)
	require.NoError(t, err)
	assert.False(t, created)

	owner := address.Owner{Kind: address.OwnerCustomer, ID: cust.ID}
	require.NoError(t, repo.AddAffiliation(ctx, owner, a.ID))

	err = repo.Delete(ctx, a.ID)
	assert.Equal(t, apperr.KindReferentialIntegrityViolation, apperr.KindOf(err))

	removed, err := repo.RemoveAffiliation(ctx, owner, a.ID)
	require.NoError(t, err)
	require.True(t, removed)
	require.NoError(t, repo.Delete(ctx, a.ID))
}
