package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
)

func newTestService(t *testing.T) (*service, SessionStore) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pw"), bcrypt.MinCost)
	require.NoError(t, err)
	store := NewMemorySessionStore()
	svc := NewService(store, Options{
		Secret:            []byte("test-secret"),
		TTL:               time.Hour,
		AdminID:           "8d3c8f6e-9a5b-4f5e-9a63-0c6b4bd4a001",
		AdminPasswordHash: string(hash),
	}).(*service)
	return svc, store
}

func TestIssueThenVerify(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := Principal{Role: RoleCustomer, ID: uuid.New()}

	token, err := svc.Issue(ctx, p)
	require.NoError(t, err)

	parsed, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, p, parsed)

	ok, err := svc.Verify(ctx, RoleCustomer, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify(ctx, RoleVendor, p.ID)
	require.NoError(t, err)
	assert.False(t, ok, "a customer session does not authorize the vendor role")
}

func TestVerifyRejectsSupersededToken(t *testing.T) {
	svc, _ := newTestService(t)
	p := Principal{Role: RoleVendor, ID: uuid.New()}

	first, err := svc.Issue(context.Background(), p)
	require.NoError(t, err)
	_, err = svc.Issue(context.Background(), p)
	require.NoError(t, err)

	ctx := WithPrincipal(context.Background(), p, first)
	ok, err := svc.Verify(ctx, RoleVendor, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyDropsTamperedSession(t *testing.T) {
	svc, store := newTestService(t)
	id := uuid.New()
	key := sessionKey(RoleCustomer, id)
	require.NoError(t, store.Put(context.Background(), key, "not-a-jwt", time.Hour))

	ok, err := svc.Verify(context.Background(), RoleCustomer, id)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Get(context.Background(), key)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRevoke(t *testing.T) {
	svc, _ := newTestService(t)
	p := Principal{Role: RoleCustomer, ID: uuid.New()}
	_, err := svc.Issue(context.Background(), p)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), p))

	err = Require(context.Background(), svc, p)
	assert.True(t, apperr.KindOf(err) == apperr.KindUnauthorized)
}

func TestAdminLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AdminLogin(ctx, svc.opts.AdminID, "wrong")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	token, err := svc.AdminLogin(ctx, svc.opts.AdminID, "admin-pw")
	require.NoError(t, err)
	p, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, p.Role)
	assert.NoError(t, Require(ctx, svc, p))
}

func TestRequireParty(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	customer := Principal{Role: RoleCustomer, ID: uuid.New()}
	_, err := svc.Issue(ctx, customer)
	require.NoError(t, err)

	assert.NoError(t, RequireParty(ctx, svc, customer, RoleCustomer, customer.ID))

	err = RequireParty(ctx, svc, customer, RoleCustomer, uuid.New())
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	err = RequireRole(ctx, svc, customer, RoleAdmin)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestMemorySessionStoreExpires(t *testing.T) {
	store := NewMemorySessionStore().(*memorySessionStore)
	now := time.Now()
	store.now = func() time.Time { return now }
	require.NoError(t, store.Put(context.Background(), "k", "v", time.Minute))

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMiddleware(t *testing.T) {
	svc, _ := newTestService(t)
	p := Principal{Role: RoleCustomer, ID: uuid.New()}
	token, err := svc.Issue(context.Background(), p)
	require.NoError(t, err)

	var seen Principal
	h := Middleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, p, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
