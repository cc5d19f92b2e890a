package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	platformauth "github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/auth"
	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/tenantdb"
)

type stubResolver struct {
	conn *tenantdb.Conn
	err  error
}

func (s *stubResolver) Resolve(ctx context.Context, tenantID *uuid.UUID) (*tenantdb.Conn, error) {
	return s.conn, s.err
}

func doRequest(t *testing.T, resolver ConnResolver, creds *platformauth.UserCredentials) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	var reachedHandler bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reachedHandler = true
		_, ok := tenantdb.FromContext(r.Context())
		require.True(t, ok, "handler must see the tenant connection")
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	if creds != nil {
		req = req.WithContext(platformauth.WithUser(req.Context(), creds))
	}

	rec := httptest.NewRecorder()
	WithTenantConn(resolver)(next).ServeHTTP(rec, req)
	return rec, reachedHandler
}

func tenantCreds(tenantID string) *platformauth.UserCredentials {
	return &platformauth.UserCredentials{
		Id:       uuid.NewString(),
		Email:    "staff@clinic.test",
		TenantID: &tenantID,
	}
}

func TestWithTenantConnAttachesConnection(t *testing.T) {
	resolver := &stubResolver{conn: &tenantdb.Conn{}}

	rec, reached := doRequest(t, resolver, tenantCreds(uuid.NewString()))
	require.True(t, reached)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWithTenantConnMissingCredentials(t *testing.T) {
	rec, reached := doRequest(t, &stubResolver{}, nil)
	require.False(t, reached)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWithTenantConnMissingTenantClaim(t *testing.T) {
	creds := &platformauth.UserCredentials{Id: uuid.NewString(), Email: "admin@hq.test"}

	rec, reached := doRequest(t, &stubResolver{}, creds)
	require.False(t, reached)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWithTenantConnMalformedTenantClaim(t *testing.T) {
	rec, reached := doRequest(t, &stubResolver{}, tenantCreds("not-a-uuid"))
	require.False(t, reached)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWithTenantConnUnknownTenant(t *testing.T) {
	resolver := &stubResolver{err: tenantdb.ErrUnknownTenant}

	rec, reached := doRequest(t, resolver, tenantCreds(uuid.NewString()))
	require.False(t, reached)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWithTenantConnNotProvisioned(t *testing.T) {
	id := uuid.New()
	resolver := &stubResolver{err: &tenantdb.NotProvisionedError{PublicID: id}}

	rec, reached := doRequest(t, resolver, tenantCreds(id.String()))
	require.False(t, reached)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "30", rec.Header().Get("Retry-After"))
}

func TestWithTenantConnResolverFailure(t *testing.T) {
	resolver := &stubResolver{err: errors.New("control plane down")}

	rec, reached := doRequest(t, resolver, tenantCreds(uuid.NewString()))
	require.False(t, reached)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
