package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolveAs(userID string, err error) TokenResolver {
	return func(ctx context.Context, token string) (string, error) {
		return userID, err
	}
}

func capturePrincipal(p *Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*p = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentity_BearerToken(t *testing.T) {
	var p Principal
	h := Identity(resolveAs("user-42", nil))(capturePrincipal(&p))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer tok-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-42", p.UserID)
	assert.True(t, p.SignedIn())
	assert.Equal(t, "user-42", p.OwnerID())
}

func TestIdentity_InvalidToken(t *testing.T) {
	h := Identity(resolveAs("", errors.New("expired")))(capturePrincipal(&Principal{}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer tok-bad")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentity_MalformedHeader(t *testing.T) {
	h := Identity(resolveAs("user-42", nil))(capturePrincipal(&Principal{}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentity_ExistingSession(t *testing.T) {
	var p Principal
	h := Identity(resolveAs("", nil))(capturePrincipal(&p))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Session-ID", "sess-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "sess-7", p.SessionID)
	assert.False(t, p.SignedIn())
	assert.Equal(t, "sess-7", p.OwnerID())
	assert.Equal(t, "sess-7", rec.Header().Get("X-Session-ID"))
}

func TestIdentity_MintsSessionForNewGuest(t *testing.T) {
	var p Principal
	h := Identity(resolveAs("", nil))(capturePrincipal(&p))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.NotEmpty(t, p.SessionID)
	assert.Equal(t, p.SessionID, rec.Header().Get("X-Session-ID"))
}

func TestIdentity_SignedInKeepsSessionHeader(t *testing.T) {
	// A signed-in user that still carries a guest session can merge both
	// carts, so the session ID must survive the middleware.
	var p Principal
	h := Identity(resolveAs("user-42", nil))(capturePrincipal(&p))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/merge", nil)
	req.Header.Set("Authorization", "Bearer tok-abc")
	req.Header.Set("X-Session-ID", "sess-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "user-42", p.UserID)
	assert.Equal(t, "sess-7", p.SessionID)
	assert.Equal(t, "user-42", p.OwnerID())
}

func TestRequireUser(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("guest rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/merge", nil)
		ctx := context.WithValue(req.Context(), principalKey, Principal{SessionID: "sess-7"})
		rec := httptest.NewRecorder()
		RequireUser(inner).ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("user allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/merge", nil)
		ctx := context.WithValue(req.Context(), principalKey, Principal{UserID: "user-42"})
		rec := httptest.NewRecorder()
		RequireUser(inner).ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestPrincipalFromContext_Missing(t *testing.T) {
	p := PrincipalFromContext(context.Background())
	assert.Empty(t, p.UserID)
	assert.Empty(t, p.OwnerID())
}
