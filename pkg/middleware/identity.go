package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/iamsonukr/storefront/pkg/logger"
)

type contextKeyType string

const principalKey contextKeyType = "principal"

// Principal identifies the owner of a request: a signed-in user or an
// anonymous session.
type Principal struct {
	UserID    string
	SessionID string
}

// SignedIn reports whether the request carries an authenticated user.
func (p Principal) SignedIn() bool { return p.UserID != "" }

// OwnerID returns the key the request's cart is stored under: the user ID
// when signed in, otherwise the session ID.
func (p Principal) OwnerID() string {
	if p.UserID != "" {
		return p.UserID
	}
	return p.SessionID
}

// TokenResolver validates a bearer token and returns the user ID it belongs
// to. Implementations typically call the identity service.
type TokenResolver func(ctx context.Context, token string) (string, error)

// Identity resolves the request principal. A valid bearer token yields a user
// principal; otherwise the X-Session-ID header identifies an anonymous
// session, and a fresh session ID is minted when the client has none yet. The
// session ID is echoed back in the response header so browsers can persist it.
func Identity(resolve TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var p Principal

			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
					writeIdentityError(w, "invalid authorization header format")
					return
				}

				userID, err := resolve(ctx, parts[1])
				if err != nil {
					writeIdentityError(w, "invalid or expired token")
					return
				}
				p.UserID = userID
				ctx = logger.WithUserID(ctx, userID)
			}

			if sessionID := r.Header.Get("X-Session-ID"); sessionID != "" {
				p.SessionID = sessionID
			} else if p.UserID == "" {
				p.SessionID = uuid.New().String()
			}
			if p.SessionID != "" {
				w.Header().Set("X-Session-ID", p.SessionID)
			}

			ctx = context.WithValue(ctx, principalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests whose principal is not a signed-in user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !PrincipalFromContext(r.Context()).SignedIn() {
			writeIdentityError(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PrincipalFromContext extracts the request principal. The zero Principal is
// returned when the Identity middleware is not mounted.
func PrincipalFromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey).(Principal); ok {
		return p
	}
	return Principal{}
}

func writeIdentityError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "UNAUTHORIZED",
		"message": message,
	})
}
