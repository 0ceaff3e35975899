package auth

import (
	"context"
	"net/http"
	"strings"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
}

// Authenticator resolves a bearer token to an identity.
type Authenticator interface {
	Authenticate(token string) (Identity, bool)
}

// StaticTokens maps opaque bearer tokens to user ids.
type StaticTokens map[string]string

func (s StaticTokens) Authenticate(token string) (Identity, bool) {
	if token == "" {
		return Identity{}, false
	}
	user, ok := s[token]
	if !ok {
		return Identity{}, false
	}
	return Identity{UserID: user}, true
}

type ctxKey struct{}

// WithIdentity stores id on ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored on ctx, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Middleware attaches the caller identity to the request context. When
// required is true, requests without a valid token get 401.
func Middleware(a Authenticator, required bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a != nil {
			if id, ok := a.Authenticate(BearerToken(r.Header.Get("Authorization"))); ok {
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
				return
			}
		}
		if required {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
