package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-api/internal/domain/user"
)

// identityKey is the context key for the authenticated user.
type identityKey struct{}

// identityFrom returns the authenticated user stored by Authenticator, or nil.
func identityFrom(ctx context.Context) *user.User {
	u, _ := ctx.Value(identityKey{}).(*user.User)
	return u
}

// requireUser returns the authenticated caller or responds 401.
func requireUser(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	u := identityFrom(r.Context())
	if u == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return u, true
}

// Authenticator resolves API keys into user identities. Keys are stored only
// as HMAC-SHA256 digests; a leaked database cannot be replayed as credentials
// without the pepper.
type Authenticator struct {
	users  user.Repository
	pepper []byte
}

// NewAuthenticator creates an Authenticator with the given user repository
// and HMAC pepper.
func NewAuthenticator(users user.Repository, pepper []byte) *Authenticator {
	return &Authenticator{users: users, pepper: pepper}
}

// hash computes the hex HMAC-SHA256 digest of an API key.
func (a *Authenticator) hash(key string) string {
	mac := hmac.New(sha256.New, a.pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// authenticate resolves the API key to an active user. The stored digest is
// re-compared in constant time to guard against timing side-channels.
func (a *Authenticator) authenticate(ctx context.Context, key string) (*user.User, error) {
	digest := a.hash(key)

	u, err := a.users.GetByAPIKeyHash(ctx, digest)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrUnauthenticated
		}
		return nil, errors.Wrap(err, "lookup api key")
	}

	if subtle.ConstantTimeCompare([]byte(digest), []byte(u.APIKeyHash)) != 1 {
		return nil, user.ErrUnauthenticated
	}
	if !u.Active {
		return nil, user.ErrUnauthenticated
	}

	return u, nil
}

// Middleware attaches the caller identity to the request context when a
// credential is presented. Requests without credentials pass through
// anonymously; each handler decides whether it needs an identity.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := apiKeyFrom(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		u, err := a.authenticate(r.Context(), key)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// apiKeyFrom extracts the API key from the api_key header or a bearer token.
func apiKeyFrom(r *http.Request) string {
	if key := r.Header.Get("api_key"); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return token
		}
	}
	return ""
}
