// internal/app/system/auth/auth.go
//
// Package auth resolves the caller's identity from a bearer token and
// makes it available to handlers via the request context. Token issuance
// (login, refresh) is handled by the identity service, not here; this
// package only verifies and resolves.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// User is the resolved caller injected into r.Context().
type User struct {
	ID    string
	Name  string
	Email string
	Role  string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user and a found flag.
func CurrentUser(r *http.Request) (*User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*User)
	return u, ok
}

func withUser(r *http.Request, u *User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a user directly into the request context.
// For handler tests only; production requests go through Verifier.
func WithTestUser(r *http.Request, u *User) *http.Request {
	return withUser(r, u)
}

// UserFetcher loads fresh user data for a verified token subject.
// Fetching on every request means role changes and disabled accounts
// take effect immediately instead of at token expiry.
type UserFetcher interface {
	FetchUser(ctx context.Context, id string) (*User, error)
}

// ErrUserDisabled is returned by UserFetcher implementations when the
// account exists but is not active.
var ErrUserDisabled = errors.New("user account is disabled")

// Verifier validates bearer tokens and loads the caller into context.
type Verifier struct {
	key     []byte
	issuer  string
	fetcher UserFetcher
	log     *zap.Logger
}

// NewVerifier creates a Verifier. The key signs tokens with HMAC-SHA256;
// it must be strong in production (enforced at config validation).
func NewVerifier(key, issuer string, logger *zap.Logger) *Verifier {
	return &Verifier{
		key:    []byte(key),
		issuer: issuer,
		log:    logger,
	}
}

// SetUserFetcher wires the store-backed fetcher. Must be called before
// the middleware handles requests.
func (v *Verifier) SetUserFetcher(f UserFetcher) {
	v.fetcher = f
}

// LoadUser is middleware that resolves the Authorization header into a
// context user. Requests without a (valid) token pass through without a
// user; RequireSignedIn / RequireRole decide whether that is fatal.
func (v *Verifier) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearerToken(r)
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}

		subject, err := v.verify(tok)
		if err != nil {
			v.log.Debug("bearer token rejected", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if v.fetcher == nil {
			next.ServeHTTP(w, r)
			return
		}
		u, err := v.fetcher.FetchUser(r.Context(), subject)
		if err != nil {
			if !errors.Is(err, ErrUserDisabled) {
				v.log.Warn("user fetch failed", zap.String("user_id", subject), zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, withUser(r, u))
	})
}

// RequireSignedIn rejects requests without a resolved user with 401.
func (v *Verifier) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests whose user lacks one of the allowed roles:
// 401 when not signed in, 403 otherwise.
func (v *Verifier) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, ok := set[strings.ToLower(u.Role)]; !ok {
				writeJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (v *Verifier) verify(tok string) (subject string, err error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.key, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// writeJSONError is a minimal local error writer so this package does not
// depend on httpapi (which depends on auth via handlers).
func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
