package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const identityContextKey contextKey = "identity"

// Roles carried in identity tokens.
const (
	RoleClient   = "client"
	RoleStaff    = "staff"
	RoleOperator = "operator"
)

// InternalKeyHeader carries the shared operator secret.
const InternalKeyHeader = "X-Internal-Key"

// Identity is the authenticated caller. ID is the auth provider's subject.
type Identity struct {
	ID    string
	Email string
	Name  string
	Role  string
}

// Claims are the JWT claims issued by the auth provider.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator creates an Authenticator. An empty issuer accepts any issuer.
func NewAuthenticator(secret []byte, issuer string) *Authenticator {
	return &Authenticator{secret: secret, issuer: issuer}
}

// Verify parses a raw token and returns the identity it asserts.
// PRE: raw is a compact JWS
// POST: Returns an identity with non-empty ID and Role, or an error
func (a *Authenticator) Verify(raw string) (Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, errors.New("token has no subject")
	}
	switch claims.Role {
	case RoleClient, RoleStaff, RoleOperator:
	default:
		return Identity{}, errors.New("token has no recognised role")
	}
	return Identity{ID: claims.Subject, Email: claims.Email, Name: claims.Name, Role: claims.Role}, nil
}

// Issue signs a token for id valid for ttl. Used by tests and local tooling.
func (a *Authenticator) Issue(id Identity, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Email: id.Email,
		Name:  id.Name,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Auth returns middleware that extracts the bearer token and sets the identity in context.
// It does NOT block unauthenticated requests; use RequireRole for that.
func Auth(a *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if raw, ok := strings.CutPrefix(header, "Bearer "); ok && raw != "" {
				if id, err := a.Verify(raw); err == nil {
					r = r.WithContext(ContextWithIdentity(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole returns middleware that blocks requests from callers without one of the roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				http.Error(w, "not authenticated", http.StatusUnauthorized)
				return
			}
			if !roleSet[id.Role] {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireInternalKey returns middleware that admits only requests presenting key.
// An empty key refuses every request.
func RequireInternalKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !InternalKeyMatches(r, key) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOperator admits an operator token or the internal key.
func RequireOperator(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsRole(r.Context(), RoleOperator) || InternalKeyMatches(r, key) {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}

// InternalKeyMatches compares the request's internal key in constant time.
func InternalKeyMatches(r *http.Request, key string) bool {
	if key == "" {
		return false
	}
	got := r.Header.Get(InternalKeyHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(key)) == 1
}

// IdentityFromContext extracts the identity from the request context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}

// IsRole checks if the current identity has one of the given roles.
func IsRole(ctx context.Context, roles ...string) bool {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return false
	}
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}

// ContextWithIdentity returns a context with the given identity set.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}
