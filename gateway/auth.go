// Package gateway exposes the venue engines over an authenticated HTTP API.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const contextKeyCaller contextKey = "caller_address"

// ErrNoCaller is returned when a handler runs without an authenticated
// caller in its context.
var ErrNoCaller = errors.New("gateway: no authenticated caller in context")

// Authenticator verifies HS256 bearer tokens and attaches the caller's
// venue address, carried in the subject claim, to the request context.
type Authenticator struct {
	secret []byte
	issuer string
	leeway time.Duration
	nowFn  func() time.Time
}

// NewAuthenticator constructs an authenticator for the given shared secret
// and expected issuer.
func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{
		secret: []byte(strings.TrimSpace(secret)),
		issuer: strings.TrimSpace(issuer),
		leeway: 30 * time.Second,
		nowFn:  time.Now,
	}
}

// SetNowFunc overrides the time source. Primarily for deterministic tests.
func (a *Authenticator) SetNowFunc(now func() time.Time) {
	if now == nil {
		a.nowFn = time.Now
		return
	}
	a.nowFn = now
}

// IssueToken mints a token for the given caller address. Operator tooling
// and tests use it; production deployments usually issue tokens out of band.
func (a *Authenticator) IssueToken(caller string, ttl time.Duration) (string, error) {
	now := a.nowFn()
	claims := jwt.RegisteredClaims{
		Subject:   strings.TrimSpace(caller),
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) verify(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithLeeway(a.leeway),
		jwt.WithTimeFunc(func() time.Time { return a.nowFn() }),
	}
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", errors.New("token validation failed")
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", errors.New("token subject missing")
	}
	return subject, nil
}

// Middleware enforces bearer authentication before invoking the next handler.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := strings.TrimSpace(r.Header.Get("Authorization"))
		if authz == "" {
			http.Error(w, "missing authorization", http.StatusUnauthorized)
			return
		}
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			http.Error(w, "invalid authorization scheme", http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(parts[1])
		if token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		caller, err := a.verify(token)
		if err != nil {
			http.Error(w, "invalid authorization token", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyCaller, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerFromContext extracts the caller address attached by the middleware.
func CallerFromContext(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", ErrNoCaller
	}
	caller, ok := ctx.Value(contextKeyCaller).(string)
	if !ok || caller == "" {
		return "", ErrNoCaller
	}
	return caller, nil
}
