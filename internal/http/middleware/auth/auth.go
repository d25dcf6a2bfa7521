// Package auth authenticates bearer tokens and puts the caller into the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock"

	"service-job-assignment/internal/apperr"
	"service-job-assignment/internal/logx"
)

// Role is the coarse permission set carried by a token.
type Role string

// Known roles.
const (
	RoleDriver     Role = "driver"
	RoleDispatcher Role = "dispatcher"
	RoleAdmin      Role = "admin"
)

// Principal is the authenticated caller.
type Principal struct {
	ID   string
	Role Role
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by Middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.ID != ""
}

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// Verifier validates HS256 tokens.
type Verifier struct {
	secret []byte
	issuer string
	clock  clock.Clock
}

// NewVerifier creates a Verifier. An empty issuer disables the iss check.
func NewVerifier(secret, issuer string, clk clock.Clock) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret not configured")
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &Verifier{secret: []byte(secret), issuer: issuer, clock: clk}, nil
}

// Verify parses raw and returns its principal.
func (v *Verifier) Verify(raw string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	c := &claims{}
	tok, err := jwt.NewParser(opts...).ParseWithClaims(raw, c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	if !tok.Valid || c.Subject == "" {
		return Principal{}, fmt.Errorf("%w: subject claim required", apperr.ErrUnauthorized)
	}

	role := Role(c.Role)
	if role == "" {
		role = RoleDriver
	}
	return Principal{ID: c.Subject, Role: role}, nil
}

// Issue signs a token for p. Used by tooling and tests.
func Issue(secret, issuer string, p Principal, now time.Time, ttl time.Duration) (string, error) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(p.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// Middleware rejects requests without a valid bearer token.
func Middleware(v *Verifier, logger logx.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				deny(w, logger, http.StatusUnauthorized, `{"error":"unauthorized"}`)
				return
			}
			p, err := v.Verify(raw)
			if err != nil {
				logger.Debug("token rejected", logx.Err(err), logx.String("path", r.URL.Path))
				deny(w, logger, http.StatusUnauthorized, `{"error":"unauthorized"}`)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole lets through principals holding one of roles.
func RequireRole(logger logx.Logger, roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				deny(w, logger, http.StatusUnauthorized, `{"error":"unauthorized"}`)
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			deny(w, logger, http.StatusForbidden,
				`{"error":"forbidden","reason":"`+string(apperr.ReasonRole)+`"}`)
		})
	}
}

func deny(w http.ResponseWriter, logger logx.Logger, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(status)
	if _, err := io.WriteString(w, body); err != nil {
		logger.Debug("auth response write failed", logx.Err(err))
	}
}
