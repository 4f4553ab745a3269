// Package auth carries the caller identity asserted by the upstream gateway.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
)

var ErrUnauthorized = errors.New("auth: unauthorized")

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const (
	HeaderUserID       = "X-User-ID"
	HeaderUserEmail    = "X-User-Email"
	HeaderUserName     = "X-User-Name"
	HeaderUserRole     = "X-User-Role"
	HeaderGatewayToken = "X-Gateway-Token"
)

type Principal struct {
	UserID string
	Email  string
	Name   string
	Role   Role
}

func (p Principal) IsAdmin() bool   { return p.Role == RoleAdmin }
func (p Principal) Anonymous() bool { return p.UserID == "" }

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the zero (anonymous) Principal when none was set.
func FromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(ctxKey{}).(Principal)
	return p
}

// StaticToken validates a single shared secret. With no Token every caller is
// rejected unless Insecure is set, which is meant for local development only.
type StaticToken struct {
	Token    string
	Insecure bool
}

func (s StaticToken) Validate(token string) error {
	if s.Token == "" {
		if s.Insecure {
			return nil
		}
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(s.Token), []byte(token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Identify attaches the Principal described by the gateway headers. Headers
// from a caller that fails the gateway token check are ignored.
func Identify(gateway StaticToken) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderUserID)
			if id == "" || gateway.Validate(r.Header.Get(HeaderGatewayToken)) != nil {
				next.ServeHTTP(w, r)
				return
			}
			role := Role(r.Header.Get(HeaderUserRole))
			if role != RoleAdmin {
				role = RoleUser
			}
			p := Principal{
				UserID: id,
				Email:  r.Header.Get(HeaderUserEmail),
				Name:   r.Header.Get(HeaderUserName),
				Role:   role,
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()).Anonymous() {
			deny(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin implies RequireUser.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !FromContext(r.Context()).IsAdmin() {
			deny(w, http.StatusForbidden, "Not authorized as admin")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func deny(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
