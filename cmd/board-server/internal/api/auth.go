package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coregx/board"
	"github.com/coregx/board/model"
)

type callerKey struct{}

// Authorizer decides whether a caller holds a role.
type Authorizer interface {
	HasRole(caller model.User, role string) bool
}

// RoleAuthorizer grants a role when the user's own role matches.
// Administrators hold every role.
type RoleAuthorizer struct{}

// HasRole implements Authorizer.
func (RoleAuthorizer) HasRole(caller model.User, role string) bool {
	return caller.HasRole(role) || caller.HasRole(model.RoleAdministrator)
}

// Authenticator resolves bearer tokens to users and enforces roles.
type Authenticator struct {
	users  board.UserRepository
	authz  Authorizer
	logger board.Logger
}

// NewAuthenticator creates an Authenticator. A nil authz means RoleAuthorizer.
func NewAuthenticator(users board.UserRepository, authz Authorizer, logger board.Logger) *Authenticator {
	if authz == nil {
		authz = RoleAuthorizer{}
	}
	return &Authenticator{users: users, authz: authz, logger: logger}
}

// CallerFrom returns the authenticated user stored in ctx.
func CallerFrom(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(callerKey{}).(model.User)
	return u, ok
}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller model.User) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// Identify looks up the bearer token, if any, and stores the caller in the
// request context. An unknown token is rejected; a missing one is not.
func (a *Authenticator) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, present := bearerToken(r)
		if !present {
			next.ServeHTTP(w, r)
			return
		}

		user, err := a.users.FindByToken(r.Context(), token)
		if err != nil {
			if !board.IsNoData(err) {
				a.logger.Errorf("Token lookup failed: %v", err)
			}
			writeAuthError(w, http.StatusUnauthorized, "Invalid token", board.ErrCodeUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), user)))
	})
}

// RequireUser rejects anonymous requests with 401.
func (a *Authenticator) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CallerFrom(r.Context()); !ok {
			writeAuthError(w, http.StatusUnauthorized, "Authentication required", board.ErrCodeUnauthorized)
			return
		}
		next(w, r)
	}
}

// RequireRole rejects anonymous requests with 401 and callers lacking role
// with 403.
func (a *Authenticator) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return a.RequireUser(func(w http.ResponseWriter, r *http.Request) {
		caller, _ := CallerFrom(r.Context())
		if !a.authz.HasRole(caller, role) {
			a.logger.Warnf("Forbidden: user_id=%d, role=%s, required=%s, path=%s", caller.ID, caller.Role, role, r.URL.Path)
			writeAuthError(w, http.StatusForbidden, "Insufficient role", board.ErrCodeForbidden)
			return
		}
		next(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

func writeAuthError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Message: message,
	})
}
