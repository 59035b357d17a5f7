package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	jwtutil "blog-system/backend/app/jwt"
	"blog-system/backend/app/models"
	"blog-system/backend/global"
)

// TokenCookie holds the access token for browser sessions.
const TokenCookie = "access_token"

const LoginPath = "/Account/Login"

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// UserLoader returns the stored account behind a token. Any error, including
// a missing user, leaves the request anonymous.
type UserLoader interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

type Auth struct {
	Signer  *jwtutil.Signer
	Revoked RevocationChecker
	Users   UserLoader
}

// TokenFromRequest prefers the Authorization header over the cookie.
func TokenFromRequest(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate attaches the caller's claims when the request carries a valid,
// unrevoked token for an existing user. Anything else passes through as
// anonymous.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := a.Signer.Parse(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if a.Revoked != nil {
			revoked, err := a.Revoked.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				global.Logger.Warn().Err(err).Msg("token revocation check failed")
			}
			if revoked || err != nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		if a.Users != nil {
			u, err := a.Users.FindByID(r.Context(), claims.UserID)
			if err != nil || u == nil {
				global.Logger.Debug().Err(err).Uint64("uid", uint64(claims.UserID)).Msg("token user not found")
				next.ServeHTTP(w, r)
				return
			}
			// Role and name come from the store so a demotion applies before
			// the token expires.
			claims.Username = u.Username
			claims.Role = u.Role
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireAuth rejects anonymous requests: browsers are sent to the login page,
// API clients get 401.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetClaims(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}
		if WantsJSON(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		target := LoginPath + "?returnUrl=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusFound)
	})
}

func (a *Auth) RequireAuthFunc(fn http.HandlerFunc) http.Handler {
	return a.RequireAuth(fn)
}

// WantsJSON reports whether the client asked for JSON rather than HTML.
func WantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	return accept == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
