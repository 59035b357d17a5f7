package middleware

import (
	"context"

	jwtutil "blog-system/backend/app/jwt"
)

type ctxKey int

const claimsKey ctxKey = 1

func WithClaims(ctx context.Context, c *jwtutil.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// GetClaims returns nil for anonymous requests.
func GetClaims(ctx context.Context) *jwtutil.Claims {
	if v := ctx.Value(claimsKey); v != nil {
		if c, ok := v.(*jwtutil.Claims); ok {
			return c
		}
	}
	return nil
}
