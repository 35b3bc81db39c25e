package auth

import (
	"context"
	"net/http"
	"strings"
)

var _ Checker = (*Service)(nil)

// Checker verifies a bearer token and resolves the acting user id.
type Checker interface {
	Verify(ctx context.Context, token string) (int64, error)
}

// TokenCookieName is the HTTP-only cookie carrying the issued token.
const TokenCookieName = "token"

// TokenFromRequest extracts the bearer token, preferring the
// Authorization header over the token cookie. Both transports are
// accepted since clients historically used either.
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
