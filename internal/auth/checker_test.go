package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func newRequestWithAuth(t *testing.T, authHeader, cookieToken string) *http.Request {
	t.Helper()

	r, err := http.NewRequest("GET", "/blogs/some-id", nil)
	require.NoError(t, err)
	if authHeader != "" {
		r.Header.Set("Authorization", authHeader)
	}
	if cookieToken != "" {
		r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: cookieToken})
	}
	return r
}
