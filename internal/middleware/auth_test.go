package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inkwell-app/inkwell/internal/auth"
	"github.com/inkwell-app/inkwell/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	testCases := []struct {
		name               string
		path               string
		method             string
		token              string
		expectedStatusCode int
		mockUserID         int64
		mockVerifyErr      error
		mockUserExists     bool
		mockUserExistsErr  error
		skipVerifyCall     bool
		skipExistsCall     bool
	}{
		{
			name:               "public path without token",
			path:               "/blogs/all",
			method:             "POST",
			expectedStatusCode: http.StatusOK,
			skipVerifyCall:     true,
			skipExistsCall:     true,
		},
		{
			name:               "public single post fetch without token",
			path:               "/blogs/0a1b2c3d",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
			skipVerifyCall:     true,
			skipExistsCall:     true,
		},
		{
			name:               "signup is public",
			path:               "/auth/signup",
			method:             "POST",
			expectedStatusCode: http.StatusOK,
			skipVerifyCall:     true,
			skipExistsCall:     true,
		},
		{
			name:               "protected path without token",
			path:               "/blogs",
			method:             "POST",
			expectedStatusCode: http.StatusUnauthorized,
			skipVerifyCall:     true,
			skipExistsCall:     true,
		},
		{
			name:               "post mutation requires token despite public GET prefix",
			path:               "/blogs/0a1b2c3d",
			method:             "DELETE",
			expectedStatusCode: http.StatusUnauthorized,
			skipVerifyCall:     true,
			skipExistsCall:     true,
		},
		{
			name:               "valid token",
			path:               "/blogs",
			method:             "POST",
			token:              "valid-token",
			mockUserID:         7,
			mockUserExists:     true,
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "invalid token",
			path:               "/blogs",
			method:             "POST",
			token:              "invalid-token",
			mockVerifyErr:      auth.ErrInvalidToken,
			expectedStatusCode: http.StatusUnauthorized,
			skipExistsCall:     true,
		},
		{
			name:               "token of removed user",
			path:               "/blogs",
			method:             "POST",
			token:              "valid-token",
			mockUserID:         7,
			mockUserExists:     false,
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "user check error",
			path:               "/blogs",
			method:             "POST",
			token:              "valid-token",
			mockUserID:         7,
			mockUserExistsErr:  errors.New("db down"),
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "options preflight",
			path:               "/blogs",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
			skipVerifyCall:     true,
			skipExistsCall:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockTokenChecker := NewMocktokenChecker(ctrl)
			mockUserChecker := NewMockuserChecker(ctrl)
			authMiddleware := middleware.NewAuthMiddlewareHandler(mockTokenChecker, mockUserChecker)

			if !tc.skipVerifyCall {
				mockTokenChecker.EXPECT().
					Verify(gomock.Any(), tc.token).
					Return(tc.mockUserID, tc.mockVerifyErr)
			}
			if !tc.skipExistsCall {
				mockUserChecker.EXPECT().
					Exists(gomock.Any(), tc.mockUserID).
					Return(tc.mockUserExists, tc.mockUserExistsErr)
			}

			var ctxUserID int64
			var ctxUserFound bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxUserID, ctxUserFound = auth.UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req, err := http.NewRequest(tc.method, tc.path, nil)
			require.NoError(t, err)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}

			rec := httptest.NewRecorder()
			authMiddleware.AuthCheck()(next).ServeHTTP(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)

			if tc.expectedStatusCode == http.StatusOK && tc.token != "" && tc.mockVerifyErr == nil {
				assert.True(t, ctxUserFound)
				assert.Equal(t, tc.mockUserID, ctxUserID)
			}
		})
	}
}

func TestAuthMiddlewareHandler_cookieTransport(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockTokenChecker := NewMocktokenChecker(ctrl)
	mockUserChecker := NewMockuserChecker(ctrl)
	authMiddleware := middleware.NewAuthMiddlewareHandler(mockTokenChecker, mockUserChecker)

	mockTokenChecker.EXPECT().
		Verify(gomock.Any(), "cookie-token").
		Return(int64(3), nil)
	mockUserChecker.EXPECT().
		Exists(gomock.Any(), int64(3)).
		Return(true, nil)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req, err := http.NewRequest("POST", "/blogs", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: auth.TokenCookieName, Value: "cookie-token"})

	rec := httptest.NewRecorder()
	authMiddleware.AuthCheck()(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
