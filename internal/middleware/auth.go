package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/inkwell-app/inkwell/internal/auth"
	"github.com/inkwell-app/inkwell/internal/telemetry/tracing"
	"github.com/inkwell-app/inkwell/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

type tokenChecker interface {
	Verify(ctx context.Context, token string) (int64, error)
}

type userChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type AuthMiddlewareHandler struct {
	tokenChecker tokenChecker
	userChecker  userChecker
	allowedPaths map[string]bool
	// paths under these prefixes are public for GET requests only
	publicGetPrefixes []string
}

func NewAuthMiddlewareHandler(
	tokenChecker tokenChecker,
	userChecker userChecker,
) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		tokenChecker: tokenChecker,
		userChecker:  userChecker,
		allowedPaths: map[string]bool{
			"/":            true,
			"/auth/signup": true,
			"/auth/login":  true,
			"/blogs/all":   true,
		},
		publicGetPrefixes: []string{
			// single post fetch is public; mutations on the same
			// paths use other verbs and stay protected
			"/blogs/",
		},
	}
}

func (h *AuthMiddlewareHandler) pathIsAlwaysAllowed(method, path string) bool {
	if h.allowedPaths[path] {
		return true
	}
	if method != http.MethodGet {
		return false
	}
	for _, prefix := range h.publicGetPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.pathIsAlwaysAllowed(r.Method, r.URL.Path) {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			token := auth.TokenFromRequest(r)
			if token == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				pkg.WriteError(w, "Access denied. No token provided.", http.StatusUnauthorized, "Authentication required")
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			userID, err := h.tokenChecker.Verify(ctx, token)
			if err != nil {
				log.Tracef("[invalid token] [auth middleware] unauthorized => %s: %s", r.URL.Path, err)
				pkg.WriteError(w, "Invalid token.", http.StatusUnauthorized, "Authentication failed")
				span.SetStatus(codes.Error, "invalid-token")
				return
			}

			exists, err := h.userChecker.Exists(ctx, userID)
			if err != nil {
				log.Errorf("[failed user check] => %s: %s", r.URL.Path, err)
				pkg.WriteError(w, "Authentication failed.", http.StatusUnauthorized, "Invalid token")
				span.SetStatus(codes.Error, "check-user-err")
				span.RecordError(err)
				return
			}
			if !exists {
				log.Tracef("[user %d gone] [auth middleware] unauthorized => %s", userID, r.URL.Path)
				pkg.WriteError(w, "Invalid token. User not found.", http.StatusUnauthorized, "Authentication failed")
				span.SetStatus(codes.Error, "user-not-found")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUserID(ctx, userID)))
		})
	}
}
