package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/inkwell-app/inkwell/internal/auth"
	"github.com/inkwell-app/inkwell/internal/middleware"
	"github.com/inkwell-app/inkwell/internal/telemetry/metrics"
	"github.com/inkwell-app/inkwell/internal/telemetry/tracing"
	"github.com/inkwell-app/inkwell/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type signupRequest struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type usersRepo interface {
	Add(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}

type tokenService interface {
	IssueToken(ctx context.Context, userID int64) (string, error)
	Revoke(ctx context.Context, token string) error
}

type Handler struct {
	repo        usersRepo
	tokens      tokenService
	instr       *metrics.Manager
	tokenMaxAge int // seconds, mirrors the token TTL on the cookie
}

func NewHandler(
	repo usersRepo,
	tokens tokenService,
	instr *metrics.Manager,
) *Handler {
	return &Handler{
		repo:        repo,
		tokens:      tokens,
		instr:       instr,
		tokenMaxAge: int(auth.DefaultTTL.Seconds()),
	}
}

func (handler *Handler) SetupRoutes(
	router *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	loginAllowedPerMin int,
	signupAllowedPerMin int,
) {
	// signup and login get their own rate limits to slow down abuse
	rateLimited := func(routerName string, allowedPerMin int, h http.HandlerFunc) http.Handler {
		return middleware.RateLimit(rateLimiter, routerName, allowedPerMin, handler.instr)(h)
	}

	authRouter := router.PathPrefix("/auth").Subrouter()
	authRouter.Handle("/signup", rateLimited("signup", signupAllowedPerMin, handler.handleSignup)).
		Methods("POST", "OPTIONS").Name("signup")
	authRouter.Handle("/login", rateLimited("login", loginAllowedPerMin, handler.handleLogin)).
		Methods("POST", "OPTIONS").Name("login")
	authRouter.HandleFunc("/logout", handler.handleLogout).Methods("POST", "OPTIONS").Name("logout")
	authRouter.HandleFunc("/verifyToken", handler.handleVerifyToken).Methods("GET", "OPTIONS").Name("verify-token")
}

func (handler *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.signup")
	defer span.End()

	var signupReq signupRequest
	if err := json.NewDecoder(r.Body).Decode(&signupReq); err != nil {
		log.Errorf("signup, unmarshal json params: %s", err)
		pkg.WriteError(w, "Invalid request payload", http.StatusBadRequest, "Malformed JSON")
		return
	}

	if signupReq.FullName == "" || signupReq.Email == "" || signupReq.Password == "" {
		pkg.WriteError(w, "All fields are required", http.StatusBadRequest, "Missing required fields")
		return
	}
	if !ValidateFullName(signupReq.FullName) {
		pkg.WriteError(w, "Full name must be at least 2 characters long", http.StatusBadRequest, "Invalid full name")
		return
	}
	if !ValidateEmail(signupReq.Email) {
		pkg.WriteError(w, "Please provide a valid email address", http.StatusBadRequest, "Invalid email format")
		return
	}
	if !ValidatePassword(signupReq.Password) {
		pkg.WriteError(w, "Password must be at least 6 characters long", http.StatusBadRequest, "Invalid password")
		return
	}

	passwordHash, err := pkg.HashPassword(signupReq.Password)
	if err != nil {
		log.Errorf("signup, hash password: %s", err)
		pkg.WriteError(w, "Internal server error", http.StatusInternalServerError, "Something went wrong during registration")
		return
	}

	user := &User{
		FullName:     strings.TrimSpace(signupReq.FullName),
		Email:        NormalizeEmail(signupReq.Email),
		PasswordHash: passwordHash,
	}

	if err := handler.repo.Add(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			pkg.WriteError(w, "User with this email already exists", http.StatusConflict, "Email already registered")
			return
		}
		log.Errorf("signup, add user: %s", err)
		pkg.WriteError(w, "Internal server error", http.StatusInternalServerError, "Something went wrong during registration")
		return
	}

	token, err := handler.tokens.IssueToken(ctx, user.ID)
	if err != nil {
		log.Errorf("signup, issue token for user %d: %s", user.ID, err)
		pkg.WriteError(w, "Internal server error", http.StatusInternalServerError, "Something went wrong during registration")
		return
	}

	handler.instr.CounterSignups.Inc()
	log.Tracef("new user %d [%s] registered", user.ID, user.Email)

	handler.setTokenCookie(w, token)
	pkg.WriteSuccess(w, "User registered successfully", http.StatusCreated, map[string]any{
		"user":  user.Identity(),
		"token": token,
	})
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.login")
	defer span.End()

	var loginReq loginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		log.Errorf("login, unmarshal json params: %s", err)
		pkg.WriteError(w, "Invalid request payload", http.StatusBadRequest, "Malformed JSON")
		return
	}

	if loginReq.Email == "" || loginReq.Password == "" {
		pkg.WriteError(w, "Email and password are required", http.StatusBadRequest, "Missing required fields")
		return
	}
	if !ValidateEmail(loginReq.Email) {
		pkg.WriteError(w, "Please provide a valid email address", http.StatusBadRequest, "Invalid email format")
		return
	}

	user, err := handler.repo.GetByEmail(ctx, loginReq.Email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			log.Errorf("login, get user: %s", err)
			pkg.WriteError(w, "Internal server error", http.StatusInternalServerError, "Something went wrong during login")
			return
		}
		// same response as for a wrong password, to avoid leaking
		// which of the two cases occurred
		handler.logFailedLogin(r, loginReq.Email)
		pkg.WriteError(w, "Invalid email or password", http.StatusUnauthorized, "Authentication failed")
		return
	}

	if !pkg.CheckPasswordHash(loginReq.Password, user.PasswordHash) {
		handler.logFailedLogin(r, loginReq.Email)
		pkg.WriteError(w, "Invalid email or password", http.StatusUnauthorized, "Authentication failed")
		return
	}

	token, err := handler.tokens.IssueToken(ctx, user.ID)
	if err != nil {
		log.Errorf("login, issue token for user %d: %s", user.ID, err)
		pkg.WriteError(w, "Internal server error", http.StatusInternalServerError, "Something went wrong during login")
		return
	}

	handler.instr.CounterLogins.Inc()
	log.Tracef("user %d [%s] logged in", user.ID, user.Email)

	handler.setTokenCookie(w, token)
	pkg.WriteSuccess(w, "Login successful", http.StatusOK, map[string]any{
		"user":  user.Identity(),
		"token": token,
	})
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.logout")
	defer span.End()

	token := auth.TokenFromRequest(r)
	if token == "" {
		pkg.WriteError(w, "Access denied. No token provided.", http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := handler.tokens.Revoke(ctx, token); err != nil {
		log.Tracef("logout, revoke token: %s", err)
		pkg.WriteError(w, "Logout failed", http.StatusUnauthorized, "Invalid token")
		return
	}

	handler.clearTokenCookie(w)
	pkg.WriteSuccess(w, "Logout successful", http.StatusOK, map[string]any{
		"message": "User logged out successfully",
	})
}

func (handler *Handler) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.verifyToken")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteError(w, "Access denied. No token provided.", http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := handler.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			pkg.WriteError(w, "Invalid token. User not found.", http.StatusUnauthorized, "Authentication failed")
			return
		}
		log.Errorf("verify token, get user %d: %s", userID, err)
		pkg.WriteError(w, "Internal server error", http.StatusInternalServerError, "Something went wrong during verification")
		return
	}

	pkg.WriteSuccess(w, "Token verified successfully", http.StatusOK, map[string]any{
		"user": user.Identity(),
	})
}

func (handler *Handler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   handler.tokenMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (handler *Handler) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (handler *Handler) logFailedLogin(r *http.Request, email string) {
	reqIP, err := pkg.ReadUserIP(r)
	if err != nil {
		reqIP = "unknown"
	}
	log.Tracef("failed login attempt for [%s] from %s", email, reqIP)
}
