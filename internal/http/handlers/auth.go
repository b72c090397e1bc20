package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/smartcard/internal/auth"
	"github.com/hongminglow/smartcard/internal/http/respond"
	"github.com/hongminglow/smartcard/internal/models"
	"github.com/hongminglow/smartcard/internal/models/dto"
	"github.com/hongminglow/smartcard/internal/ratelimit"
	"github.com/hongminglow/smartcard/internal/storage"
)

// AuthHandler owns register/login/logout endpoints backed by Postgres.
type AuthHandler struct {
	store       storage.UserStore
	tokens      *auth.TokenManager
	guard       Guard
	authLimiter *ratelimit.Limiter
	limiter     *ratelimit.Limiter
}

// NewAuthHandler constructs the handler. authLimiter guards register and
// login; limiter guards the signed-in routes.
func NewAuthHandler(store storage.UserStore, tokens *auth.TokenManager, authLimiter, limiter *ratelimit.Limiter) *AuthHandler {
	return &AuthHandler{
		store:       store,
		tokens:      tokens,
		guard:       NewGuard(tokens),
		authLimiter: authLimiter,
		limiter:     limiter,
	}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.Handle("POST /api/auth/register", h.guard.Public(h.authLimiter, h.handleRegister))
	mux.Handle("POST /api/auth/login", h.guard.Public(h.authLimiter, h.handleLogin))
	mux.Handle("POST /api/auth/logout", h.guard.Private(h.limiter, h.handleLogout))
	mux.Handle("GET /api/user/info", h.guard.Private(h.limiter, h.handleUserInfo))
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := validateRegistration(req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: passwordHash,
	}
	if _, err := h.store.CreateUser(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			respond.Error(w, http.StatusConflict, "Email already registered")
		default:
			log.Printf("create user error: %v", err)
			respond.Error(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	respond.Success(w, "Account created successfully")
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	user, err := h.store.FindByEmail(r.Context(), normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Printf("login failed: error fetching user %s: %v", req.Email, err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respond.Error(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	token, err := h.tokens.Generate(user)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	auth.SetSessionCookie(w, token, h.tokens.TTL())
	respond.Success(w, "Login successful")
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	respond.Success(w, "Logged out successfully")
}

func (h *AuthHandler) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.FindByID(r.Context(), identity(r).UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("user info: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	respond.JSON(w, http.StatusOK, dto.UserInfoResponse{
		Success:   true,
		Name:      user.Name,
		FirstName: user.FirstName(),
		Email:     user.Email,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(req dto.RegisterRequest) error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return errors.New("All fields are required")
	}
	if len(strings.TrimSpace(req.Password)) < 8 || !utf8.ValidString(req.Password) {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
