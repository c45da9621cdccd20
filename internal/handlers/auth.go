package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/wememory/backend/internal/auth"
	"github.com/wememory/backend/internal/logging"
	"github.com/wememory/backend/internal/models"
)

// AuthHandler implements the session endpoints.
type AuthHandler struct {
	Sessions SessionService
	Limiter  RateLimiter
}

// Login handles POST /api/v1/auth/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session service unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "authentication services unavailable"})
		return
	}

	if !allowRequest(h.Limiter, r, "login") {
		logger.Warn("login rate limited")
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many attempts, slow down"})
		return
	}

	credentials, err := decodeCredentials(r)
	if err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	user, tokens, err := h.Sessions.SignIn(ctx, credentials)
	if err != nil {
		status, message := authErrorStatus(err)
		logger.Warn("login failed", "error", err, "status", status)
		respondJSON(ctx, w, status, map[string]string{"error": message})
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{User: user, Tokens: tokens})
}

// SignUp handles POST /api/v1/auth/signup requests.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session service unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "authentication services unavailable"})
		return
	}

	if !allowRequest(h.Limiter, r, "signup") {
		logger.Warn("signup rate limited")
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many attempts, slow down"})
		return
	}

	credentials, err := decodeCredentials(r)
	if err != nil {
		logger.Warn("invalid signup payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	user, tokens, err := h.Sessions.SignUp(ctx, credentials)
	if err != nil {
		status, message := authErrorStatus(err)
		logger.Warn("signup failed", "error", err, "status", status)
		respondJSON(ctx, w, status, map[string]string{"error": message})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, authResponse{User: user, Tokens: tokens})
}

// Logout handles POST /api/v1/auth/logout requests.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session service unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "authentication services unavailable"})
		return
	}

	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid logout payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.Sessions.SignOut(ctx, bearerToken(r), strings.TrimSpace(req.RefreshToken)); err != nil {
		logger.Error("logout failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to sign out"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "signed out"})
}

// Refresh exchanges a refresh token for a new session.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session service unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "session service unavailable"})
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid refresh payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		logger.Warn("missing refresh token")
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "refresh token is required"})
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrRefreshTokenExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			status = http.StatusUnauthorized
		}
		logger.Error("refresh failed", "error", err, "status", status)
		respondJSON(ctx, w, status, map[string]string{"error": "unable to refresh session"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{Tokens: tokens})
}

// Me handles GET /api/v1/auth/me requests. An absent or invalid session is
// reported as a null user, not an error.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if h.Sessions == nil {
		logging.FromContext(ctx).Error("session service unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "session service unavailable"})
		return
	}

	user := h.Sessions.CurrentUser(ctx, bearerToken(r))
	respondJSON(ctx, w, http.StatusOK, meResponse{User: user})
}

// decodeCredentials reads a credential payload and builds the tagged variant.
// Email and wallet shapes are mutually exclusive; email wins when both appear.
func decodeCredentials(r *http.Request) (models.Credentials, error) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.New("invalid request body")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.WalletAddress = strings.TrimSpace(req.WalletAddress)

	switch {
	case req.Email != "" || req.Password != "":
		if req.Email == "" || req.Password == "" {
			return nil, errors.New("email and password are required")
		}
		return models.EmailCredentials{Email: req.Email, Password: req.Password}, nil
	case req.WalletAddress != "":
		return models.WalletCredentials{WalletAddress: req.WalletAddress, Signature: req.Signature}, nil
	default:
		return nil, errors.New("credentials are required")
	}
}

func authErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, "account already exists"
	case errors.Is(err, auth.ErrInvalidSignUp):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrWalletAuthNotImplemented):
		return http.StatusNotImplemented, "wallet-based auth not implemented"
	default:
		return http.StatusInternalServerError, "authentication failed"
	}
}

type credentialsRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	WalletAddress string `json:"walletAddress"`
	Signature     string `json:"signature"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	User   models.AuthUser      `json:"user"`
	Tokens models.SessionTokens `json:"tokens"`
}

type meResponse struct {
	User *models.AuthUser `json:"user"`
}
