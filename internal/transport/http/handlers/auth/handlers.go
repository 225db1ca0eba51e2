package authhandler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"hrms/internal/domain/auth"
	"hrms/internal/domain/employees"
	"hrms/internal/platform/cache"
	"hrms/internal/platform/config"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Store     *auth.Store
	Employees *employees.Store
	Cache     *cache.Cache
	Config    *config.Config
}

func NewHandler(store *auth.Store, empStore *employees.Store, c *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{Store: store, Employees: empStore, Cache: c, Config: cfg}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *auth.User `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	login := strings.TrimSpace(payload.Login)
	if login == "" || payload.Password == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "login and password are required", requestID)
		return
	}

	attempts, err := h.Cache.CountLoginAttempt(r.Context(), login, time.Minute)
	if err == nil && h.Config.Limits.LoginPerMinute > 0 && attempts > int64(h.Config.Limits.LoginPerMinute) {
		api.Fail(w, http.StatusTooManyRequests, "too_many_attempts", "too many login attempts, slow down", requestID)
		return
	}

	user, err := h.Store.FindActiveUser(r.Context(), login)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}

	token, err := auth.IssueToken(h.Config.JWT.Secret, user, time.Duration(h.Config.JWT.Expiration)*time.Second)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}
	expires := time.Now().Add(time.Duration(h.Config.JWT.Expiration) * time.Second)
	if err := h.Store.CreateSession(r.Context(), user.ID, auth.TokenHash(token), expires); err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to start session", requestID)
		return
	}
	_ = h.Store.UpdateLastLogin(r.Context(), user.ID)
	h.Cache.ResetLoginAttempts(r.Context(), login)

	api.Success(w, loginResponse{Token: token, ExpiresAt: expires, User: user})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "bearer token required", requestID)
		return
	}
	if err := h.Store.RevokeSession(r.Context(), user.UserID, auth.TokenHash(parts[1])); err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to revoke session", requestID)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	record, err := h.Store.GetUser(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var employee *employees.Employee
	if user.EmployeeID != "" {
		if emp, err := h.Employees.GetEmployee(r.Context(), user.EmployeeID, true); err == nil {
			employee = emp
		}
	}

	api.Success(w, map[string]any{
		"user":     record,
		"employee": employee,
	})
}
