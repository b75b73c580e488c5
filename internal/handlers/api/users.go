package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ateliercms/api/internal/auth"
	"github.com/ateliercms/api/internal/middleware"
	"github.com/ateliercms/api/internal/models"
	"github.com/ateliercms/api/internal/services/user"
)

// UserHandler holds dependencies for account endpoints.
type UserHandler struct {
	users  *user.Service
	logger *slog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users *user.Service, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, logger: logger}
}

// RegisterRoutes registers account routes. login takes the stricter rate
// limiter; account administration sits behind the admin guard.
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authed, admin, loginLimit func(http.Handler) http.Handler) {
	mux.Handle("POST /api/v1/users/register", loginLimit(http.HandlerFunc(h.Register)))
	mux.Handle("POST /api/v1/users/login", loginLimit(http.HandlerFunc(h.Login)))
	mux.Handle("GET /api/v1/users/me", authed(http.HandlerFunc(h.Me)))
	mux.Handle("GET /api/v1/users", admin(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/v1/users/{id}", admin(http.HandlerFunc(h.Get)))
	mux.Handle("PATCH /api/v1/users/{id}", admin(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/v1/users/{id}", admin(http.HandlerFunc(h.Delete)))
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	IsAdmin  *bool   `json:"isAdmin"`
}

// Register handles POST /api/v1/users/register.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	u, err := h.users.Register(r.Context(), user.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if errors.Is(err, user.ErrEmailTaken) {
		writeError(w, http.StatusConflict, "Email already exists")
		return
	}
	if err != nil {
		h.logger.Error("failed to register user", "error", err)
		writeError(w, http.StatusInternalServerError, "An error occurred during registration")
		return
	}
	writeSuccess(w, http.StatusCreated, "User registered successfully", u)
}

// Login handles POST /api/v1/users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	u, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.logger.Error("failed to log in user", "error", err)
		writeError(w, http.StatusInternalServerError, "An error occurred during login")
		return
	}
	writeSuccess(w, http.StatusOK, "Login successful!", loginResponse{Token: token, User: u})
}

// Me handles GET /api/v1/users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	u, err := h.users.Get(r.Context(), id)
	if errors.Is(err, user.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch profile", "error", err, "user_id", id)
		writeError(w, http.StatusInternalServerError, "Error fetching profile")
		return
	}
	writeSuccess(w, http.StatusOK, "User profile fetched successfully", u)
}

type userListResponse struct {
	Count int           `json:"count"`
	Users []models.User `json:"users"`
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		writeError(w, http.StatusInternalServerError, "Error fetching users")
		return
	}
	writeSuccess(w, http.StatusOK, "Users fetched successfully.", userListResponse{
		Count: len(users),
		Users: users,
	})
}

// Get handles GET /api/v1/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	u, err := h.users.Get(r.Context(), id)
	if errors.Is(err, user.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch user", "error", err, "user_id", id)
		writeError(w, http.StatusInternalServerError, "Error fetching user")
		return
	}
	writeSuccess(w, http.StatusOK, "User fetched successfully.", u)
}

// Update handles PATCH /api/v1/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.users.Update(r.Context(), id, user.UpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
	})
	switch {
	case errors.Is(err, user.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, user.ErrEmailTaken):
		writeError(w, http.StatusConflict, "Email already exists")
		return
	case err != nil:
		h.logger.Error("failed to update user", "error", err, "user_id", id)
		writeError(w, http.StatusInternalServerError, "Error updating user")
		return
	}
	writeSuccess(w, http.StatusOK, "User updated successfully", u)
}

// Delete handles DELETE /api/v1/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	u, err := h.users.Delete(r.Context(), id)
	if errors.Is(err, user.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete user", "error", err, "user_id", id)
		writeError(w, http.StatusInternalServerError, "Error deleting user")
		return
	}
	writeSuccess(w, http.StatusOK, "User deleted successfully", u)
}
