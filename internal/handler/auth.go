package handler

import (
	"context"
	"net/http"

	"github.com/booktrack/booktrack-go/internal/model"
)

// AuthService is the auth behaviour the HTTP layer depends on.
type AuthService interface {
	Register(ctx context.Context, req model.CreateUserRequest) (model.AuthResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error)
	GetPublicProfile(ctx context.Context, userID string) (model.UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) (model.UserResponse, error)
}

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	errorWriter
	service AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc AuthService, dev bool) *AuthHandler {
	return &AuthHandler{errorWriter: errorWriter{dev: dev}, service: svc}
}

type userData struct {
	User model.UserResponse `json:"user"`
}

// HandleSignup handles POST /api/auth/signup requests.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ok(w, http.StatusCreated, "User registered successfully", resp)
}

// HandleLogin handles POST /api/auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ok(w, http.StatusOK, "Login successful", resp)
}

// HandleMe handles GET /api/auth/me requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, found := currentUser(w, r)
	if !found {
		return
	}

	user, err := h.service.GetPublicProfile(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ok(w, http.StatusOK, "", userData{User: user})
}

// HandleUpdateMe handles PUT /api/auth/me requests.
func (h *AuthHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, found := currentUser(w, r)
	if !found {
		return
	}

	var req model.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ok(w, http.StatusOK, "Profile updated successfully", userData{User: user})
}

// HandleLogout handles POST /api/auth/logout requests. Tokens are stateless,
// so the client discards its own copy.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, "Logged out successfully", nil)
}
