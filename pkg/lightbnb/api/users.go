package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/lightbnb/lightbnb/internal/metrics"
	"github.com/lightbnb/lightbnb/pkg/lightbnb"
	"github.com/rs/zerolog/log"
)

// RegisterRequest is the body of POST /users
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=3,max=72"`
}

// LoginRequest is the body of POST /users/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned after registration and login. The token is also
// set as the jwt cookie.
type AuthResponse struct {
	User  *lightbnb.User `json:"user"`
	Token string         `json:"token"`
}

// UserResponse wraps a single user
type UserResponse struct {
	User *lightbnb.User `json:"user"`
}

// RegisterUser handles POST /users
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.RegisterUser(r.Context(), lightbnb.RegisterUserRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, user)
}

// Login handles POST /users/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, lightbnb.ErrInvalidCredentials) {
			metrics.RecordLogin("invalid")
		} else {
			metrics.RecordLogin("error")
		}
		writeError(w, r, err)
		return
	}

	metrics.RecordLogin("success")
	log.Ctx(r.Context()).Info().Int64("user_id", user.ID).Msg("user logged in")
	h.respondWithToken(w, r, http.StatusOK, user)
}

// Logout handles POST /users/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearTokenCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /users/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.GetUserWithID(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, UserResponse{User: user})
}

func (h *Handler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *lightbnb.User) {
	token, err := h.auth.Issue(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setTokenCookie(w, token)
	render.Status(r, status)
	render.JSON(w, r, AuthResponse{User: user, Token: token})
}
