package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"agiletrack/apperr"
	"agiletrack/middleware"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers a user, creates their default board and returns a session
// token alongside the confirmation.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		h.respondMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	user, err := h.store.CreateUser(r.Context(), req.Name, req.Email, req.Password)
	if errors.Is(err, apperr.ErrDuplicateEmail) {
		h.respondMessage(w, http.StatusBadRequest, "Email already exists")
		return
	}
	if err != nil {
		h.respondInternal(w, err)
		return
	}

	signed, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.respondInternal(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]string{
		"message": "User created successfully",
		"token":   signed,
	})
}

// Login checks credentials and returns a session token. Unknown email and wrong
// password are indistinguishable to the caller.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		h.respondMessage(w, http.StatusBadRequest, "Invalid email or password format")
		return
	}

	user, err := h.store.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, apperr.ErrInvalidCredentials) {
		h.respondMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		h.respondInternal(w, err)
		return
	}

	signed, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.respondInternal(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"token": signed})
}

// GetUserDetails returns the authenticated user's id and name.
func (h *Handlers) GetUserDetails(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		h.respondMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"id": user.ID, "name": user.Name})
}
