package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"agiletrack/apperr"
	"agiletrack/middleware"
	"agiletrack/models"
)

type updateBoardRequest struct {
	BoardID int `json:"boardId"`
	Board   struct {
		Columns []models.Column `json:"columns"`
		Tasks   []models.Task   `json:"tasks"`
	} `json:"board"`
	// nil means "leave the title alone"
	BoardTitle *string `json:"boardTitle"`
}

type shareBoardRequest struct {
	BoardID      int    `json:"board_id"`
	InviteeEmail string `json:"invitee_email"`
}

// GetBoards lists the caller's boards, split into owned and shared.
func (h *Handlers) GetBoards(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		h.respondMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	owned, shared, err := h.access.ListBoards(r.Context(), user.ID)
	if err != nil {
		h.respondInternal(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"owned_boards":  owned,
		"shared_boards": shared,
	})
}

// UpdateBoard replaces a board's columns and tasks; the title is touched only
// when boardTitle is present in the request.
func (h *Handlers) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		h.respondMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var req updateBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BoardID == 0 {
		h.respondMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	err := h.access.UpdateBoard(r.Context(), user.ID, req.BoardID, req.Board.Columns, req.Board.Tasks, req.BoardTitle)
	switch {
	case errors.Is(err, apperr.ErrBoardNotFound):
		h.respondMessage(w, http.StatusNotFound, "Board not found")
	case errors.Is(err, apperr.ErrForbidden):
		h.respondMessage(w, http.StatusForbidden, "You do not have access to this board")
	case err != nil:
		h.respondInternal(w, err)
	default:
		h.respondMessage(w, http.StatusOK, "Board updated successfully")
	}
}

// AddBoard creates a fresh default board owned by the caller.
func (h *Handlers) AddBoard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		h.respondMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	if _, err := h.access.AddBoard(r.Context(), user.ID); err != nil {
		h.respondInternal(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, "Board added successfully")
}

// ShareBoard grants another user access to a board and emails them an
// invitation. The grant is committed even when the email fails; the response
// says which happened.
func (h *Handlers) ShareBoard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		h.respondMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var req shareBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BoardID == 0 || req.InviteeEmail == "" {
		h.respondMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	result, err := h.access.Share(r.Context(), user, req.BoardID, req.InviteeEmail)
	switch {
	case errors.Is(err, apperr.ErrBoardNotFound):
		h.respondMessage(w, http.StatusNotFound, "Board not found")
		return
	case errors.Is(err, apperr.ErrUserNotFound):
		h.respondMessage(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, apperr.ErrAlreadyShared):
		h.respondMessage(w, http.StatusBadRequest, "Board is already shared with this user")
		return
	case errors.Is(err, apperr.ErrForbidden):
		h.respondMessage(w, http.StatusForbidden, "You do not have access to this board")
		return
	case err != nil:
		h.respondInternal(w, err)
		return
	}

	body := map[string]any{
		"message":    "Board shared successfully",
		"email_sent": result.EmailSent,
	}
	if result.EmailError != nil {
		body["email_error"] = "failed to send invitation email"
	}
	h.respondJSON(w, http.StatusOK, body)
}
