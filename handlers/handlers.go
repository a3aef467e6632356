package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"agiletrack/access"
	"agiletrack/store"
	"agiletrack/token"
)

// Handlers carries the dependencies the HTTP surface needs.
type Handlers struct {
	store  *store.Store
	access *access.Service
	tokens *token.Service
	log    *logrus.Logger
}

func New(st *store.Store, ac *access.Service, tokens *token.Service, log *logrus.Logger) *Handlers {
	return &Handlers{store: st, access: ac, tokens: tokens, log: log}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.WithError(err).Error("encoding response")
	}
}

func (h *Handlers) respondMessage(w http.ResponseWriter, code int, message string) {
	h.respondJSON(w, code, map[string]string{"message": message})
}

// respondInternal logs the real error and returns a generic body so driver
// internals never reach clients.
func (h *Handlers) respondInternal(w http.ResponseWriter, err error) {
	h.log.WithError(err).Error("internal error")
	h.respondMessage(w, http.StatusInternalServerError, "Internal server error")
}
