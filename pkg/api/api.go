package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ringsidehq/ringside/pkg/authz"
	"github.com/ringsidehq/ringside/pkg/connections"
	"github.com/ringsidehq/ringside/pkg/errdefs"
	"github.com/ringsidehq/ringside/pkg/matches"
	"github.com/ringsidehq/ringside/pkg/profiles"
)

// Handler serves the relationship and profile-fact endpoints. Authorization
// checks run in middleware before these handlers; the services still
// re-validate state transitions and actor roles on their own.
type Handler struct {
	logger      *logrus.Logger
	connections *connections.Service
	matches     *matches.Service
	profiles    *profiles.Service
	evaluator   *authz.Evaluator
}

// NewHandler creates the API handler.
func NewHandler(logger *logrus.Logger, conns *connections.Service, matchSvc *matches.Service, profileSvc *profiles.Service, evaluator *authz.Evaluator) *Handler {
	return &Handler{
		logger:      logger,
		connections: conns,
		matches:     matchSvc,
		profiles:    profileSvc,
		evaluator:   evaluator,
	}
}

// pathID parses the named mux variable as an int64.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, errdefs.Invalidf("invalid %s", name)
	}
	return id, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			h.logger.WithError(err).Error("failed to encode response")
		}
	}
}

// writeServiceError maps the error taxonomy onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errdefs.IsInvalid(err):
		status = http.StatusBadRequest
	case errdefs.IsNotFound(err):
		status = http.StatusNotFound
	case errdefs.IsConflict(err):
		status = http.StatusConflict
	case errdefs.IsPermissionDenied(err):
		status = http.StatusForbidden
	}

	entry := h.logger.WithError(err).WithField("path", r.URL.Path)
	if status == http.StatusInternalServerError {
		entry.Error("request failed")
		h.writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	entry.Debug("request rejected")
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}
