package api

import (
	"net/http"

	"github.com/ringsidehq/ringside/pkg/auth"
)

type sendConnectionRequest struct {
	TargetID int64  `json:"target_id"`
	Message  string `json:"message"`
}

func (h *Handler) sendConnectionRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var body sendConnectionRequest
	if !h.decode(w, r, &body) {
		return
	}

	request, err := h.connections.Send(r.Context(), actor.ID, body.TargetID, body.Message)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, request)
}

func (h *Handler) acceptConnectionRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	requestID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	conn, err := h.connections.Accept(r.Context(), requestID, actor.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, conn)
}

func (h *Handler) declineConnectionRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	requestID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if err := h.connections.Decline(r.Context(), requestID, actor.ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) cancelConnectionRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	requestID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if err := h.connections.Cancel(r.Context(), requestID, actor.ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) connectionStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	otherID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	status, err := h.connections.Status(r.Context(), actor.ID, otherID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (h *Handler) disconnect(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	connectionID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if err := h.connections.Disconnect(r.Context(), connectionID, actor.ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}
