package api

import (
	"net/http"
)

type createMatchRequest struct {
	RequesterProfileID int64 `json:"requester_profile_id"`
	TargetProfileID    int64 `json:"target_profile_id"`
}

func (h *Handler) createMatchRequest(w http.ResponseWriter, r *http.Request) {
	var body createMatchRequest
	if !h.decode(w, r, &body) {
		return
	}

	request, err := h.matches.Create(r.Context(), body.RequesterProfileID, body.TargetProfileID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, request)
}

type respondMatchRequest struct {
	ProfileID int64 `json:"profile_id"`
}

func (h *Handler) acceptMatchRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var body respondMatchRequest
	if !h.decode(w, r, &body) {
		return
	}

	if err := h.matches.Accept(r.Context(), requestID, body.ProfileID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	// Accepted bouts feed the profile's fight record downstream.
	count, err := h.matches.CountAcceptedForProfile(r.Context(), body.ProfileID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"accepted_matches": count})
}

func (h *Handler) declineMatchRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var body respondMatchRequest
	if !h.decode(w, r, &body) {
		return
	}

	if err := h.matches.Decline(r.Context(), requestID, body.ProfileID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) cancelMatchRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var body respondMatchRequest
	if !h.decode(w, r, &body) {
		return
	}

	if err := h.matches.Cancel(r.Context(), requestID, body.ProfileID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) getMatchRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	request, err := h.matches.Get(r.Context(), requestID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, request)
}
