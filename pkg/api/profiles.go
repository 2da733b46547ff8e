package api

import (
	"net/http"

	"github.com/ringsidehq/ringside/pkg/auth"
)

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	profile, err := h.profiles.Get(r.Context(), profileID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

type assignClubRequest struct {
	ClubID int64 `json:"club_id"`
}

func (h *Handler) assignClub(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var body assignClubRequest
	if !h.decode(w, r, &body) {
		return
	}

	if err := h.profiles.AssignClub(r.Context(), profileID, body.ClubID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) clearClub(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if err := h.profiles.ClearClub(r.Context(), profileID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

type setClubOwnerRequest struct {
	OwnerID int64     `json:"owner_id"`
	Role    auth.Role `json:"role"`
}

func (h *Handler) setClubOwner(w http.ResponseWriter, r *http.Request) {
	clubID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var body setClubOwnerRequest
	if !h.decode(w, r, &body) {
		return
	}

	owner := auth.Actor{ID: body.OwnerID, Role: body.Role}
	if err := h.profiles.SetClubOwner(r.Context(), clubID, owner); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

type upsertCoachLinkRequest struct {
	Scope auth.LinkScope `json:"scope"`
}

func (h *Handler) upsertCoachLink(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	coachID, err := pathID(r, "coachID")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var body upsertCoachLinkRequest
	if !h.decode(w, r, &body) {
		return
	}

	if err := h.profiles.UpsertCoachLink(r.Context(), coachID, profileID, body.Scope); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) removeCoachLink(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	coachID, err := pathID(r, "coachID")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if err := h.profiles.RemoveCoachLink(r.Context(), coachID, profileID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

type setAcceptingMatchesRequest struct {
	AcceptingMatches bool `json:"accepting_matches"`
}

func (h *Handler) setAcceptingMatches(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var body setAcceptingMatchesRequest
	if !h.decode(w, r, &body) {
		return
	}

	if err := h.profiles.SetAcceptingMatches(r.Context(), profileID, body.AcceptingMatches); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) getProfileRecord(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "id")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	count, err := h.matches.CountAcceptedForProfile(r.Context(), profileID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"accepted_matches": count})
}
