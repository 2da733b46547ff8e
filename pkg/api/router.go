package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ringsidehq/ringside/pkg/auth"
	"github.com/ringsidehq/ringside/pkg/authz"
	"github.com/ringsidehq/ringside/pkg/middleware"
	"github.com/ringsidehq/ringside/pkg/observability"
)

// HealthFunc checks the backing stores; a non-nil error marks the service
// unhealthy.
type HealthFunc func(r *http.Request) error

// Router assembles the HTTP surface: health and metrics outside the identity
// boundary, everything else behind request-ID, identity, and per-route
// permission gates.
func (h *Handler) Router(evaluator *authz.Evaluator, logger *observability.Logger, registry *prometheus.Registry, health HealthFunc) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(req); err != nil {
				h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	if registry != nil {
		r.Handle("/metrics", observability.Handler(registry)).Methods(http.MethodGet)
	}

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(middleware.RequestID(logger))
	v1.Use(middleware.Identity())

	matchRequestRef := func(req *http.Request) *authz.ResourceRef {
		id, err := pathID(req, "id")
		if err != nil {
			return nil
		}
		return &authz.ResourceRef{Kind: authz.KindMatchRequest, ID: id}
	}
	profileRef := func(req *http.Request) *authz.ResourceRef {
		id, err := pathID(req, "id")
		if err != nil {
			return nil
		}
		return &authz.ResourceRef{Kind: authz.KindProfile, ID: id}
	}
	clubRef := func(req *http.Request) *authz.ResourceRef {
		id, err := pathID(req, "id")
		if err != nil {
			return nil
		}
		return &authz.ResourceRef{Kind: authz.KindClub, ID: id}
	}

	gate := func(perm auth.Permission, refFn middleware.ResourceRefFunc, fn http.HandlerFunc) http.Handler {
		return middleware.RequirePermission(evaluator, perm, refFn)(fn)
	}
	gateAny := func(perms []auth.Permission, refFn middleware.ResourceRefFunc, fn http.HandlerFunc) http.Handler {
		return middleware.RequireAnyPermission(evaluator, perms, refFn)(fn)
	}

	// Connections. The services re-check which side of the request the
	// actor is on; the gates here are token-level.
	v1.Handle("/connection-requests",
		gate(auth.PermConnectionRequestCreate, nil, h.sendConnectionRequest)).Methods(http.MethodPost)
	v1.Handle("/connection-requests/{id}/accept",
		gate(auth.PermConnectionRequestRespond, nil, h.acceptConnectionRequest)).Methods(http.MethodPost)
	v1.Handle("/connection-requests/{id}/decline",
		gate(auth.PermConnectionRequestRespond, nil, h.declineConnectionRequest)).Methods(http.MethodPost)
	v1.Handle("/connection-requests/{id}/cancel",
		gate(auth.PermConnectionRequestRespond, nil, h.cancelConnectionRequest)).Methods(http.MethodPost)
	v1.Handle("/connections/status/{id}",
		gate(auth.PermConnectionReadOwn, nil, h.connectionStatus)).Methods(http.MethodGet)
	v1.Handle("/connections/{id}",
		gate(auth.PermConnectionReadOwn, nil, h.disconnect)).Methods(http.MethodDelete)

	// Match requests.
	v1.Handle("/match-requests",
		gate(auth.PermMatchRequestCreate, nil, h.createMatchRequest)).Methods(http.MethodPost)
	v1.Handle("/match-requests/{id}",
		gateAny([]auth.Permission{auth.PermMatchRequestReadOwn, auth.PermMatchRequestReadLinked},
			matchRequestRef, h.getMatchRequest)).Methods(http.MethodGet)
	v1.Handle("/match-requests/{id}/accept",
		gate(auth.PermMatchRequestRespond, matchRequestRef, h.acceptMatchRequest)).Methods(http.MethodPost)
	v1.Handle("/match-requests/{id}/decline",
		gate(auth.PermMatchRequestRespond, matchRequestRef, h.declineMatchRequest)).Methods(http.MethodPost)
	v1.Handle("/match-requests/{id}/cancel",
		gate(auth.PermMatchRequestRespond, matchRequestRef, h.cancelMatchRequest)).Methods(http.MethodPost)

	// Profiles and the facts the resolvers read.
	v1.Handle("/profiles/{id}",
		gate(auth.PermProfileReadAny, profileRef, h.getProfile)).Methods(http.MethodGet)
	v1.Handle("/profiles/{id}/record",
		gate(auth.PermProfileReadAny, profileRef, h.getProfileRecord)).Methods(http.MethodGet)
	v1.Handle("/profiles/{id}/accepting-matches",
		gate(auth.PermProfileUpdateOwn, profileRef, h.setAcceptingMatches)).Methods(http.MethodPut)
	v1.Handle("/profiles/{id}/club",
		gate(auth.PermClubMembersManage, nil, h.assignClub)).Methods(http.MethodPut)
	v1.Handle("/profiles/{id}/club",
		gate(auth.PermClubMembersManage, nil, h.clearClub)).Methods(http.MethodDelete)
	v1.Handle("/profiles/{id}/coach-links/{coachID}",
		gate(auth.PermProfileUpdateLinked, profileRef, h.upsertCoachLink)).Methods(http.MethodPut)
	v1.Handle("/profiles/{id}/coach-links/{coachID}",
		gate(auth.PermProfileUpdateLinked, profileRef, h.removeCoachLink)).Methods(http.MethodDelete)
	v1.Handle("/clubs/{id}/owner",
		gate(auth.PermClubOwnerAssign, clubRef, h.setClubOwner)).Methods(http.MethodPut)

	return r
}
