package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/ringsidehq/ringside/pkg/auth"
	"github.com/ringsidehq/ringside/pkg/authz"
	"github.com/ringsidehq/ringside/pkg/observability"
)

// RequestID tags every request with an ID (honoring an inbound X-Request-ID)
// and attaches the logger to the request context so downstream handlers log
// with the ID included.
func RequestID(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := observability.WithRequestID(r.Context(), requestID)
			ctx = observability.WithLogger(ctx, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Identity resolves the acting identity from trusted headers set by the
// authentication edge (out of scope here) and puts it on the context.
// Requests without a valid identity are rejected.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(r.Header.Get("X-Identity-ID"), 10, 64)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "missing or invalid identity")
				return
			}
			role := auth.Role(r.Header.Get("X-Identity-Role"))
			if !role.Valid() {
				writeError(w, http.StatusUnauthorized, "missing or invalid role")
				return
			}

			actor := auth.Actor{ID: id, Role: role}
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

// ResourceRefFunc derives the resource reference an authorization check
// targets from the request, or nil for checks with no resource gate.
type ResourceRefFunc func(r *http.Request) *authz.ResourceRef

// RequirePermission gates a handler on the evaluator's decision for a single
// permission token. Denials become 403 responses carrying the evaluator's
// reason.
func RequirePermission(evaluator *authz.Evaluator, perm auth.Permission, refFn ResourceRefFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := auth.ActorFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "no acting identity on request")
				return
			}

			var ref *authz.ResourceRef
			if refFn != nil {
				ref = refFn(r)
			}

			decision, err := evaluator.Evaluate(r.Context(), actor, perm, ref)
			if err != nil {
				observability.FromContext(r.Context()).WithError(err).Error("authorization check failed")
				writeError(w, http.StatusInternalServerError, "authorization check failed")
				return
			}
			if !decision.Allowed {
				writeDenied(w, decision.Reason)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyPermission gates a handler on at least one of the permission
// tokens being satisfied.
func RequireAnyPermission(evaluator *authz.Evaluator, perms []auth.Permission, refFn ResourceRefFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := auth.ActorFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "no acting identity on request")
				return
			}

			var ref *authz.ResourceRef
			if refFn != nil {
				ref = refFn(r)
			}

			decision, err := evaluator.HasAnyPermission(r.Context(), actor, perms, ref)
			if err != nil {
				observability.FromContext(r.Context()).WithError(err).Error("authorization check failed")
				writeError(w, http.StatusInternalServerError, "authorization check failed")
				return
			}
			if !decision.Allowed {
				writeDenied(w, decision.Reason)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeDenied(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]string{
		"error":  "forbidden",
		"reason": reason,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
