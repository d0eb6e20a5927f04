package http

import (
	"context"
	"net/http"

	"github.com/taogeht/reading-practice-app-sub000/internal/auth"
	"github.com/taogeht/reading-practice-app-sub000/internal/logging"
	"github.com/taogeht/reading-practice-app-sub000/internal/model"
)

type identityKey struct{}

func identityFromContext(ctx context.Context) *auth.Identity {
	value := ctx.Value(identityKey{})
	identity, _ := value.(*auth.Identity)
	return identity
}

// withIdentity resolves the session cookie once per request and attaches the
// identity, or nil, to the request context. It never rejects by itself;
// requireRoles decides per route.
func (s *Server) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := s.sessions.Resolve(r.Context(), cookie.Value)
		if err != nil {
			if !auth.IsUnauthenticated(err) {
				logging.Errorf("session resolve failed", err)
				writeError(w, http.StatusInternalServerError, "server_error")
				return
			}
			// Expired, unknown, or orphaned: continue unauthenticated.
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRoles gates a route on the authorization guard. Both deny reasons
// surface as 401 unless AUTHZ_SPLIT_FORBIDDEN switches role mismatch to 403.
func (s *Server) requireRoles(required ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := auth.Authorize(identityFromContext(r.Context()), required...)
			if !decision.Allowed {
				s.writeDeny(w, decision.Reason)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeDeny(w http.ResponseWriter, reason auth.DenyReason) {
	if reason == auth.DenyForbidden && s.cfg.AuthzSplitForbidden {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	writeError(w, http.StatusUnauthorized, "unauthorized")
}
