package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taogeht/reading-practice-app-sub000/internal/auth"
	"github.com/taogeht/reading-practice-app-sub000/internal/config"
	"github.com/taogeht/reading-practice-app-sub000/internal/model"
	"github.com/taogeht/reading-practice-app-sub000/internal/repository"
)

// Store is the persistence surface the HTTP layer consumes.
// *repository.Store satisfies it.
type Store interface {
	GetUserByID(ctx context.Context, userID string) (model.User, error)
	CreateUser(ctx context.Context, user model.User) error
	UpdateUser(ctx context.Context, userID string, update repository.UserUpdate) (model.User, error)
	SetVisualPassword(ctx context.Context, userID string, spec []byte) error
	ListStudentsByClass(ctx context.Context, classID string, limit int) ([]model.User, error)
	CreateClass(ctx context.Context, class model.Class) error
	GetClass(ctx context.Context, classID string) (model.Class, error)
}

type Server struct {
	cfg      config.Config
	store    Store
	sessions *auth.Sessions
	tracker  *auth.ChallengeTracker
}

func NewServer(cfg config.Config, store Store, sessions *auth.Sessions, tracker *auth.ChallengeTracker) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		tracker:  tracker,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/student/challenge", s.handleStudentChallenge)
	r.Post("/auth/student/login", s.handleStudentLogin)
	r.With(s.withIdentity).Post("/auth/logout", s.handleLogout)
	r.With(s.withIdentity, s.requireRoles(model.RoleStudent, model.RoleTeacher, model.RoleAdmin)).Get("/auth/me", s.handleGetMe)

	// The student picker lists a class roster before any session exists.
	r.Get("/classes/{classId}/roster", s.handleClassRoster)

	r.With(s.withIdentity, s.requireRoles(model.RoleAdmin)).Post("/users", s.handleCreateUser)
	r.With(s.withIdentity, s.requireRoles(model.RoleStudent, model.RoleTeacher, model.RoleAdmin)).Patch("/users/{userID}", s.handlePatchUser)

	r.With(s.withIdentity, s.requireRoles(model.RoleTeacher, model.RoleAdmin)).Post("/classes", s.handleCreateClass)
	r.With(s.withIdentity, s.requireRoles(model.RoleTeacher, model.RoleAdmin)).Post("/classes/{classId}/students", s.handleCreateStudent)
	r.With(s.withIdentity, s.requireRoles(model.RoleTeacher, model.RoleAdmin)).Put("/students/{studentID}/visual-password", s.handlePutVisualPassword)

	return r
}

type identitySummary struct {
	ID        string  `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Role      string  `json:"role"`
	Email     *string `json:"email,omitempty"`
}

func mapIdentity(identity *auth.Identity) identitySummary {
	return identitySummary{
		ID:        identity.UserID,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Role:      identity.Role.String(),
		Email:     identity.Email,
	}
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return ""
}
