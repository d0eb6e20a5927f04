package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/taogeht/reading-practice-app-sub000/internal/auth"
	"github.com/taogeht/reading-practice-app-sub000/internal/logging"
	"github.com/taogeht/reading-practice-app-sub000/internal/model"
	"github.com/taogeht/reading-practice-app-sub000/internal/repository"
	"github.com/taogeht/reading-practice-app-sub000/internal/visual"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User identitySummary `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	session, identity, err := s.sessions.LoginWithPassword(r.Context(), req.Email, req.Password, clientIP(r), r.UserAgent())
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			loginFailureTotal.WithLabelValues("password").Inc()
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		logging.Errorf("credential login failed", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	loginSuccessTotal.WithLabelValues("password").Inc()
	s.setSessionCookie(w, session.Token, s.cfg.SessionTTL)
	writeJSON(w, http.StatusOK, loginResponse{User: mapIdentity(identity)})
}

type studentChallengeRequest struct {
	StudentID string `json:"studentId"`
}

type studentChallengeResponse struct {
	ChallengeID  string          `json:"challengeId"`
	PasswordType string          `json:"passwordType"`
	Options      []visual.Option `json:"options"`
}

// loadLoginStudent fetches a student eligible for visual-password login and
// the parsed spec. Ineligible and unknown students are indistinguishable.
func (s *Server) loadLoginStudent(w http.ResponseWriter, r *http.Request, studentID string) (model.User, visual.Spec, bool) {
	user, err := s.store.GetUserByID(r.Context(), studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return model.User{}, visual.Spec{}, false
		}
		logging.Errorf("student lookup failed", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return model.User{}, visual.Spec{}, false
	}
	if user.Role != model.RoleStudent || !user.Active || user.VisualPassword == nil {
		writeError(w, http.StatusNotFound, "student_not_found")
		return model.User{}, visual.Spec{}, false
	}

	spec, err := visual.ParseSpec(user.VisualPassword)
	if err != nil {
		logging.Errorf("stored visual password invalid", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return model.User{}, visual.Spec{}, false
	}
	return user, spec, true
}

func (s *Server) handleStudentChallenge(w http.ResponseWriter, r *http.Request) {
	var req studentChallengeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	if req.StudentID == "" {
		writeError(w, http.StatusBadRequest, "missing_student_id")
		return
	}

	_, spec, ok := s.loadLoginStudent(w, r, req.StudentID)
	if !ok {
		return
	}

	challengeID, err := s.tracker.Begin(r.Context(), req.StudentID)
	if err != nil {
		logging.Errorf("challenge create failed", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, studentChallengeResponse{
		ChallengeID:  challengeID,
		PasswordType: string(spec.Type),
		Options:      visual.Options(spec.Type),
	})
}

type studentLoginRequest struct {
	StudentID   string `json:"studentId"`
	ChallengeID string `json:"challengeId"`
	Selection   string `json:"selection"`
}

type studentRetryResponse struct {
	Error             string `json:"error"`
	AttemptsRemaining int    `json:"attemptsRemaining"`
}

func (s *Server) handleStudentLogin(w http.ResponseWriter, r *http.Request) {
	var req studentLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.ChallengeID = strings.TrimSpace(req.ChallengeID)
	if req.StudentID == "" || req.ChallengeID == "" || req.Selection == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	user, spec, ok := s.loadLoginStudent(w, r, req.StudentID)
	if !ok {
		return
	}

	result, err := s.tracker.Guess(r.Context(), req.ChallengeID, req.StudentID, visual.Matches(spec, req.Selection))
	if err != nil {
		if errors.Is(err, auth.ErrChallengeNotFound) {
			writeError(w, http.StatusBadRequest, "challenge_not_found")
			return
		}
		logging.Errorf("challenge guess failed", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	switch result.Outcome {
	case auth.GuessLocked:
		loginFailureTotal.WithLabelValues("visual").Inc()
		lockoutTotal.Inc()
		writeError(w, http.StatusUnauthorized, "locked_out")
		return
	case auth.GuessRetry:
		loginFailureTotal.WithLabelValues("visual").Inc()
		writeJSON(w, http.StatusUnauthorized, studentRetryResponse{
			Error:             "incorrect_selection",
			AttemptsRemaining: result.AttemptsRemaining,
		})
		return
	}

	session, err := s.sessions.Create(r.Context(), user.ID, clientIP(r), r.UserAgent())
	if err != nil {
		logging.Errorf("session create failed", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	loginSuccessTotal.WithLabelValues("visual").Inc()
	s.setSessionCookie(w, session.Token, s.cfg.SessionTTL)
	writeJSON(w, http.StatusOK, loginResponse{User: identitySummary{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role.String(),
	}})
}

// handleLogout always succeeds, including when no session existed.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := s.sessions.Delete(r.Context(), cookie.Value); err != nil {
			logging.Errorf("logout delete failed", err)
		}
	}
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, mapIdentity(identity))
}
