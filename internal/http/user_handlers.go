package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taogeht/reading-practice-app-sub000/internal/auth"
	"github.com/taogeht/reading-practice-app-sub000/internal/crypto"
	"github.com/taogeht/reading-practice-app-sub000/internal/logging"
	"github.com/taogeht/reading-practice-app-sub000/internal/model"
	"github.com/taogeht/reading-practice-app-sub000/internal/repository"
	"github.com/taogeht/reading-practice-app-sub000/internal/visual"
)

type rosterEntry struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	PasswordType string `json:"passwordType,omitempty"`
}

// handleClassRoster is the unauthenticated student picker listing. It exposes
// only names and the password type, never the stored payload.
func (s *Server) handleClassRoster(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classId")
	if classID == "" {
		writeError(w, http.StatusBadRequest, "missing_class_id")
		return
	}

	if _, err := s.store.GetClass(r.Context(), classID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "class_not_found")
			return
		}
		logging.Errorf("class lookup failed", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	students, err := s.store.ListStudentsByClass(r.Context(), classID, 200)
	if err != nil {
		logging.Errorf("roster list failed", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]rosterEntry, 0, len(students))
	for _, student := range students {
		entry := rosterEntry{
			ID:        student.ID,
			FirstName: student.FirstName,
			LastName:  student.LastName,
		}
		if student.VisualPassword != nil {
			if spec, err := visual.ParseSpec(student.VisualPassword); err == nil {
				entry.PasswordType = string(spec.Type)
			}
		}
		resp = append(resp, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}

type createUserRequest struct {
	Email          string       `json:"email,omitempty"`
	Password       string       `json:"password,omitempty"`
	Role           string       `json:"role"`
	FirstName      string       `json:"firstName"`
	LastName       string       `json:"lastName"`
	ClassID        *string      `json:"classId,omitempty"`
	VisualPassword *visual.Spec `json:"visualPassword,omitempty"`
}

type userSummary struct {
	ID        string  `json:"id"`
	Email     *string `json:"email,omitempty"`
	Role      string  `json:"role"`
	Active    bool    `json:"active"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	ClassID   *string `json:"classId,omitempty"`
}

func mapUser(user model.User) userSummary {
	return userSummary{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role.String(),
		Active:    user.Active,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		ClassID:   user.ClassID,
	}
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	role, err := model.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_role")
		return
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.FirstName == "" || req.LastName == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	now := time.Now().UTC()
	user := model.User{
		ID:        uuid.NewString(),
		Role:      role,
		Active:    true,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ClassID:   req.ClassID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if role == model.RoleStudent {
		// Students authenticate with a visual password, never a secret string.
		if req.VisualPassword == nil {
			writeError(w, http.StatusBadRequest, "visual_password_required")
			return
		}
		raw, err := encodeVisualPassword(*req.VisualPassword)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_visual_password")
			return
		}
		user.VisualPassword = raw
	} else {
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "missing_credentials")
			return
		}
		hash, err := crypto.HashPassword(req.Password, s.cfg.BcryptCost)
		if err != nil {
			logging.Errorf("password hash failed", err)
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		user.Email = &req.Email
		user.PasswordHash = &hash
	}

	if err := s.store.CreateUser(r.Context(), user); err != nil {
		logging.Errorf("user create failed", err)
		writeError(w, http.StatusBadRequest, "user_create_failed")
		return
	}
	writeJSON(w, http.StatusCreated, mapUser(user))
}

type patchUserRequest struct {
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Active    *bool   `json:"active,omitempty"`
	ClassID   *string `json:"classId,omitempty"`
}

// handlePatchUser covers profile edits and the active toggle. Admins may edit
// anyone; other roles may edit only their own name and, for staff, password.
func (s *Server) handlePatchUser(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing_user_id")
		return
	}

	isAdmin := auth.Authorize(identity, model.RoleAdmin).Allowed
	if !isAdmin && identity.UserID != userID {
		s.writeDeny(w, auth.DenyForbidden)
		return
	}

	var req patchUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	target, err := s.store.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user_not_found")
			return
		}
		logging.Errorf("user lookup failed", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	update := repository.UserUpdate{}
	if req.FirstName != nil {
		first := strings.TrimSpace(*req.FirstName)
		if first != "" {
			update.FirstName = &first
		}
	}
	if req.LastName != nil {
		last := strings.TrimSpace(*req.LastName)
		if last != "" {
			update.LastName = &last
		}
	}
	if req.Email != nil && isAdmin && target.Role != model.RoleStudent {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		if email != "" {
			update.Email = &email
		}
	}
	if req.Active != nil && isAdmin {
		update.Active = req.Active
	}
	if req.ClassID != nil && isAdmin && target.Role == model.RoleStudent {
		update.ClassID = req.ClassID
	}
	if req.Password != nil && strings.TrimSpace(*req.Password) != "" && target.Role != model.RoleStudent {
		hash, err := crypto.HashPassword(*req.Password, s.cfg.BcryptCost)
		if err != nil {
			logging.Errorf("password hash failed", err)
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		update.PasswordHash = &hash
	}

	user, err := s.store.UpdateUser(r.Context(), userID, update)
	if err != nil {
		logging.Errorf("user update failed", err)
		writeError(w, http.StatusBadRequest, "update_failed")
		return
	}
	writeJSON(w, http.StatusOK, mapUser(user))
}

type createClassRequest struct {
	Name      string `json:"name"`
	TeacherID string `json:"teacherId,omitempty"`
}

type classSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TeacherID string `json:"teacherId"`
}

func (s *Server) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	var req createClassRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing_name")
		return
	}

	teacherID := strings.TrimSpace(req.TeacherID)
	if identity.Role == model.RoleTeacher {
		teacherID = identity.UserID
	}
	if teacherID == "" {
		writeError(w, http.StatusBadRequest, "missing_teacher_id")
		return
	}

	now := time.Now().UTC()
	class := model.Class{
		ID:        uuid.NewString(),
		Name:      req.Name,
		TeacherID: teacherID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateClass(r.Context(), class); err != nil {
		logging.Errorf("class create failed", err)
		writeError(w, http.StatusBadRequest, "class_create_failed")
		return
	}
	writeJSON(w, http.StatusCreated, classSummary{ID: class.ID, Name: class.Name, TeacherID: class.TeacherID})
}

type createStudentRequest struct {
	FirstName      string      `json:"firstName"`
	LastName       string      `json:"lastName"`
	VisualPassword visual.Spec `json:"visualPassword"`
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classId")
	if classID == "" {
		writeError(w, http.StatusBadRequest, "missing_class_id")
		return
	}
	if _, err := s.store.GetClass(r.Context(), classID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "class_not_found")
			return
		}
		logging.Errorf("class lookup failed", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	var req createStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.FirstName == "" || req.LastName == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	raw, err := encodeVisualPassword(req.VisualPassword)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_visual_password")
		return
	}

	now := time.Now().UTC()
	student := model.User{
		ID:             uuid.NewString(),
		Role:           model.RoleStudent,
		Active:         true,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		ClassID:        &classID,
		VisualPassword: raw,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateUser(r.Context(), student); err != nil {
		logging.Errorf("student create failed", err)
		writeError(w, http.StatusBadRequest, "student_create_failed")
		return
	}
	writeJSON(w, http.StatusCreated, mapUser(student))
}

func (s *Server) handlePutVisualPassword(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")
	if studentID == "" {
		writeError(w, http.StatusBadRequest, "missing_student_id")
		return
	}

	var spec visual.Spec
	if err := decodeJSON(r, &spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	raw, err := encodeVisualPassword(spec)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_visual_password")
		return
	}

	if err := s.store.SetVisualPassword(r.Context(), studentID, raw); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return
		}
		logging.Errorf("visual password update failed", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func encodeVisualPassword(spec visual.Spec) ([]byte, error) {
	if err := visual.Validate(spec); err != nil {
		return nil, err
	}
	return json.Marshal(spec)
}
