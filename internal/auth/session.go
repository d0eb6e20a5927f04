// Package auth implements the trust boundary of the application: credential
// and visual-password logins, opaque session issuance and resolution, the
// guess attempt tracker, and the role authorization guard. Every protected
// route depends on this package behaving correctly under adversarial input.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/taogeht/reading-practice-app-sub000/internal/crypto"
	"github.com/taogeht/reading-practice-app-sub000/internal/model"
	"github.com/taogeht/reading-practice-app-sub000/internal/repository"
)

// Expected authentication failures. All session resolution failures are
// normalized to a plain "unauthenticated" at the HTTP boundary; the distinct
// sentinels exist for callers and tests that need the exact state.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionOrphaned    = errors.New("session orphaned")
)

// IsUnauthenticated reports whether err is any of the expected session
// resolution failures, as opposed to an infrastructure error.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrSessionOrphaned)
}

// Identity is the resolved principal attached to a request.
type Identity struct {
	UserID    string
	Role      model.Role
	FirstName string
	LastName  string
	Email     *string
}

// SessionStore persists opaque session rows. *repository.Store satisfies it.
type SessionStore interface {
	CreateSession(ctx context.Context, session model.Session) error
	GetSession(ctx context.Context, token string) (model.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// UserStore reads user records for login and session resolution.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, userID string) (model.User, error)
}

// Sessions issues and resolves opaque bearer sessions.
type Sessions struct {
	sessions SessionStore
	users    UserStore
	ttl      time.Duration
	now      func() time.Time
}

func NewSessions(sessions SessionStore, users UserStore, ttl time.Duration) *Sessions {
	return &Sessions{
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create issues a new session for a user. Multiple live sessions per user are
// allowed; there is no single-active-session invariant.
func (s *Sessions) Create(ctx context.Context, userID, ipAddress, userAgent string) (model.Session, error) {
	token, err := crypto.NewSessionToken()
	if err != nil {
		return model.Session{}, err
	}

	now := s.now()
	session := model.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		UpdatedAt: now,
	}
	if ipAddress != "" {
		session.IPAddress = &ipAddress
	}
	if userAgent != "" {
		session.UserAgent = &userAgent
	}

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return model.Session{}, err
	}
	return session, nil
}

// Resolve maps a bearer token to a live identity, failing closed.
//
// Absent token: ErrSessionNotFound. Expired: the row is deleted lazily and
// ErrSessionExpired returned, so a second lookup behaves like an absent
// token. Owning user missing or inactive: ErrSessionOrphaned, row left in
// place for the sweep.
func (s *Sessions) Resolve(ctx context.Context, token string) (*Identity, error) {
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if !session.ExpiresAt.After(s.now()) {
		if err := s.sessions.DeleteSession(ctx, token); err != nil {
			return nil, err
		}
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionOrphaned
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrSessionOrphaned
	}

	return &Identity{
		UserID:    user.ID,
		Role:      user.Role,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}, nil
}

// Delete removes a session. Deleting an absent token is not an error.
func (s *Sessions) Delete(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// SweepExpired removes all rows already past expiry. Safe to run concurrently
// with resolution; both only ever remove rows defined as invalid.
func (s *Sessions) SweepExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpiredSessions(ctx, s.now())
}

// LoginWithPassword authenticates the staff credential path. Unknown email,
// missing password hash (student records), wrong password, and inactive
// accounts all fail uniformly with ErrInvalidCredentials so responses cannot
// be used for account enumeration.
func (s *Sessions) LoginWithPassword(ctx context.Context, email, password, ipAddress, userAgent string) (model.Session, *Identity, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Session{}, nil, ErrInvalidCredentials
		}
		return model.Session{}, nil, err
	}

	if user.PasswordHash == nil || !user.Active {
		return model.Session{}, nil, ErrInvalidCredentials
	}
	if err := crypto.CheckPassword(*user.PasswordHash, password); err != nil {
		return model.Session{}, nil, ErrInvalidCredentials
	}

	session, err := s.Create(ctx, user.ID, ipAddress, userAgent)
	if err != nil {
		return model.Session{}, nil, err
	}

	return session, &Identity{
		UserID:    user.ID,
		Role:      user.Role,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}, nil
}
