package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/taogeht/reading-practice-app-sub000/internal/crypto"
	"github.com/taogeht/reading-practice-app-sub000/internal/model"
	"github.com/taogeht/reading-practice-app-sub000/internal/repository"
)

type fakeSessionStore struct {
	sessions map[string]model.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]model.Session)}
}

func (f *fakeSessionStore) CreateSession(_ context.Context, session model.Session) error {
	f.sessions[session.Token] = session
	return nil
}

func (f *fakeSessionStore) GetSession(_ context.Context, token string) (model.Session, error) {
	session, ok := f.sessions[token]
	if !ok {
		return model.Session{}, repository.ErrNotFound
	}
	return session, nil
}

func (f *fakeSessionStore) DeleteSession(_ context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessionStore) DeleteExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	var deleted int64
	for token, session := range f.sessions {
		if session.ExpiresAt.Before(before) {
			delete(f.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

type fakeUserStore struct {
	users map[string]model.User
}

func newFakeUserStore(users ...model.User) *fakeUserStore {
	store := &fakeUserStore{users: make(map[string]model.User)}
	for _, user := range users {
		store.users[user.ID] = user
	}
	return store
}

func (f *fakeUserStore) GetUserByID(_ context.Context, userID string) (model.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	for _, user := range f.users {
		if user.Email != nil && *user.Email == email {
			return user, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func staffUser(t *testing.T, id, email, password string, role model.Role, active bool) model.User {
	t.Helper()
	hash, err := crypto.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	return model.User{
		ID:           id,
		Email:        &email,
		PasswordHash: &hash,
		Role:         role,
		Active:       active,
		FirstName:    "Test",
		LastName:     "Staff",
	}
}

func TestLoginResolveRoundTrip(t *testing.T) {
	ctx := context.Background()
	admin := staffUser(t, "user-1", "admin@example.com", "admin123", model.RoleAdmin, true)
	sessions := NewSessions(newFakeSessionStore(), newFakeUserStore(admin), 7*24*time.Hour)

	session, identity, err := sessions.LoginWithPassword(ctx, "admin@example.com", "admin123", "203.0.113.9", "test-agent")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if identity.UserID != "user-1" || identity.Role != model.RoleAdmin {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if session.IPAddress == nil || *session.IPAddress != "203.0.113.9" {
		t.Fatalf("expected audit ip on session")
	}

	resolved, err := sessions.Resolve(ctx, session.Token)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if resolved.UserID != "user-1" || resolved.Role != model.RoleAdmin {
		t.Fatalf("resolve did not round-trip: %+v", resolved)
	}
}

func TestLoginFailsUniformly(t *testing.T) {
	ctx := context.Background()
	admin := staffUser(t, "user-1", "admin@example.com", "admin123", model.RoleAdmin, true)
	inactive := staffUser(t, "user-2", "gone@example.com", "gone123", model.RoleTeacher, false)
	student := model.User{
		ID:        "student-1",
		Role:      model.RoleStudent,
		Active:    true,
		FirstName: "Sam",
		LastName:  "Reader",
	}
	store := newFakeSessionStore()
	sessions := NewSessions(store, newFakeUserStore(admin, inactive, student), time.Hour)

	cases := []struct {
		name  string
		email string
		pass  string
	}{
		{"wrong password", "admin@example.com", "wrongpass"},
		{"unknown email", "nobody@example.com", "admin123"},
		{"inactive account", "gone@example.com", "gone123"},
	}
	for _, tc := range cases {
		_, _, err := sessions.LoginWithPassword(ctx, tc.email, tc.pass, "", "")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", tc.name, err)
		}
	}
	if len(store.sessions) != 0 {
		t.Fatalf("failed logins must not create sessions, found %d", len(store.sessions))
	}
}

func TestStudentsNeverPassCredentialLogin(t *testing.T) {
	// A student record with an email but no password hash must not be able
	// to authenticate through the credential path with any secret.
	email := "kid@example.com"
	student := model.User{
		ID:        "student-1",
		Email:     &email,
		Role:      model.RoleStudent,
		Active:    true,
		FirstName: "Sam",
		LastName:  "Reader",
	}
	sessions := NewSessions(newFakeSessionStore(), newFakeUserStore(student), time.Hour)

	_, _, err := sessions.LoginWithPassword(context.Background(), email, "", "", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestResolveExpiredDeletesLazily(t *testing.T) {
	ctx := context.Background()
	admin := staffUser(t, "user-1", "admin@example.com", "admin123", model.RoleAdmin, true)
	store := newFakeSessionStore()
	sessions := NewSessions(store, newFakeUserStore(admin), time.Hour)

	session, err := sessions.Create(ctx, "user-1", "", "")
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	// Jump the clock past expiry.
	sessions.now = func() time.Time { return session.ExpiresAt.Add(time.Minute) }

	if _, err := sessions.Resolve(ctx, session.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if _, ok := store.sessions[session.Token]; ok {
		t.Fatalf("expired session row should be deleted on lookup")
	}

	// Second lookup is idempotent with looking up a nonexistent token.
	if _, err := sessions.Resolve(ctx, session.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second lookup, got %v", err)
	}
}

func TestResolveOrphanedSession(t *testing.T) {
	ctx := context.Background()
	admin := staffUser(t, "user-1", "admin@example.com", "admin123", model.RoleAdmin, true)
	users := newFakeUserStore(admin)
	store := newFakeSessionStore()
	sessions := NewSessions(store, users, time.Hour)

	session, err := sessions.Create(ctx, "user-1", "", "")
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	// Deactivate the owning user; the row stays but resolution fails closed.
	admin.Active = false
	users.users["user-1"] = admin

	if _, err := sessions.Resolve(ctx, session.Token); !errors.Is(err, ErrSessionOrphaned) {
		t.Fatalf("expected ErrSessionOrphaned, got %v", err)
	}
	if _, ok := store.sessions[session.Token]; !ok {
		t.Fatalf("orphaned session row should be left in place")
	}

	// Same outcome when the user is gone entirely.
	delete(users.users, "user-1")
	if _, err := sessions.Resolve(ctx, session.Token); !errors.Is(err, ErrSessionOrphaned) {
		t.Fatalf("expected ErrSessionOrphaned for missing user, got %v", err)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	sessions := NewSessions(newFakeSessionStore(), newFakeUserStore(), time.Hour)
	if _, err := sessions.Resolve(context.Background(), "no-such-token"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessions(newFakeSessionStore(), newFakeUserStore(), time.Hour)
	if err := sessions.Delete(ctx, "no-such-token"); err != nil {
		t.Fatalf("deleting absent token must not error: %v", err)
	}
	if err := sessions.Delete(ctx, "no-such-token"); err != nil {
		t.Fatalf("second delete must not error: %v", err)
	}
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	admin := staffUser(t, "user-1", "admin@example.com", "admin123", model.RoleAdmin, true)
	store := newFakeSessionStore()
	sessions := NewSessions(store, newFakeUserStore(admin), time.Hour)

	live, err := sessions.Create(ctx, "user-1", "", "")
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	stale, err := sessions.Create(ctx, "user-1", "", "")
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	staleRow := store.sessions[stale.Token]
	staleRow.ExpiresAt = time.Now().UTC().Add(-24 * time.Hour)
	store.sessions[stale.Token] = staleRow

	deleted, err := sessions.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep error: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 swept session, got %d", deleted)
	}
	if _, ok := store.sessions[live.Token]; !ok {
		t.Fatalf("live session must survive the sweep")
	}
}

func TestIsUnauthenticated(t *testing.T) {
	for _, err := range []error{ErrSessionNotFound, ErrSessionExpired, ErrSessionOrphaned} {
		if !IsUnauthenticated(err) {
			t.Fatalf("expected %v to be unauthenticated", err)
		}
	}
	if IsUnauthenticated(errors.New("connection refused")) {
		t.Fatalf("infrastructure errors are not unauthenticated")
	}
}
