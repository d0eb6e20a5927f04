package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taogeht/reading-practice-app-sub000/internal/model"
)

// ErrNotFound is returned for single-row lookups that match nothing. Callers
// check this instead of the pgx sentinel and stay independent of the driver.
var ErrNotFound = errors.New("not found")

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const userColumns = `id, email, password_hash, role, active, first_name, last_name, class_id, visual_password, created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	var role string
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.Active,
		&user.FirstName,
		&user.LastName,
		&user.ClassID,
		&user.VisualPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	user.Role, err = model.ParseRole(role)
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, userID)
	return scanUser(row)
}

func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, role, active, first_name, last_name, class_id, visual_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, user.ID, user.Email, user.PasswordHash, string(user.Role), user.Active, user.FirstName, user.LastName, user.ClassID, user.VisualPassword, user.CreatedAt, user.UpdatedAt)
	return err
}

// UserUpdate carries optional field updates; nil fields are left untouched.
type UserUpdate struct {
	Email        *string
	PasswordHash *string
	FirstName    *string
	LastName     *string
	Active       *bool
	ClassID      *string
}

func (s *Store) UpdateUser(ctx context.Context, userID string, update UserUpdate) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users SET
			email = COALESCE($2, email),
			password_hash = COALESCE($3, password_hash),
			first_name = COALESCE($4, first_name),
			last_name = COALESCE($5, last_name),
			active = COALESCE($6, active),
			class_id = COALESCE($7, class_id),
			updated_at = $8
		WHERE id = $1
		RETURNING `+userColumns+`
	`, userID, update.Email, update.PasswordHash, update.FirstName, update.LastName, update.Active, update.ClassID, time.Now().UTC())
	return scanUser(row)
}

func (s *Store) SetVisualPassword(ctx context.Context, userID string, spec []byte) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET visual_password = $2, updated_at = $3
		WHERE id = $1 AND role = 'student'
	`, userID, spec, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListStudentsByClass(ctx context.Context, classID string, limit int) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE class_id = $1 AND role = 'student' AND active = true
		ORDER BY first_name, last_name
		LIMIT $2
	`, classID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.User
	for rows.Next() {
		student, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

func (s *Store) CreateSession(ctx context.Context, session model.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (token, user_id, created_at, expires_at, updated_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, session.Token, session.UserID, session.CreatedAt, session.ExpiresAt, session.UpdatedAt, session.IPAddress, session.UserAgent)
	return err
}

func (s *Store) GetSession(ctx context.Context, token string) (model.Session, error) {
	var session model.Session
	row := s.pool.QueryRow(ctx, `
		SELECT token, user_id, created_at, expires_at, updated_at, ip_address, user_agent
		FROM sessions
		WHERE token = $1
	`, token)
	err := row.Scan(&session.Token, &session.UserID, &session.CreatedAt, &session.ExpiresAt, &session.UpdatedAt, &session.IPAddress, &session.UserAgent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, ErrNotFound
		}
		return model.Session{}, err
	}
	return session, nil
}

// DeleteSession is idempotent; deleting an absent token is not an error.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) CreateClass(ctx context.Context, class model.Class) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO classes (id, name, teacher_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, class.ID, class.Name, class.TeacherID, class.CreatedAt, class.UpdatedAt)
	return err
}

func (s *Store) GetClass(ctx context.Context, classID string) (model.Class, error) {
	var class model.Class
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, teacher_id, created_at, updated_at
		FROM classes
		WHERE id = $1
	`, classID)
	err := row.Scan(&class.ID, &class.Name, &class.TeacherID, &class.CreatedAt, &class.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Class{}, ErrNotFound
		}
		return model.Class{}, err
	}
	return class, nil
}
