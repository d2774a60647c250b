package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

// UserStore is the credential persistence contract consumed by Service.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

// Create inserts the credential record. Username uniqueness is enforced
// by the UNIQUE constraint, not by a check-then-insert, so concurrent
// registrations of the same name race safely: exactly one wins and the
// loser gets ErrUsernameTaken.
func (s *PostgresStore) Create(ctx context.Context, u *User) error {
	const q = `
		INSERT INTO users (username, password_hash, email, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, created_at, updated_at
	`
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, q, u.Username, u.PasswordHash, u.Email, u.Role, now).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

func (s *PostgresStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	const q = `
		SELECT id, username, password_hash, email, role, created_at, updated_at
		FROM users WHERE username = $1
	`
	u := &User{}
	err := s.db.QueryRowContext(ctx, q, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]User, error) {
	const q = `
		SELECT id, username, password_hash, email, role, created_at, updated_at
		FROM users ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
