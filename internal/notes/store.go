package notes

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"notevault/internal/auth"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, n *Note) error {
	if n.Tags == nil {
		n.Tags = []string{}
	}
	const q = `
		INSERT INTO notes (title, body, tags, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4, $5, $5)
		RETURNING id, created_at, updated_at
	`
	now := time.Now().UTC()
	row := s.db.QueryRowContext(ctx, q, n.Title, n.Body, pq.Array(n.Tags), n.CreatedBy, now)
	n.UpdatedBy = n.CreatedBy
	return row.Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
}

func (s *Store) Get(ctx context.Context, id int64) (*Note, error) {
	const q = `
		SELECT id, title, body, tags, created_by, updated_by, created_at, updated_at
		FROM notes WHERE id = $1
	`
	var n Note
	var tags pq.StringArray
	err := s.db.QueryRowContext(ctx, q, id).Scan(&n.ID, &n.Title, &n.Body, &tags,
		&n.CreatedBy, &n.UpdatedBy, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	n.Tags = []string(tags)
	return &n, nil
}

// Update rewrites title, body and tags; CreatedBy is immutable and
// UpdatedBy/UpdatedAt record the mutation.
func (s *Store) Update(ctx context.Context, n *Note) error {
	const q = `
		UPDATE notes SET title = $1, body = $2, tags = $3, updated_by = $4, updated_at = $5
		WHERE id = $6
		RETURNING created_by, created_at, updated_at
	`
	if n.Tags == nil {
		n.Tags = []string{}
	}
	err := s.db.QueryRowContext(ctx, q, n.Title, n.Body, pq.Array(n.Tags), n.UpdatedBy,
		time.Now().UTC(), n.ID).Scan(&n.CreatedBy, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.ErrNotFound
	}
	return err
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, f Filter) ([]Note, error) {
	clauses := []string{"1=1"}
	args := []interface{}{}
	idx := 1
	if f.CreatedBy != "" {
		clauses = append(clauses, "created_by = $"+itoa(idx))
		args = append(args, f.CreatedBy)
		idx++
	}
	if f.Tag != "" {
		clauses = append(clauses, "$"+itoa(idx)+" = ANY(tags)")
		args = append(args, f.Tag)
		idx++
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := "SELECT id, title, body, tags, created_by, updated_by, created_at, updated_at" +
		" FROM notes WHERE " + strings.Join(clauses, " AND ") +
		" ORDER BY created_at DESC LIMIT " + itoa(limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Note
	for rows.Next() {
		var n Note
		var tags pq.StringArray
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &tags, &n.CreatedBy,
			&n.UpdatedBy, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		n.Tags = []string(tags)
		res = append(res, n)
	}
	return res, rows.Err()
}

// FindOwner satisfies auth.ResourceFinder for the ownership guard.
func (s *Store) FindOwner(ctx context.Context, id int64) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, `SELECT created_by FROM notes WHERE id = $1`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", auth.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return owner, nil
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
