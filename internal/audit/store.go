package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(ctx context.Context, e *Event) error {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	fieldsJSON, err := json.Marshal(e.Fields)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO audit_events (actor, action, ip, fields, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	row := s.db.QueryRowContext(ctx, q, e.Actor, e.Action, e.IP, string(fieldsJSON), time.Now().UTC())
	return row.Scan(&e.ID, &e.CreatedAt)
}

func (s *Store) List(ctx context.Context, f Filter) ([]Event, error) {
	clauses := []string{"1=1"}
	args := []interface{}{}
	idx := 1

	if f.Actor != "" {
		clauses = append(clauses, "actor = $"+itoa(idx))
		args = append(args, f.Actor)
		idx++
	}
	if f.Action != "" {
		clauses = append(clauses, "action = $"+itoa(idx))
		args = append(args, f.Action)
		idx++
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "created_at >= $"+itoa(idx))
		args = append(args, f.Since)
		idx++
	}
	if !f.Until.IsZero() {
		clauses = append(clauses, "created_at <= $"+itoa(idx))
		args = append(args, f.Until)
		idx++
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	query := "SELECT id, actor, action, ip, fields, created_at FROM audit_events WHERE " +
		strings.Join(clauses, " AND ") + " ORDER BY created_at DESC LIMIT " + itoa(limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Event
	for rows.Next() {
		var e Event
		var fieldsJSON []byte
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.IP, &fieldsJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
				return nil, err
			}
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
