package alerts

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

func (s *Store) Create(ctx context.Context, a *Alert) error {
	if a.Status == "" {
		a.Status = StatusOpen
	}
	if a.EventIDs == nil {
		a.EventIDs = []int64{}
	}
	const q = `
		INSERT INTO alerts
		(rule_id, title, description, severity, actor, status,
		 first_event_ts, last_event_ts, event_ids, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
		RETURNING id, created_at, updated_at
	`
	now := time.Now().UTC()
	row := s.db.QueryRowContext(ctx, q,
		a.RuleID, a.Title, a.Description, a.Severity, a.Actor, a.Status,
		a.FirstEventTS, a.LastEventTS, pq.Array(a.EventIDs), now,
	)
	return row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// ExistsSimilar reports whether an unclosed alert for the same rule and
// actor already covers the window, so one burst raises one alert.
func (s *Store) ExistsSimilar(ctx context.Context, ruleID, actor string, since time.Time) (bool, error) {
	const q = `
		SELECT 1 FROM alerts
		WHERE rule_id = $1 AND actor = $2 AND last_event_ts >= $3 AND status != 'closed'
		LIMIT 1
	`
	var one int
	err := s.db.QueryRowContext(ctx, q, ruleID, actor, since).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type ListFilter struct {
	Actor    string
	Status   Status
	Severity string
	Limit    int
}

func (s *Store) List(ctx context.Context, f ListFilter) ([]Alert, error) {
	clauses := []string{"1=1"}
	args := []interface{}{}
	idx := 1
	if f.Actor != "" {
		clauses = append(clauses, "actor = $"+itoa(idx))
		args = append(args, f.Actor)
		idx++
	}
	if f.Status != "" {
		clauses = append(clauses, "status = $"+itoa(idx))
		args = append(args, string(f.Status))
		idx++
	}
	if f.Severity != "" {
		clauses = append(clauses, "severity = $"+itoa(idx))
		args = append(args, f.Severity)
		idx++
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := "SELECT id, rule_id, title, description, severity, actor, status," +
		" first_event_ts, last_event_ts, event_ids, created_at, updated_at" +
		" FROM alerts WHERE " + strings.Join(clauses, " AND ") +
		" ORDER BY created_at DESC LIMIT " + itoa(limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Alert
	for rows.Next() {
		var a Alert
		var ids pq.Int64Array
		if err := rows.Scan(&a.ID, &a.RuleID, &a.Title, &a.Description, &a.Severity,
			&a.Actor, &a.Status, &a.FirstEventTS, &a.LastEventTS, &ids,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.EventIDs = []int64(ids)
		res = append(res, a)
	}
	return res, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int64) (*Alert, error) {
	const q = `
		SELECT id, rule_id, title, description, severity, actor, status,
		       first_event_ts, last_event_ts, event_ids, created_at, updated_at
		FROM alerts WHERE id = $1
	`
	var a Alert
	var ids pq.Int64Array
	err := s.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.RuleID, &a.Title,
		&a.Description, &a.Severity, &a.Actor, &a.Status, &a.FirstEventTS,
		&a.LastEventTS, &ids, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.EventIDs = []int64(ids)
	return &a, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id int64, status Status) error {
	const q = `UPDATE alerts SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := s.db.ExecContext(ctx, q, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
