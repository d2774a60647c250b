package alerts

import "time"

type Status string

const (
	StatusOpen   Status = "open"
	StatusAcked  Status = "acked"
	StatusClosed Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusAcked, StatusClosed:
		return true
	}
	return false
}

// Alert is raised by the detector when audit events for one actor
// trip a rule's threshold inside its window.
type Alert struct {
	ID           int64     `json:"id"`
	RuleID       string    `json:"rule_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Severity     string    `json:"severity"`
	Actor        string    `json:"actor"`
	Status       Status    `json:"status"`
	FirstEventTS time.Time `json:"first_event_ts"`
	LastEventTS  time.Time `json:"last_event_ts"`
	EventIDs     []int64   `json:"event_ids"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
