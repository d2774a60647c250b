package alerts

import (
	"context"
	"log/slog"
	"time"

	"notevault/internal/audit"
	"notevault/internal/metrics"
)

// EventLister is the audit-store view the detector queries.
type EventLister interface {
	List(ctx context.Context, f audit.Filter) ([]audit.Event, error)
}

// AlertStore is the persistence view the detector writes through.
type AlertStore interface {
	Create(ctx context.Context, a *Alert) error
	ExistsSimilar(ctx context.Context, ruleID, actor string, since time.Time) (bool, error)
}

// Detector watches the audit trail and raises alerts. It runs inline
// with audit recording; errors are logged and never fail the request
// that produced the event.
type Detector struct {
	rules  []RuleConfig
	store  AlertStore
	events EventLister
	logger *slog.Logger
}

func NewDetector(rules []RuleConfig, store AlertStore, events EventLister, logger *slog.Logger) *Detector {
	return &Detector{rules: rules, store: store, events: events, logger: logger}
}

func (d *Detector) ProcessEvent(ctx context.Context, e *audit.Event) {
	for _, rule := range d.rules {
		if rule.Match.Action != e.Action {
			continue
		}
		windowStart := e.CreatedAt.Add(-rule.Window.Std())

		exists, err := d.store.ExistsSimilar(ctx, rule.ID, e.Actor, windowStart)
		if err != nil {
			d.logger.Error("check existing alert", "rule", rule.ID, "err", err)
			continue
		}
		if exists {
			continue
		}

		evts, err := d.events.List(ctx, audit.Filter{
			Actor:  e.Actor,
			Action: rule.Match.Action,
			Since:  windowStart,
			Until:  e.CreatedAt,
			Limit:  500,
		})
		if err != nil {
			d.logger.Error("list audit events for detection", "rule", rule.ID, "err", err)
			continue
		}
		if len(evts) < rule.Threshold {
			continue
		}

		ids := make([]int64, 0, len(evts))
		first, last := e.CreatedAt, e.CreatedAt
		for _, ev := range evts {
			ids = append(ids, ev.ID)
			if ev.CreatedAt.Before(first) {
				first = ev.CreatedAt
			}
			if ev.CreatedAt.After(last) {
				last = ev.CreatedAt
			}
		}

		a := &Alert{
			RuleID:       rule.ID,
			Title:        rule.Title,
			Description:  rule.Description,
			Severity:     rule.Severity,
			Actor:        e.Actor,
			Status:       StatusOpen,
			FirstEventTS: first,
			LastEventTS:  last,
			EventIDs:     ids,
		}
		if err := d.store.Create(ctx, a); err != nil {
			d.logger.Error("create alert", "rule", rule.ID, "err", err)
			continue
		}
		metrics.AlertsRaised.Inc()
		d.logger.Info("alert raised", "id", a.ID, "rule", rule.ID, "actor", a.Actor, "events", len(ids))
	}
}
