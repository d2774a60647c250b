package audit

import (
	"context"
	"log/slog"
)

// EventSink is notified after every recorded event; the alert detector
// hangs off this hook.
type EventSink interface {
	ProcessEvent(ctx context.Context, e *Event)
}

// Inserter is the subset of Store the recorder needs.
type Inserter interface {
	Insert(ctx context.Context, e *Event) error
}

// Recorder writes audit events best-effort: failures are logged and
// never propagate into the request that triggered them.
type Recorder struct {
	store  Inserter
	sink   EventSink
	logger *slog.Logger
}

func NewRecorder(store Inserter, sink EventSink, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, sink: sink, logger: logger}
}

func (r *Recorder) Record(ctx context.Context, actor, action, ip string, fields map[string]string) {
	e := &Event{Actor: actor, Action: action, IP: ip, Fields: fields}
	if err := r.store.Insert(ctx, e); err != nil {
		r.logger.Error("record audit event", "action", action, "err", err)
		return
	}
	if r.sink != nil {
		r.sink.ProcessEvent(ctx, e)
	}
}
