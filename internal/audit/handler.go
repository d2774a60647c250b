package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"notevault/internal/web"
)

// QueryHandler serves the audit trail to admins. The router applies the
// admin guard before requests get here.
type QueryHandler struct {
	Store  *Store
	Logger *slog.Logger
}

func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		Actor:  q.Get("actor"),
		Action: q.Get("action"),
	}
	if sinceStr := q.Get("since"); sinceStr != "" {
		if t, err := time.Parse(time.RFC3339, sinceStr); err == nil {
			filter.Since = t
		}
	}
	if untilStr := q.Get("until"); untilStr != "" {
		if t, err := time.Parse(time.RFC3339, untilStr); err == nil {
			filter.Until = t
		}
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = l
		}
	}

	events, err := h.Store.List(r.Context(), filter)
	if err != nil {
		h.Logger.Error("list audit events", "err", err)
		web.Internal(w)
		return
	}
	if events == nil {
		events = []Event{}
	}
	web.JSON(w, http.StatusOK, events)
}
