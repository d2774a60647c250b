package alerts

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"notevault/internal/auth"
	"notevault/internal/web"
)

// Handler serves the alert endpoints. All routes are admin-only; the
// router enforces that before requests reach these methods.
type Handler struct {
	Store  *Store
	Logger *slog.Logger
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Actor:    q.Get("actor"),
		Severity: q.Get("severity"),
	}
	if status := q.Get("status"); status != "" {
		filter.Status = Status(status)
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = l
		}
	}

	res, err := h.Store.List(r.Context(), filter)
	if err != nil {
		h.Logger.Error("list alerts", "err", err)
		web.Internal(w)
		return
	}
	if res == nil {
		res = []Alert{}
	}
	web.JSON(w, http.StatusOK, res)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		web.Error(w, http.StatusNotFound, auth.ErrNotFound.Error())
		return
	}
	a, err := h.Store.Get(r.Context(), id)
	if errors.Is(err, auth.ErrNotFound) {
		web.Error(w, http.StatusNotFound, auth.ErrNotFound.Error())
		return
	}
	if err != nil {
		h.Logger.Error("get alert", "err", err)
		web.Internal(w)
		return
	}
	web.JSON(w, http.StatusOK, a)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		web.Error(w, http.StatusNotFound, auth.ErrNotFound.Error())
		return
	}
	var payload struct {
		Status Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || !payload.Status.Valid() {
		web.Error(w, http.StatusBadRequest, "status must be open, acked or closed")
		return
	}
	if err := h.Store.UpdateStatus(r.Context(), id, payload.Status); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			web.Error(w, http.StatusNotFound, auth.ErrNotFound.Error())
			return
		}
		h.Logger.Error("update alert", "err", err)
		web.Internal(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
