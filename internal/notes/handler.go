package notes

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"notevault/internal/auth"
	"notevault/internal/web"
)

// NoteStore is what the handlers need from persistence; *Store is the
// Postgres implementation.
type NoteStore interface {
	Create(ctx context.Context, n *Note) error
	Get(ctx context.Context, id int64) (*Note, error)
	Update(ctx context.Context, n *Note) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f Filter) ([]Note, error)
}

type Handler struct {
	Store  NoteStore
	Logger *slog.Logger
}

func NewHandler(store NoteStore, logger *slog.Logger) *Handler {
	return &Handler{Store: store, Logger: logger}
}

type noteRequest struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	// Authentication is enforced by the router; make sure it ran.
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		web.Error(w, http.StatusUnauthorized, auth.ErrUnauthenticated.Error())
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		web.ValidationFailed(w, []string{"title must not be empty"})
		return
	}

	n := &Note{
		Title:     strings.TrimSpace(req.Title),
		Body:      req.Body,
		Tags:      req.Tags,
		CreatedBy: sess.Username,
	}
	if err := h.Store.Create(r.Context(), n); err != nil {
		h.Logger.Error("create note", "err", err)
		web.Internal(w)
		return
	}
	web.JSON(w, http.StatusCreated, n)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		web.Error(w, http.StatusNotFound, auth.ErrNotFound.Error())
		return
	}
	n, err := h.Store.Get(r.Context(), id)
	if errors.Is(err, auth.ErrNotFound) {
		web.Error(w, http.StatusNotFound, auth.ErrNotFound.Error())
		return
	}
	if err != nil {
		h.Logger.Error("get note", "err", err)
		web.Internal(w)
		return
	}
	web.JSON(w, http.StatusOK, n)
}

// Update runs behind the ownership guard, so by the time we are here
// the requester is the creator or an admin.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		web.Error(w, http.StatusUnauthorized, auth.ErrUnauthenticated.Error())
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		web.Error(w, http.StatusNotFound, auth.ErrNotFound.Error())
		return
	}
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		web.ValidationFailed(w, []string{"title must not be empty"})
		return
	}

	n := &Note{
		ID:        id,
		Title:     strings.TrimSpace(req.Title),
		Body:      req.Body,
		Tags:      req.Tags,
		UpdatedBy: sess.Username,
	}
	if err := h.Store.Update(r.Context(), n); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			web.Error(w, http.StatusNotFound, auth.ErrNotFound.Error())
			return
		}
		h.Logger.Error("update note", "err", err)
		web.Internal(w)
		return
	}
	web.JSON(w, http.StatusOK, n)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		web.Error(w, http.StatusNotFound, auth.ErrNotFound.Error())
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			web.Error(w, http.StatusNotFound, auth.ErrNotFound.Error())
			return
		}
		h.Logger.Error("delete note", "err", err)
		web.Internal(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		Tag: q.Get("tag"),
	}
	if q.Get("mine") == "true" {
		if sess, ok := auth.SessionFromContext(r.Context()); ok {
			filter.CreatedBy = sess.Username
		}
	} else {
		filter.CreatedBy = q.Get("created_by")
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = l
		}
	}

	res, err := h.Store.List(r.Context(), filter)
	if err != nil {
		h.Logger.Error("list notes", "err", err)
		web.Internal(w)
		return
	}
	if res == nil {
		res = []Note{}
	}
	web.JSON(w, http.StatusOK, res)
}
