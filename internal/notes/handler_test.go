package notes_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"

	"notevault/internal/auth"
	"notevault/internal/notes"
)

// memNoteStore implements both notes.NoteStore and auth.ResourceFinder.
type memNoteStore struct {
	mu    sync.Mutex
	seq   int64
	items map[int64]*notes.Note
}

func newMemNoteStore() *memNoteStore {
	return &memNoteStore{items: make(map[int64]*notes.Note)}
}

func (m *memNoteStore) Create(ctx context.Context, n *notes.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	n.ID = m.seq
	n.UpdatedBy = n.CreatedBy
	if n.Tags == nil {
		n.Tags = []string{}
	}
	cp := *n
	m.items[n.ID] = &cp
	return nil
}

func (m *memNoteStore) Get(ctx context.Context, id int64) (*notes.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *memNoteStore) Update(ctx context.Context, n *notes.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[n.ID]
	if !ok {
		return auth.ErrNotFound
	}
	cur.Title = n.Title
	cur.Body = n.Body
	cur.Tags = n.Tags
	cur.UpdatedBy = n.UpdatedBy
	n.CreatedBy = cur.CreatedBy
	n.CreatedAt = cur.CreatedAt
	return nil
}

func (m *memNoteStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return auth.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memNoteStore) List(ctx context.Context, f notes.Filter) ([]notes.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notes.Note
	for _, n := range m.items {
		if f.CreatedBy != "" && n.CreatedBy != f.CreatedBy {
			continue
		}
		if f.Tag != "" {
			found := false
			for _, tag := range n.Tags {
				if tag == f.Tag {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memNoteStore) FindOwner(ctx context.Context, id int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok {
		return "", auth.ErrNotFound
	}
	return n.CreatedBy, nil
}

func withSession(sess *auth.Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess != nil {
				r = r.WithContext(auth.WithSession(r.Context(), sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// notesRouter mirrors the production route layout for the notes tree.
func notesRouter(sess *auth.Session, store *memNoteStore) http.Handler {
	h := notes.NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/api/v1/notes", func(r chi.Router) {
		r.Use(withSession(sess), auth.RequireAuth)
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Group(func(r chi.Router) {
				r.Use(auth.CheckOwnership(store))
				r.Put("/", h.Update)
				r.Delete("/", h.Delete)
			})
		})
	})
	return r
}

var (
	alice = &auth.Session{UserID: 1, Username: "alice", Role: auth.RoleUser}
	bob   = &auth.Session{UserID: 2, Username: "bob", Role: auth.RoleUser}
	root  = &auth.Session{UserID: 3, Username: "root", Role: auth.RoleAdmin}
)

func seedNote(t *testing.T, store *memNoteStore, owner, title string, tags ...string) *notes.Note {
	t.Helper()
	n := &notes.Note{Title: title, Tags: tags, CreatedBy: owner}
	if err := store.Create(context.Background(), n); err != nil {
		t.Fatalf("seed note: %v", err)
	}
	return n
}

func TestCreateNoteSetsOwner(t *testing.T) {
	store := newMemNoteStore()

	apitest.New().
		Handler(notesRouter(alice, store)).
		Post("/api/v1/notes").
		JSON(`{"title":"groceries","body":"milk","tags":["home"]}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal(`$.created_by`, "alice")).
		Assert(jsonpath.Equal(`$.updated_by`, "alice")).
		End()
}

func TestCreateNoteRequiresTitle(t *testing.T) {
	store := newMemNoteStore()

	apitest.New().
		Handler(notesRouter(alice, store)).
		Post("/api/v1/notes").
		JSON(`{"title":"   ","body":"x"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestNotesRequireAuth(t *testing.T) {
	store := newMemNoteStore()

	apitest.New().
		Handler(notesRouter(nil, store)).
		Get("/api/v1/notes").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestGetMissingNote(t *testing.T) {
	store := newMemNoteStore()

	apitest.New().
		Handler(notesRouter(alice, store)).
		Get("/api/v1/notes/99").
		Expect(t).
		Status(http.StatusNotFound).
		End()
}

func TestUpdateOwnership(t *testing.T) {
	store := newMemNoteStore()
	n := seedNote(t, store, "alice", "draft")

	// Another user cannot touch it.
	apitest.New().
		Handler(notesRouter(bob, store)).
		Put("/api/v1/notes/1").
		JSON(`{"title":"hijacked"}`).
		Expect(t).
		Status(http.StatusForbidden).
		End()

	// The creator can; updated_by moves, created_by does not.
	apitest.New().
		Handler(notesRouter(alice, store)).
		Put("/api/v1/notes/1").
		JSON(`{"title":"final"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal(`$.created_by`, "alice")).
		Assert(jsonpath.Equal(`$.updated_by`, "alice")).
		End()

	// An admin can mutate someone else's note.
	apitest.New().
		Handler(notesRouter(root, store)).
		Put("/api/v1/notes/1").
		JSON(`{"title":"moderated"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal(`$.updated_by`, "root")).
		End()

	got, err := store.Get(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if got.CreatedBy != "alice" {
		t.Fatalf("created_by changed to %q", got.CreatedBy)
	}
}

func TestDeleteOwnership(t *testing.T) {
	store := newMemNoteStore()
	seedNote(t, store, "alice", "temp")

	apitest.New().
		Handler(notesRouter(bob, store)).
		Delete("/api/v1/notes/1").
		Expect(t).
		Status(http.StatusForbidden).
		End()

	apitest.New().
		Handler(notesRouter(alice, store)).
		Delete("/api/v1/notes/1").
		Expect(t).
		Status(http.StatusNoContent).
		End()

	apitest.New().
		Handler(notesRouter(alice, store)).
		Delete("/api/v1/notes/1").
		Expect(t).
		Status(http.StatusNotFound).
		End()
}

func TestListNotesFilters(t *testing.T) {
	store := newMemNoteStore()
	seedNote(t, store, "alice", "a1", "work")
	seedNote(t, store, "alice", "a2", "home")
	seedNote(t, store, "bob", "b1", "work")

	apitest.New().
		Handler(notesRouter(alice, store)).
		Get("/api/v1/notes").
		Query("mine", "true").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len(`$`, 2)).
		End()

	apitest.New().
		Handler(notesRouter(alice, store)).
		Get("/api/v1/notes").
		Query("tag", "work").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len(`$`, 2)).
		End()
}
