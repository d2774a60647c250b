package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"notevault/internal/auth"
)

// memUserStore enforces username uniqueness under a mutex, standing in
// for the UNIQUE constraint of the Postgres store.
type memUserStore struct {
	mu    sync.Mutex
	seq   int64
	users map[string]*auth.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*auth.User)}
}

func (m *memUserStore) Create(ctx context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Username]; ok {
		return auth.ErrUsernameTaken
	}
	m.seq++
	u.ID = m.seq
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	m.users[u.Username] = &cp
	return nil
}

func (m *memUserStore) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) List(ctx context.Context) ([]auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]auth.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memUserStore) promote(username string, role auth.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[username]; ok {
		u.Role = role
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, ttl time.Duration) (*auth.Service, *auth.MemoryStore, *memUserStore) {
	t.Helper()
	users := newMemUserStore()
	sessions := auth.NewMemoryStore()
	hasher, err := auth.NewHasherWithIterations(10000)
	require.NoError(t, err)
	signer := auth.NewSigner("test-secret")
	tokens := auth.NewTokenIssuer("test-secret", time.Minute)
	svc := auth.NewService(users, sessions, hasher, signer, tokens, ttl, testLogger())
	return svc, sessions, users
}

func isValidation(err error) (*auth.ValidationError, bool) {
	var verr *auth.ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}
