package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"notevault/internal/metrics"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service orchestrates credential verification and session minting for
// the auth routes. All dependencies are injected at construction.
type Service struct {
	users    UserStore
	sessions SessionStore
	hasher   *Hasher
	signer   *Signer
	tokens   *TokenIssuer
	ttl      time.Duration
	logger   *slog.Logger
}

func NewService(users UserStore, sessions SessionStore, hasher *Hasher, signer *Signer, tokens *TokenIssuer, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		signer:   signer,
		tokens:   tokens,
		ttl:      ttl,
		logger:   logger,
	}
}

// Register validates all inputs at once, stores the credential record
// with role "user" and mints a session. The returned cookie value has
// the form "<sessionId>.<signature>".
func (s *Service) Register(ctx context.Context, username, password, email string) (*User, *Session, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	var violations []string
	if len(username) < 3 {
		violations = append(violations, "username must be at least 3 characters")
	}
	if len(password) < 6 {
		violations = append(violations, "password must be at least 6 characters")
	}
	if email != "" && !emailPattern.MatchString(email) {
		violations = append(violations, "email must look like local@domain.tld")
	}
	if len(violations) > 0 {
		return nil, nil, "", &ValidationError{Violations: violations}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, "", fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		Role:         RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, nil, "", &ValidationError{Violations: []string{"username is already taken"}}
		}
		return nil, nil, "", fmt.Errorf("create user: %w", err)
	}

	sess, cookie, err := s.mintSession(ctx, u)
	if err != nil {
		return nil, nil, "", err
	}
	return u, sess, cookie, nil
}

// Login fails with the same ErrInvalidCredentials for an unknown
// username and for a wrong password.
func (s *Service) Login(ctx context.Context, username, password string) (*User, *Session, string, error) {
	username = strings.TrimSpace(username)

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			return nil, nil, "", ErrInvalidCredentials
		}
		return nil, nil, "", fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		// Corrupt stored hash: log it, but the client sees a plain
		// credential failure so nothing leaks about the cause.
		s.logger.Error("verify credential", "username", username, "err", err)
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, nil, "", ErrInvalidCredentials
	}
	if !ok {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, nil, "", ErrInvalidCredentials
	}

	sess, cookie, err := s.mintSession(ctx, u)
	if err != nil {
		return nil, nil, "", err
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return u, sess, cookie, nil
}

// Logout deletes the session if it exists; logging out twice is fine.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

// IssueAccessToken mints a short-lived bearer token for API clients
// from an already established session.
func (s *Service) IssueAccessToken(sess *Session) (string, time.Duration, error) {
	return s.tokens.Issue(sess)
}

// ResolveCookie turns a raw cookie value into a live session, or nil.
// Malformed values, bad signatures and stale store entries all resolve
// to nil; the caller treats the request as anonymous.
func (s *Service) ResolveCookie(ctx context.Context, value string) *Session {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || !s.signer.Verify(id, sig) {
		return nil
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("session lookup", "err", err)
		}
		return nil
	}
	return sess
}

// ResolveBearer accepts the access tokens minted by IssueAccessToken.
func (s *Service) ResolveBearer(token string) *Session {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	return &Session{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
}

func (s *Service) mintSession(ctx context.Context, u *User) (*Session, string, error) {
	id, sig, err := s.signer.Issue()
	if err != nil {
		return nil, "", err
	}
	sess := &Session{
		ID:        id,
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("store session: %w", err)
	}
	metrics.SessionsIssued.Inc()
	return sess, id + "." + sig, nil
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}
