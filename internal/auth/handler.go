package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"notevault/internal/audit"
	"notevault/internal/web"
)

// AuditRecorder receives auth events for the audit trail. Recording is
// best-effort and must not fail the request.
type AuditRecorder interface {
	Record(ctx context.Context, actor, action, ip string, fields map[string]string)
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, string, string, string, map[string]string) {}

// Handler exposes the auth routes. SecureCookies should be true in
// production so the cookie only travels over TLS.
type Handler struct {
	Service       *Service
	Audit         AuditRecorder
	Logger        *slog.Logger
	SecureCookies bool
}

func NewHandler(svc *Service, audit AuditRecorder, logger *slog.Logger, secureCookies bool) *Handler {
	if audit == nil {
		audit = noopRecorder{}
	}
	return &Handler{Service: svc, Audit: audit, Logger: logger, SecureCookies: secureCookies}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, http.StatusBadRequest, "invalid json body")
		return
	}

	u, _, cookie, err := h.Service.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			web.ValidationFailed(w, verr.Violations)
			return
		}
		h.Logger.Error("register", "err", err)
		web.Internal(w)
		return
	}

	h.Audit.Record(r.Context(), u.Username, audit.ActionRegister, clientIP(r), nil)
	h.setSessionCookie(w, cookie)
	web.JSON(w, http.StatusCreated, userResponse{ID: u.ID, Username: u.Username, Role: u.Role})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, http.StatusBadRequest, "invalid json body")
		return
	}

	u, _, cookie, err := h.Service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.Audit.Record(r.Context(), req.Username, audit.ActionLoginFailed, clientIP(r), nil)
			web.Error(w, http.StatusUnauthorized, ErrInvalidCredentials.Error())
			return
		}
		h.Logger.Error("login", "err", err)
		web.Internal(w)
		return
	}

	h.Audit.Record(r.Context(), u.Username, audit.ActionLogin, clientIP(r), nil)
	h.setSessionCookie(w, cookie)
	web.JSON(w, http.StatusOK, userResponse{ID: u.ID, Username: u.Username, Role: u.Role})
}

// Logout succeeds even without an active session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := SessionFromContext(r.Context()); ok {
		if err := h.Service.Logout(r.Context(), sess.ID); err != nil {
			h.Logger.Error("logout", "err", err)
		}
		h.Audit.Record(r.Context(), sess.Username, audit.ActionLogout, clientIP(r), nil)
	}
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Whoami(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		web.Error(w, http.StatusUnauthorized, ErrUnauthenticated.Error())
		return
	}
	web.JSON(w, http.StatusOK, map[string]interface{}{
		"userId":   sess.UserID,
		"username": sess.Username,
		"role":     sess.Role,
	})
}

// ListUsers returns all credential records with hashes stripped,
// newest first. The router guards it with RequireAdmin.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		h.Logger.Error("list users", "err", err)
		web.Internal(w)
		return
	}
	if users == nil {
		users = []User{}
	}
	web.JSON(w, http.StatusOK, users)
}

// Token mints a short-lived bearer token from the current session.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		web.Error(w, http.StatusUnauthorized, ErrUnauthenticated.Error())
		return
	}
	token, ttl, err := h.Service.IssueAccessToken(sess)
	if err != nil {
		h.Logger.Error("issue token", "err", err)
		web.Internal(w)
		return
	}
	web.JSON(w, http.StatusOK, map[string]interface{}{
		"token":     token,
		"expiresIn": int(ttl.Seconds()),
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(h.Service.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
