package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"notevault/internal/web"
)

type contextKey string

const sessionContextKey contextKey = "notevault_session"

// SessionCookieName is the cookie carrying "<sessionId>.<signature>".
const SessionCookieName = "sessionId"

func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(*Session)
	return sess, ok && sess != nil
}

// SessionMiddleware resolves the request's identity and attaches it to
// the context. It never rejects: missing cookies, forged signatures and
// expired sessions all continue as anonymous, and the downstream guards
// decide. A valid Authorization bearer token works as an alternative to
// the cookie for API clients.
func SessionMiddleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess *Session
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				sess = svc.ResolveCookie(r.Context(), cookie.Value)
			}
			if sess == nil {
				if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
					sess = svc.ResolveBearer(strings.TrimPrefix(h, "Bearer "))
				}
			}
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireAuth rejects anonymous requests with a JSON 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			web.Error(w, http.StatusUnauthorized, ErrUnauthenticated.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthPage is the page-style variant: anonymous requests are
// redirected to the login page instead of getting a JSON body.
func RequireAuthPage(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := SessionFromContext(r.Context()); !ok {
				http.Redirect(w, r, loginURL, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin implies RequireAuth and then checks the role claim.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			web.Error(w, http.StatusUnauthorized, ErrUnauthenticated.Error())
			return
		}
		if sess.Role != RoleAdmin {
			web.Error(w, http.StatusForbidden, ErrForbidden.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ResourceFinder is the external CRUD collaborator consulted by the
// ownership guard. FindOwner returns the creator identity of the
// resource named by the route's {id} parameter, or ErrNotFound.
type ResourceFinder interface {
	FindOwner(ctx context.Context, id int64) (string, error)
}

// CheckOwnership allows admins unconditionally and everyone else only
// on resources they created. It implies RequireAuth.
func CheckOwnership(finder ResourceFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				web.Error(w, http.StatusUnauthorized, ErrUnauthenticated.Error())
				return
			}
			if sess.Role == RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}
			id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				web.Error(w, http.StatusNotFound, ErrNotFound.Error())
				return
			}
			owner, err := finder.FindOwner(r.Context(), id)
			if errors.Is(err, ErrNotFound) {
				web.Error(w, http.StatusNotFound, ErrNotFound.Error())
				return
			}
			if err != nil {
				web.Internal(w)
				return
			}
			if owner != sess.Username {
				web.Error(w, http.StatusForbidden, ErrForbidden.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
