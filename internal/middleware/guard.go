package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/haiintel/dashboard/internal/model/user"
	"github.com/haiintel/dashboard/pkg/utils"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "haiintel_session"

// TokenParser verifies a session token.
type TokenParser interface {
	ParseToken(token string) (user.User, error)
}

type userKey struct{}

// Guard enforces authentication on every route except static assets and the login call.
// Unauthenticated page requests are redirected to /login, API requests get a 401. The login
// page itself redirects authenticated visitors to the dashboard.
func Guard(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if isPublic(r) {
				next.ServeHTTP(w, r)
				return
			}

			u, ok := authenticate(r, tokens)

			if path == "/login" {
				if ok {
					http.Redirect(w, r, "/", http.StatusFound)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !ok {
				if strings.HasPrefix(path, "/api/") {
					utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom returns the user set by Guard.
func UserFrom(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userKey{}).(user.User)
	return u, ok
}

func isPublic(r *http.Request) bool {
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/static/"):
		return true
	case path == "/favicon.ico":
		return true
	case path == "/api/auth/login" && r.Method == http.MethodPost:
		return true
	}
	return false
}

func authenticate(r *http.Request, tokens TokenParser) (user.User, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || strings.TrimSpace(c.Value) == "" {
		return user.User{}, false
	}
	u, err := tokens.ParseToken(strings.TrimSpace(c.Value))
	if err != nil {
		return user.User{}, false
	}
	return u, true
}
