package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brokerage-api/internal/domain"
)

// SessionCookie is the cookie carrying the opaque session id for page routes.
// API routes authenticate with a Bearer token instead.
const SessionCookie = "brokerage_session"

// NotFoundPath is where denied page requests are sent. Deliberately not a
// login path: an unauthenticated visitor must not learn which routes exist.
const NotFoundPath = "/404"

// RouteClass classifies a route prefix.
type RouteClass int

const (
	RoutePublic RouteClass = iota
	RouteProtected
)

// RouteRule is one (prefix, classification) pair. Rules are evaluated in
// order; the first matching prefix wins.
type RouteRule struct {
	Prefix string
	Class  RouteClass
}

// DefaultRouteTable is the single authoritative route classification table.
// "/v1" is public here because API endpoints carry their own Bearer auth.
var DefaultRouteTable = []RouteRule{
	{Prefix: "/auth", Class: RoutePublic},
	{Prefix: "/404", Class: RoutePublic},
	{Prefix: "/health-check", Class: RoutePublic},
	{Prefix: "/listings", Class: RoutePublic},
	{Prefix: "/v1", Class: RoutePublic},
	{Prefix: "/dashboard", Class: RouteProtected},
	{Prefix: "/listing", Class: RouteProtected},
	{Prefix: "/account", Class: RouteProtected},
	{Prefix: "/commissions", Class: RouteProtected},
	{Prefix: "/export", Class: RouteProtected},
	{Prefix: "/", Class: RoutePublic},
}

// SessionChecker reports whether a session id maps to an active session.
type SessionChecker interface {
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
}

// Classify returns the classification for path: first matching rule wins.
// A prefix matches on a segment boundary, so "/listing" does not capture
// "/listings".
func Classify(rules []RouteRule, path string) RouteClass {
	for _, rule := range rules {
		if rule.Prefix == "/" {
			return rule.Class
		}
		if path == rule.Prefix || strings.HasPrefix(path, rule.Prefix+"/") {
			return rule.Class
		}
	}
	return RoutePublic
}

// Guard enforces the route table on page requests. Protected prefixes need a
// live session; without one the visitor is redirected to the not-found page.
// Any error while resolving the session counts as no session — the guard
// never allows access on error. Redirect rules rewrite fixed source paths
// before classification.
func Guard(rules []RouteRule, redirects map[string]string, sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if dest, ok := redirects[r.URL.Path]; ok {
				http.Redirect(w, r, dest, http.StatusFound)
				return
			}
			if Classify(rules, r.URL.Path) == RouteProtected && !hasSession(r, sessions) {
				slog.Warn("unauthorized access attempt", "path", r.URL.Path)
				http.Redirect(w, r, NotFoundPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasSession(r *http.Request, sessions SessionChecker) bool {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return false
	}
	sess, err := sessions.GetCurrent(r.Context(), c.Value)
	if err != nil {
		return false
	}
	return sess.Enable
}
