// middleware.go

// Route classification middleware.
package site

import (
	"context"
	"net/http"

	"github.com/MGallo-Code/vitrine/internal/route"
)

// contextKey is unexported to prevent collisions with other packages using the same context.
type contextKey string

const matchKey contextKey = "route_match"

// MatchFromContext returns the route matched by Classify.
// Returns nil and false if Classify hasn't run or nothing matched.
func MatchFromContext(ctx context.Context) (*route.Match, bool) {
	m, ok := ctx.Value(matchKey).(*route.Match)
	return m, ok && m != nil
}

// Classify matches each request against the route table and stores the
// result in the context. Every response it passes gets nosniff.
func Classify(t *route.Table) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			if m := t.Match(r.URL.EscapedPath()); m != nil {
				r = r.WithContext(context.WithValue(r.Context(), matchKey, m))
			}
			next.ServeHTTP(w, r)
		})
	}
}
