// Package origin rejects requests whose Origin or Referer header points at a
// site outside the configured allow-list.
package origin

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// IsBlocked reports whether a request with these headers should be refused.
// Requests with neither header are allowed; same-origin navigations often
// omit both. Origin is compared verbatim, Referer by its scheme://host.
func IsBlocked(origin, referer string, allow []string) bool {
	if origin == "" && referer == "" {
		return false
	}
	if origin != "" && slices.Contains(allow, origin) {
		return false
	}
	if referer != "" {
		ref, ok := refererOrigin(referer)
		if !ok {
			slog.Warn("invalid referer URL", "referer", referer)
			return true
		}
		if slices.Contains(allow, ref) {
			return false
		}
	}
	return true
}

// refererOrigin reduces an absolute URL to scheme://host, dropping the
// scheme's default port the way browsers serialize an origin.
func refererOrigin(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	return scheme + "://" + host, true
}

// Guard returns middleware applying IsBlocked to every request except HEAD
// and OPTIONS. Blocked requests get a plain-text 403 and never reach next.
func Guard(allow []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if IsBlocked(r.Header.Get("Origin"), r.Header.Get("Referer"), allow) {
				slog.Warn("blocked cross-origin request",
					"ip", r.RemoteAddr,
					"method", r.Method,
					"path", r.URL.Path,
					"origin", r.Header.Get("Origin"),
					"referer", r.Header.Get("Referer"),
				)
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte("Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
