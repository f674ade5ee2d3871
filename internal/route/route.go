// Package route holds the named route table used both to build links and to
// classify incoming requests.
//
// Patterns are literal paths with two kinds of parameter segment:
//
//	/users/:id       one path segment, captured as "id"
//	/files/:path*    one or more trailing segments, captured joined by "/"
//
// A bare "*" matches anything. Patterns may carry a static query part
// ("/search?tab=all") which Get preserves and Match ignores.
package route

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// ErrInvalidRoute is returned by Add when the name or path is empty.
var ErrInvalidRoute = errors.New("route name and path are required")

// ErrRouteNotFound is returned by Get for an unregistered name.
var ErrRouteNotFound = errors.New("route not defined")

// Auth tags the authorization posture of a route.
type Auth string

const (
	AuthPublic          Auth = "public"
	AuthUnauthenticated Auth = "unauthenticated"
	AuthAuthenticated   Auth = "authenticated"
	AuthProtected       Auth = "protected" // admin or operator
)

// Props is the metadata attached to a route.
type Props struct {
	Type       string
	Auth       Auth
	Permission string
}

// Definition is one registered route.
type Definition struct {
	Name  string
	Path  string
	Props Props
}

// Match is the result of matching a request path.
type Match struct {
	Name   string
	Props  Props
	Params map[string]string
}

// Args supplies parameter values to Get. Values may be strings, numbers,
// fmt.Stringers, or []string for wildcard (":name*") segments.
type Args map[string]any

// compiled is the cached matcher for one pattern.
type compiled struct {
	re     *regexp.Regexp
	params []string
}

// Table is a registry of named routes. Registration happens once at startup;
// Get and Match are safe for concurrent use afterwards.
type Table struct {
	mu       sync.RWMutex
	order    []string
	defs     map[string]Definition
	compiled map[string]*compiled
}

// New returns an empty Table.
func New() *Table {
	return &Table{
		defs:     make(map[string]Definition),
		compiled: make(map[string]*compiled),
	}
}

// Add registers a route. Re-registering a name overwrites the definition but
// keeps its original position in match order.
func (t *Table) Add(name, path string, props ...Props) error {
	if name == "" || path == "" {
		return fmt.Errorf("%w (name=%q path=%q)", ErrInvalidRoute, name, path)
	}

	var p Props
	if len(props) > 0 {
		p = props[0]
	}
	if p.Auth == "" {
		p.Auth = AuthPublic
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.defs[name]; !exists {
		t.order = append(t.order, name)
	}
	t.defs[name] = Definition{Name: name, Path: path, Props: p}
	delete(t.compiled, name)
	return nil
}

// Routes returns all definitions in registration order.
func (t *Table) Routes() []Definition {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Definition, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.defs[name])
	}
	return out
}

// Get builds the concrete path for name. Tokens without a matching arg are
// left in place. A []string fills a ":name*" token; a scalar replaces
// ":name" and leaves any trailing "*".
func (t *Table) Get(name string, args Args) (string, error) {
	t.mu.RLock()
	def, ok := t.defs[name]
	t.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrRouteNotFound, name)
	}

	base, query, hasQuery := strings.Cut(def.Path, "?")
	path := replaceParams(base, args)
	if hasQuery && query != "" {
		return path + "?" + query, nil
	}
	return path, nil
}

// MustGet is Get for names known at compile time; it panics on error.
func (t *Table) MustGet(name string, args Args) string {
	p, err := t.Get(name, args)
	if err != nil {
		panic(err)
	}
	return p
}

// Match returns the first route, in registration order, whose pattern
// matches pathname, or nil. pathname may include a query string.
func (t *Table) Match(pathname string) *Match {
	t.mu.RLock()
	order := t.order
	t.mu.RUnlock()

	for _, name := range order {
		c, def := t.matcher(name)
		if c == nil {
			continue
		}
		sub := c.re.FindStringSubmatch(pathname)
		if sub == nil {
			continue
		}
		params := make(map[string]string, len(c.params))
		for i, param := range c.params {
			params[param] = unescape(sub[i+1])
		}
		return &Match{Name: name, Props: def.Props, Params: params}
	}
	return nil
}

// matcher returns the compiled pattern for name, compiling it on first use.
func (t *Table) matcher(name string) (*compiled, Definition) {
	t.mu.RLock()
	def := t.defs[name]
	c := t.compiled[name]
	t.mu.RUnlock()
	if c != nil {
		return c, def
	}

	c, err := compile(def.Path)
	if err != nil {
		// Literals are quoted, so this does not happen in practice.
		return nil, def
	}
	t.mu.Lock()
	t.compiled[name] = c
	t.mu.Unlock()
	return c, def
}

// tokenRe finds ":name" and ":name*" tokens anywhere in a pattern.
var tokenRe = regexp.MustCompile(`:(\w+)(\*)?`)

// segmentRe finds parameter tokens that occupy a whole path segment.
var segmentRe = regexp.MustCompile(`/:(\w+)(\*)?`)

// compile turns a pattern into an anchored regexp. The static query part
// is dropped and any query string on the request is tolerated.
func compile(pattern string) (*compiled, error) {
	base, _, _ := strings.Cut(pattern, "?")

	var b strings.Builder
	var params []string
	b.WriteString("^")

	last := 0
	for _, loc := range segmentRe.FindAllStringSubmatchIndex(base, -1) {
		b.WriteString(literal(base[last:loc[0]]))
		params = append(params, base[loc[2]:loc[3]])
		if loc[4] >= 0 {
			b.WriteString(`/([^/?]+(?:/[^/?]+)*)`)
		} else {
			b.WriteString(`/([^/?]+)`)
		}
		last = loc[1]
	}
	b.WriteString(literal(base[last:]))
	b.WriteString(`(?:\?.*)?$`)

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compiling route pattern %q: %w", pattern, err)
	}
	return &compiled{re: re, params: params}, nil
}

// literal escapes a static chunk, keeping bare "*" as an unrestricted wildcard.
func literal(s string) string {
	parts := strings.Split(s, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(parts, ".*")
}

// replaceParams substitutes args into the tokens of path.
func replaceParams(path string, args Args) string {
	if len(args) == 0 {
		return path
	}
	return tokenRe.ReplaceAllStringFunc(path, func(tok string) string {
		sub := tokenRe.FindStringSubmatch(tok)
		name, wildcard := sub[1], sub[2] == "*"

		v, ok := args[name]
		if !ok {
			return tok
		}
		if list, isList := v.([]string); isList {
			if !wildcard {
				return tok
			}
			encoded := make([]string, len(list))
			for i, s := range list {
				encoded[i] = EncodeComponent(s)
			}
			return strings.Join(encoded, "/")
		}
		out := EncodeComponent(fmt.Sprint(v))
		if wildcard {
			// A scalar fills ":name" only.
			out += "*"
		}
		return out
	})
}

// unescape decodes a captured segment, returning it raw if malformed.
func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}

// EncodeComponent percent-encodes s the way browsers encode a URI component:
// everything except A-Z a-z 0-9 and - _ . ! ~ * ' ( ) is escaped.
func EncodeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
