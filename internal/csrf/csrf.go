// csrf.go -- Double-submit CSRF protection backed by a tracked cookie pair.
//
// The secret lives only in the browser: a value cookie "<name>" and a sibling
// "<name>-expiration" holding the expiry as epoch milliseconds. The client
// echoes the secret in a form field or header and Verify compares the two.
// SameSite=Lax handles most cross-site cases; the token covers the rest.
package csrf

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/crypto/hkdf"
)

// HeaderName is the request header accepted as an alternative to the form field.
const HeaderName = "X-CSRF-Token"

// ExpirationSuffix names the companion cookie carrying the expiry.
const ExpirationSuffix = "-expiration"

// Action tells the caller whether the cookie pair must be (re)written.
type Action string

const (
	ActionSet  Action = "set"
	ActionNone Action = "none"
)

// State is the freshness of the pair found on the request.
type State int

const (
	NoToken State = iota
	FreshToken
	StaleToken
)

func (s State) String() string {
	switch s {
	case FreshToken:
		return "fresh"
	case StaleToken:
		return "stale"
	default:
		return "none"
	}
}

// Config controls cookie naming, lifetime and signing.
type Config struct {
	CookieName string
	InputName  string
	MaxAge     time.Duration
	// RefreshThreshold: a pair with less remaining lifetime is re-issued.
	RefreshThreshold time.Duration
	Secure           bool
	// Secret keys the value cookie signature. Empty disables signing.
	Secret string
}

// TrackedCookie is the result of Issue.
type TrackedCookie struct {
	Name      string
	Value     string
	Action    Action
	State     State
	ExpiresAt time.Time
}

// Guard issues and verifies CSRF tokens. Safe for concurrent use.
type Guard struct {
	cfg      Config
	key      []byte
	now      func() time.Time
	newToken func() (string, error)
}

// New builds a Guard. When cfg.Secret is set, the signing key is derived
// from it with HKDF.
func New(cfg Config) (*Guard, error) {
	if cfg.CookieName == "" {
		return nil, fmt.Errorf("csrf cookie name is required")
	}
	if cfg.MaxAge <= 0 {
		return nil, fmt.Errorf("csrf cookie max age must be positive, got %v", cfg.MaxAge)
	}

	g := &Guard{cfg: cfg, now: time.Now, newToken: newUUID}
	if cfg.Secret != "" {
		g.key = make([]byte, 32)
		kdf := hkdf.New(sha256.New, []byte(cfg.Secret), nil, []byte("csrf cookie signature"))
		if _, err := io.ReadFull(kdf, g.key); err != nil {
			return nil, fmt.Errorf("deriving csrf signing key: %w", err)
		}
	}
	return g, nil
}

// InputName is the form/JSON field the client echoes the token in.
func (g *Guard) InputName() string {
	return g.cfg.InputName
}

// newUUID returns a random (v4) UUID string.
func newUUID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("generating csrf token: %w", err)
	}
	return id.String(), nil
}

// Issue inspects the pair on r and decides what the client should hold.
// A missing or tampered value yields a new token; a pair close to expiry
// keeps its value and only gets a new expiry.
func (g *Guard) Issue(r *http.Request) (TrackedCookie, error) {
	tc := TrackedCookie{Name: g.cfg.CookieName, Action: ActionSet, State: NoToken}
	now := g.now()

	value := g.stored(r)
	if value == "" {
		token, err := g.newToken()
		if err != nil {
			return TrackedCookie{}, err
		}
		tc.Value = token
		tc.ExpiresAt = now.Add(g.cfg.MaxAge)
		return tc, nil
	}
	tc.Value = value

	var expiresAt time.Time
	if c, err := r.Cookie(g.cfg.CookieName + ExpirationSuffix); err == nil {
		if ms, err := strconv.ParseInt(c.Value, 10, 64); err == nil {
			expiresAt = time.UnixMilli(ms)
		}
	}

	if expiresAt.Sub(now) > g.cfg.RefreshThreshold {
		tc.Action = ActionNone
		tc.State = FreshToken
		tc.ExpiresAt = expiresAt
		return tc, nil
	}

	tc.State = StaleToken
	tc.ExpiresAt = now.Add(g.cfg.MaxAge)
	return tc, nil
}

// Write sets both cookies when tc.Action is ActionSet. Both carry the same
// lifetime and flags.
func (g *Guard) Write(w http.ResponseWriter, tc TrackedCookie) {
	if tc.Action != ActionSet || tc.Value == "" {
		return
	}
	maxAge := int(g.cfg.MaxAge / time.Second)

	http.SetCookie(w, g.cookie(tc.Name, g.sign(tc.Value), maxAge))
	http.SetCookie(w, g.cookie(tc.Name+ExpirationSuffix, strconv.FormatInt(tc.ExpiresAt.UnixMilli(), 10), maxAge))
}

func (g *Guard) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   g.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Verify reports whether submitted equals the secret held in r's cookie.
// Empty input on either side fails.
func (g *Guard) Verify(r *http.Request, submitted string) bool {
	if submitted == "" {
		return false
	}
	stored := g.stored(r)
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

// Submitted returns the client's copy of the token: the configured field in
// fields if present, otherwise the X-CSRF-Token header.
func (g *Guard) Submitted(r *http.Request, fields map[string]string) string {
	if v := strings.TrimSpace(fields[g.cfg.InputName]); v != "" {
		return v
	}
	return strings.TrimSpace(r.Header.Get(HeaderName))
}

// stored returns the verified secret from the value cookie, or "".
func (g *Guard) stored(r *http.Request) string {
	c, err := r.Cookie(g.cfg.CookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	if g.key == nil {
		return c.Value
	}
	value, sig, ok := strings.Cut(c.Value, ".")
	if !ok || value == "" {
		return ""
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(got, g.mac(value)) {
		return ""
	}
	return value
}

// sign appends the signature when a key is configured.
func (g *Guard) sign(value string) string {
	if g.key == nil {
		return value
	}
	return value + "." + base64.RawURLEncoding.EncodeToString(g.mac(value))
}

func (g *Guard) mac(value string) []byte {
	m := hmac.New(sha256.New, g.key)
	m.Write([]byte(value))
	return m.Sum(nil)
}
