// handler_test.go

// unit tests for the page, CSRF, contact and health handlers.

package site

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/MGallo-Code/vitrine/internal/contact"
	"github.com/MGallo-Code/vitrine/internal/csrf"
	"github.com/MGallo-Code/vitrine/internal/i18n"
	"github.com/MGallo-Code/vitrine/internal/route"
	"github.com/MGallo-Code/vitrine/internal/store"
	"github.com/MGallo-Code/vitrine/internal/testutil"
)

// --- Helper Functions ---

const testToken = "0b7e3a52-6f1d-4e2a-8c9b-5d4e3f2a1b0c"

// newTestHandler wires a Handler with mock cache and sender.
func newTestHandler(t *testing.T) (*Handler, *testutil.MockSender, *testutil.MockCache) {
	t.Helper()
	routes, err := route.Site()
	if err != nil {
		t.Fatalf("route.Site: %v", err)
	}
	guard, err := csrf.New(csrf.Config{
		CookieName:       "x-csrf-secret",
		InputName:        "x-csrf-token",
		MaxAge:           time.Hour,
		RefreshThreshold: 20 * time.Minute,
	})
	if err != nil {
		t.Fatalf("csrf.New: %v", err)
	}
	bundle, err := i18n.New("en", []string{"en", "ro"})
	if err != nil {
		t.Fatalf("i18n.New: %v", err)
	}
	sender := testutil.NewMockSender()
	cache := testutil.NewMockCache()
	flow := &contact.Flow{CSRF: guard, Sender: sender, Timeout: time.Second}

	return &Handler{
		Routes:       routes,
		CSRF:         guard,
		I18n:         bundle,
		Cache:        cache,
		CacheTTL:     time.Minute,
		API:          flow,
		Form:         flow,
		AppName:      "Vitrine",
		AppURL:       "https://vitrine.example",
		MailProvider: "log",
	}, sender, cache
}

// en translates key in English for expectations.
func en(h *Handler, key string) string {
	return h.I18n.Locale("en").Translate(key, nil)
}

// decodeContact reads a /api/contact response.
func decodeContact(t *testing.T, w *httptest.ResponseRecorder) contactResponse {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: expected application/json, got %q", ct)
	}
	var resp contactResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body %q: %v", w.Body.String(), err)
	}
	return resp
}

// formatMillis renders t the way the expiration cookie stores it.
func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func jsonContactRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.AddCookie(&http.Cookie{Name: "x-csrf-secret", Value: testToken})
	return r
}

// --- CSRFToken ---

func TestCSRFToken(t *testing.T) {
	t.Run("first call issues token, sets pair and security headers", func(t *testing.T) {
		h, _, _ := newTestHandler(t)
		w := httptest.NewRecorder()
		h.CSRFToken(w, httptest.NewRequest(http.MethodGet, "/api/csrf", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status: expected 200, got %d", w.Code)
		}
		for k, v := range securityHeaders {
			if got := w.Header().Get(k); got != v {
				t.Errorf("%s: expected %q, got %q", k, v, got)
			}
		}

		var resp struct {
			Data struct {
				CSRFToken string `json:"csrfToken"`
			} `json:"data"`
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if !resp.Success || resp.Message != "" || resp.Data.CSRFToken == "" {
			t.Errorf("unexpected body %s", w.Body.String())
		}

		cookies := w.Result().Cookies()
		if len(cookies) != 2 {
			t.Fatalf("expected 2 cookies, got %d", len(cookies))
		}
		if cookies[0].Value != resp.Data.CSRFToken {
			t.Errorf("cookie value %q does not match token %q", cookies[0].Value, resp.Data.CSRFToken)
		}
	})

	t.Run("fresh pair is returned without new cookies", func(t *testing.T) {
		h, _, _ := newTestHandler(t)
		r := httptest.NewRequest(http.MethodGet, "/api/csrf", nil)
		r.AddCookie(&http.Cookie{Name: "x-csrf-secret", Value: testToken})
		r.AddCookie(&http.Cookie{Name: "x-csrf-secret-expiration", Value: formatMillis(time.Now().Add(time.Hour))})
		w := httptest.NewRecorder()

		h.CSRFToken(w, r)

		if len(w.Result().Cookies()) != 0 {
			t.Errorf("expected no Set-Cookie, got %v", w.Result().Cookies())
		}
		if !strings.Contains(w.Body.String(), testToken) {
			t.Errorf("expected existing token in body, got %s", w.Body.String())
		}
	})
}

// --- ContactAPI ---

func TestContactAPI(t *testing.T) {
	valid := `{"name":"Ana","email":"ana@example.com","company":"","message":"Hello","x-csrf-token":"` + testToken + `"}`

	t.Run("valid submission succeeds and sends once", func(t *testing.T) {
		h, sender, _ := newTestHandler(t)
		w := httptest.NewRecorder()
		h.ContactAPI(w, jsonContactRequest(valid))

		resp := decodeContact(t, w)
		if !resp.Success || resp.Message != en(h, "contact.message.success") {
			t.Errorf("unexpected response %+v", resp)
		}
		if sender.Calls() != 1 {
			t.Errorf("expected 1 send, got %d", sender.Calls())
		}
		if !strings.Contains(w.Body.String(), `"errors":{}`) {
			t.Errorf("errors should be an empty object, got %s", w.Body.String())
		}
	})

	t.Run("csrf failure is 200 with success false", func(t *testing.T) {
		h, sender, _ := newTestHandler(t)
		body := strings.Replace(valid, testToken, "forged", 1)
		w := httptest.NewRecorder()
		h.ContactAPI(w, jsonContactRequest(body))

		resp := decodeContact(t, w)
		if resp.Success || resp.Message != en(h, "app.error.csrf") {
			t.Errorf("unexpected response %+v", resp)
		}
		if sender.Calls() != 0 {
			t.Error("sender should not run")
		}
	})

	t.Run("validation errors are keyed by field", func(t *testing.T) {
		h, _, _ := newTestHandler(t)
		body := `{"name":"","email":"not-an-email","message":"","x-csrf-token":"` + testToken + `"}`
		w := httptest.NewRecorder()
		h.ContactAPI(w, jsonContactRequest(body))

		resp := decodeContact(t, w)
		if resp.Success {
			t.Fatal("expected success false")
		}
		if len(resp.Errors) != 3 {
			t.Errorf("expected 3 field errors, got %v", resp.Errors)
		}
		if resp.Errors["email"][0] != en(h, "contact.validation.email_invalid") {
			t.Errorf("unexpected email error %q", resp.Errors["email"][0])
		}
	})

	t.Run("send failure hides the cause", func(t *testing.T) {
		h, sender, _ := newTestHandler(t)
		sender.Err = errors.New("ses: AccessDenied for arn:aws:ses:secret")
		w := httptest.NewRecorder()
		h.ContactAPI(w, jsonContactRequest(valid))

		resp := decodeContact(t, w)
		if resp.Success || resp.Message != en(h, "app.error.form") {
			t.Errorf("unexpected response %+v", resp)
		}
		if strings.Contains(w.Body.String(), "AccessDenied") {
			t.Error("internal error leaked to client")
		}
	})

	t.Run("rate limited submission is 200 and never sends", func(t *testing.T) {
		h, sender, _ := newTestHandler(t)
		limiter := &testutil.MockRateLimiter{Err: store.ErrRateLimitExceeded}
		h.API.RL = limiter
		r := jsonContactRequest(valid)
		r.RemoteAddr = "192.0.2.7:40000"
		w := httptest.NewRecorder()
		h.ContactAPI(w, r)

		resp := decodeContact(t, w)
		if resp.Success || resp.Message != en(h, "app.error.rate_limit") {
			t.Errorf("unexpected response %+v", resp)
		}
		if sender.Calls() != 0 {
			t.Error("sender should not run")
		}
		if len(limiter.Keys) != 1 || limiter.Keys[0] != "contact:192.0.2.7" {
			t.Errorf("expected limiter key contact:192.0.2.7, got %v", limiter.Keys)
		}
	})

	t.Run("limiter failure lets the message through", func(t *testing.T) {
		h, sender, _ := newTestHandler(t)
		h.API.RL = &testutil.MockRateLimiter{Err: errors.New("redis: connection refused")}
		w := httptest.NewRecorder()
		h.ContactAPI(w, jsonContactRequest(valid))

		if resp := decodeContact(t, w); !resp.Success || sender.Calls() != 1 {
			t.Errorf("expected success with one send, got %+v calls=%d", resp, sender.Calls())
		}
	})

	t.Run("malformed JSON is still 200", func(t *testing.T) {
		h, sender, _ := newTestHandler(t)
		w := httptest.NewRecorder()
		h.ContactAPI(w, jsonContactRequest(`{"name":`))

		resp := decodeContact(t, w)
		if resp.Success || resp.Message != en(h, "app.error.form") {
			t.Errorf("unexpected response %+v", resp)
		}
		if sender.Calls() != 0 {
			t.Error("sender should not run")
		}
	})

	t.Run("urlencoded form body is accepted", func(t *testing.T) {
		h, sender, _ := newTestHandler(t)
		form := url.Values{
			"name": {"Ana"}, "email": {"ana@example.com"}, "message": {"Hello"},
			"x-csrf-token": {testToken},
		}
		r := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.AddCookie(&http.Cookie{Name: "x-csrf-secret", Value: testToken})
		w := httptest.NewRecorder()

		h.ContactAPI(w, r)

		if resp := decodeContact(t, w); !resp.Success || sender.Calls() != 1 {
			t.Errorf("expected success with one send, got %+v calls=%d", resp, sender.Calls())
		}
	})

	t.Run("Accept-Language selects the message language", func(t *testing.T) {
		h, _, _ := newTestHandler(t)
		r := jsonContactRequest(`{"x-csrf-token":"nope"}`)
		r.Header.Set("Accept-Language", "ro-RO,ro;q=0.9")
		w := httptest.NewRecorder()
		h.ContactAPI(w, r)

		want := h.I18n.Locale("ro").Translate("app.error.csrf", nil)
		if resp := decodeContact(t, w); resp.Message != want {
			t.Errorf("expected %q, got %q", want, resp.Message)
		}
	})
}

// --- ContactPage / ContactSubmit ---

func TestContactPage(t *testing.T) {
	t.Run("renders the form with a token and sets cookies", func(t *testing.T) {
		h, _, _ := newTestHandler(t)
		w := httptest.NewRecorder()
		h.ContactPage(w, httptest.NewRequest(http.MethodGet, "/contact", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status: expected 200, got %d", w.Code)
		}
		body := w.Body.String()
		if !strings.Contains(body, `name="x-csrf-token"`) {
			t.Error("expected hidden CSRF field")
		}
		cookies := w.Result().Cookies()
		if len(cookies) != 2 || !strings.Contains(body, cookies[0].Value) {
			t.Errorf("expected the issued token in the form, cookies %v", cookies)
		}
		if w.Header().Get("Cache-Control") != "no-store" {
			t.Errorf("contact page must not be cached, got %q", w.Header().Get("Cache-Control"))
		}
	})
}

func TestContactSubmit(t *testing.T) {
	post := func(h *Handler, form url.Values) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.AddCookie(&http.Cookie{Name: "x-csrf-secret", Value: testToken})
		w := httptest.NewRecorder()
		h.ContactSubmit(w, r)
		return w
	}

	t.Run("success shows message and clears values", func(t *testing.T) {
		h, sender, _ := newTestHandler(t)
		w := post(h, url.Values{
			"name": {"Ana"}, "email": {"ana@example.com"}, "message": {"Hello there"},
			"x-csrf-token": {testToken},
		})

		body := w.Body.String()
		if !strings.Contains(body, "notice-success") {
			t.Errorf("expected success notice in page")
		}
		if strings.Contains(body, "Hello there") {
			t.Error("values should be cleared after success")
		}
		if sender.Calls() != 1 {
			t.Errorf("expected 1 send, got %d", sender.Calls())
		}
	})

	t.Run("validation errors keep values and show messages", func(t *testing.T) {
		h, sender, _ := newTestHandler(t)
		w := post(h, url.Values{
			"name": {"Ana"}, "email": {"ana@"}, "message": {"Hello there"},
			"x-csrf-token": {testToken},
		})

		body := w.Body.String()
		if !strings.Contains(body, "notice-error") || !strings.Contains(body, "field-error") {
			t.Error("expected error notice and field errors")
		}
		if !strings.Contains(body, "Hello there") {
			t.Error("values should be kept on error")
		}
		if sender.Calls() != 0 {
			t.Error("sender should not run")
		}
	})

	t.Run("csrf failure renders csrf notice", func(t *testing.T) {
		h, _, _ := newTestHandler(t)
		w := post(h, url.Values{"name": {"Ana"}})

		if !strings.Contains(w.Body.String(), "notice-csrf_error") {
			t.Error("expected csrf notice")
		}
	})
}

// --- Page ---

func TestPage(t *testing.T) {
	t.Run("renders and caches per language", func(t *testing.T) {
		h, _, cache := newTestHandler(t)
		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			h.Page(route.Home)(w, httptest.NewRequest(http.MethodGet, "/", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("status: expected 200, got %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Errorf("Content-Type: got %q", ct)
			}
			if !strings.Contains(w.Body.String(), en(h, "home.hero.title")) {
				t.Error("expected hero title in body")
			}
		}
		if cache.FetchCalls != 1 {
			t.Errorf("expected 1 render, got %d", cache.FetchCalls)
		}
		if _, ok := cache.Data["page:en:home"]; !ok {
			t.Errorf("expected cache key page:en:home, got %v", cache.Data)
		}
	})

	t.Run("lang query overrides Accept-Language", func(t *testing.T) {
		h, _, cache := newTestHandler(t)
		r := httptest.NewRequest(http.MethodGet, "/terms?lang=ro", nil)
		r.Header.Set("Accept-Language", "en")
		w := httptest.NewRecorder()
		h.Page(route.Terms)(w, r)

		if !strings.Contains(w.Body.String(), `<html lang="ro">`) {
			t.Error("expected Romanian page")
		}
		if _, ok := cache.Data["page:ro:terms"]; !ok {
			t.Errorf("expected cache key page:ro:terms, got %v", cache.Data)
		}
	})

	t.Run("app name is substituted in the title", func(t *testing.T) {
		h, _, _ := newTestHandler(t)
		w := httptest.NewRecorder()
		h.Page(route.Resources)(w, httptest.NewRequest(http.MethodGet, "/resources", nil))

		if !strings.Contains(w.Body.String(), "<title>Resources | Vitrine</title>") {
			t.Errorf("unexpected title in %s", w.Body.String())
		}
	})

	t.Run("zero TTL renders every time", func(t *testing.T) {
		h, _, cache := newTestHandler(t)
		h.CacheTTL = 0
		for i := 0; i < 2; i++ {
			h.Page(route.Home)(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		}
		if cache.FetchCalls != 2 {
			t.Errorf("expected 2 renders, got %d", cache.FetchCalls)
		}
	})
}

// --- CheckHealth ---

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantRedis  string
	}{
		{"redis ok", nil, http.StatusOK, "ok"},
		{"redis disabled", store.ErrCacheDisabled, http.StatusOK, "disabled"},
		{"redis down", errors.New("dial tcp: refused"), http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, cache := newTestHandler(t)
			cache.HealthErr = tt.err
			w := httptest.NewRecorder()
			h.CheckHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status: expected %d, got %d", tt.wantStatus, w.Code)
			}
			var resp struct {
				Redis string `json:"redis"`
				Mail  string `json:"mail"`
			}
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Redis != tt.wantRedis || resp.Mail != "log" {
				t.Errorf("unexpected body %s", w.Body.String())
			}
		})
	}
}
