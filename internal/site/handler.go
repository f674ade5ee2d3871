// handler.go -- Dependencies shared by all site handlers.
package site

import (
	"context"
	"net/http"
	"time"

	"github.com/MGallo-Code/vitrine/internal/contact"
	"github.com/MGallo-Code/vitrine/internal/csrf"
	"github.com/MGallo-Code/vitrine/internal/i18n"
	"github.com/MGallo-Code/vitrine/internal/route"
	"github.com/MGallo-Code/vitrine/internal/store"
)

// Cache stores rendered pages.
// Satisfied by *store.RedisStore and store.NopCache -- defined here (at consumer) per Go convention.
type Cache interface {
	// Remember returns the cached value for key or stores what fetch produces.
	Remember(ctx context.Context, key string, ttl time.Duration, fetch store.FetchFunc) (string, error)

	// CheckHealth pings the backing store. store.ErrCacheDisabled means none is configured.
	CheckHealth(ctx context.Context) error
}

// Handler holds dependencies for all page and API handlers.
type Handler struct {
	Routes   *route.Table
	CSRF     *csrf.Guard
	I18n     *i18n.Bundle
	Cache    Cache
	CacheTTL time.Duration

	// API backs POST /api/contact, Form backs the HTML form action.
	API  *contact.Flow
	Form *contact.Flow

	AppName        string
	AppURL         string
	MailProvider   string
	CaptchaSiteKey string
}

// locale picks the request language: a supported ?lang= wins, then
// Accept-Language, then the default.
func (h *Handler) locale(r *http.Request) i18n.Locale {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		for _, l := range h.I18n.Languages() {
			if l == lang {
				return h.I18n.Locale(lang)
			}
		}
	}
	return h.I18n.Locale(h.I18n.Negotiate(r.Header.Get("Accept-Language")))
}
