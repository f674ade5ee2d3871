package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/MGallo-Code/vitrine/internal/captcha"
	"github.com/MGallo-Code/vitrine/internal/config"
	"github.com/MGallo-Code/vitrine/internal/contact"
	"github.com/MGallo-Code/vitrine/internal/csrf"
	"github.com/MGallo-Code/vitrine/internal/i18n"
	"github.com/MGallo-Code/vitrine/internal/mail"
	"github.com/MGallo-Code/vitrine/internal/origin"
	"github.com/MGallo-Code/vitrine/internal/route"
	"github.com/MGallo-Code/vitrine/internal/site"
	"github.com/MGallo-Code/vitrine/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// setupLogging installs the JSON slog handler at the configured level.
func setupLogging(cfg *config.Config) {
	// Include source location in log entries at debug level only.
	addSrc := cfg.LogLevel == slog.LevelDebug

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     cfg.LogLevel,
		AddSource: addSrc,
	})))
}

// run holds all server logic and returns error instead of calling os.Exit,
// so deferred resource cleanup (Redis close) always runs.
// Shuts down when ctx is cancelled (signal handling is the caller's concern).
// If ready is non-nil, the server's base URL is sent on it once the listener is bound.
// A non-nil ml replaces the configured mail transport (tests).
func run(ctx context.Context, cfg *config.Config, ready chan<- string, ml mail.Mailer) error {
	h, cleanup, err := newHandler(ctx, cfg, ml)
	if err != nil {
		return err
	}
	defer cleanup()

	// Bind listener; ":0" picks a free port (useful in tests).
	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	server := &http.Server{
		Handler:           buildRouter(h, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine; run() continues past this.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("vitrine listening", "addr", ln.Addr().String(), "env", cfg.Environment)
		// Send error only if server stops for a reason other than explicit shutdown.
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Signal readiness to caller (used by tests; nil in production).
	if ready != nil {
		ready <- "http://" + ln.Addr().String()
	}

	// Wait for server error or shutdown signal from ctx.
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	// Stops accepting, waits for in-flight requests, gives up after 30s.
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// newHandler constructs every service once and wires them into a site.Handler.
// cleanup releases the Redis pool.
func newHandler(ctx context.Context, cfg *config.Config, ml mail.Mailer) (*site.Handler, func(), error) {
	cleanup := func() {}

	routes, err := route.Site()
	if err != nil {
		return nil, cleanup, fmt.Errorf("building route table: %w", err)
	}

	guard, err := csrf.New(csrf.Config{
		CookieName:       cfg.CSRF.CookieName,
		InputName:        cfg.CSRF.InputName,
		MaxAge:           cfg.CSRF.CookieMaxAge,
		RefreshThreshold: cfg.CSRF.RefreshThreshold,
		Secure:           cfg.IsProduction(),
		Secret:           cfg.AppSecret,
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("setting up csrf: %w", err)
	}

	bundle, err := i18n.New(cfg.Language, cfg.SupportedLanguages)
	if err != nil {
		return nil, cleanup, fmt.Errorf("loading translations: %w", err)
	}

	// Redis is optional: without it pages are rendered every time and
	// contact submissions are not rate limited.
	var cache site.Cache = store.NopCache{}
	var rl contact.RateLimiter
	if cfg.RedisURL != "" {
		rs, err := store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to set up redis store: %w", err)
		}
		cleanup = func() { rs.Close() }
		cache = rs
		rl = store.NewRedisRateLimiter(rs.Client())
	} else {
		slog.Warn("REDIS_URL not set, caching and rate limiting disabled")
	}

	if ml == nil {
		ml, err = newMailer(ctx, cfg.Mail)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
	}

	mailSender := &contact.MailSender{
		Mailer:     ml,
		From:       mail.Address{Name: cfg.Mail.FromName, Address: cfg.Mail.FromAddress},
		To:         mail.Address{Name: cfg.AppName, Address: cfg.Contact.Email},
		Translator: bundle.Locale(cfg.Language),
		Lang:       cfg.Language,
		Vars:       map[string]string{"app_name": cfg.AppName},
	}

	var cv contact.CaptchaVerifier = captcha.NopVerifier{}
	if cfg.Contact.TurnstileSecret != "" {
		cv = captcha.NewTurnstileVerifier(cfg.Contact.TurnstileSecret)
	}

	apiFlow := &contact.Flow{
		CSRF:         guard,
		Sender:       mailSender,
		Captcha:      cv,
		CaptchaField: captcha.ResponseField,
		RL:           rl,
		RatePolicy: store.RateLimit{
			MaxAttempts: cfg.Contact.RateMax,
			Window:      cfg.Contact.RateWindow,
			LockoutTTL:  cfg.Contact.RateLockout,
		},
		Timeout: cfg.Contact.Timeout,
	}

	// The HTML form goes through the same steps; only delivery may differ.
	formFlow := *apiFlow
	if cfg.Contact.Sender == "api" {
		formFlow.Sender = contact.NewAPISender(cfg.Contact.RemoteAPIURL)
	}

	h := &site.Handler{
		Routes:         routes,
		CSRF:           guard,
		I18n:           bundle,
		Cache:          cache,
		CacheTTL:       cfg.CacheTTL,
		API:            apiFlow,
		Form:           &formFlow,
		AppName:        cfg.AppName,
		AppURL:         cfg.AppURL,
		MailProvider:   cfg.Mail.Provider,
		CaptchaSiteKey: cfg.Contact.TurnstileSiteKey,
	}
	return h, cleanup, nil
}

// newMailer picks the transport named by MAIL_PROVIDER.
func newMailer(ctx context.Context, cfg config.MailConfig) (mail.Mailer, error) {
	switch cfg.Provider {
	case "smtp":
		m, err := mail.NewSMTPMailer(mail.SMTPConfig{
			Host:        cfg.Host,
			Port:        cfg.Port,
			Username:    cfg.Username,
			Password:    cfg.Password,
			ImplicitTLS: cfg.Encryption,
			Insecure:    cfg.Insecure,
		})
		if err != nil {
			return nil, fmt.Errorf("setting up smtp mailer: %w", err)
		}
		return m, nil
	case "ses":
		m, err := mail.NewSESMailer(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("setting up ses mailer: %w", err)
		}
		return m, nil
	default:
		slog.Warn("mail provider discards messages", "provider", cfg.Provider)
		return mail.NopMailer{}, nil
	}
}

// buildRouter wires all routes and middleware. Paths come from the route table.
// Called from run() and from smoke tests.
func buildRouter(h *site.Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	// Origin check runs before any route logic.
	r.Use(origin.Guard(allowedOrigins))
	r.Use(site.Classify(h.Routes))

	path := func(name string) string { return h.Routes.MustGet(name, nil) }

	for _, name := range []string{route.Home, route.Terms, route.Resources, route.ProtectedUnit} {
		r.Get(path(name), h.Page(name))
	}
	r.Get(path(route.Contact), h.ContactPage)
	r.Post(path(route.Contact), h.ContactSubmit)

	r.Get(path(route.CSRF), h.CSRFToken)
	r.Post(path(route.APIContact), h.ContactAPI)

	r.Get(path(route.Health), h.CheckHealth)

	return r
}
