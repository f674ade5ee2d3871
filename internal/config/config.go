// config.go

// Environment and .env loading into a typed Config.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// CSRFConfig controls the double-submit cookie pair.
type CSRFConfig struct {
	CookieName string
	// CookieMaxAge is the lifetime of both the secret and expiration cookies.
	CookieMaxAge time.Duration
	// InputName is the form/JSON field carrying the client copy of the token.
	InputName string
	// RefreshThreshold: a pair with less remaining lifetime than this is re-issued.
	RefreshThreshold time.Duration
}

// MailConfig selects and configures the outbound email transport.
type MailConfig struct {
	Provider    string // smtp | ses | nop | log
	Host        string
	Port        string
	Encryption  bool // implicit TLS (port 465 style)
	Insecure    bool // allow plaintext SMTP, local dev only
	Username    string
	Password    string
	FromName    string
	FromAddress string
	AWSRegion   string
}

// ContactConfig controls where contact submissions go.
type ContactConfig struct {
	Email        string
	Sender       string // mail | api
	RemoteAPIURL string
	Timeout      time.Duration

	// Per-IP submission limit. RateMax 0 disables limiting.
	RateMax     int
	RateWindow  time.Duration
	RateLockout time.Duration

	// TurnstileSecret enables the captcha step when non-empty.
	TurnstileSecret  string
	TurnstileSiteKey string
}

// Config holds all configuration for the site.
type Config struct {
	Port        string
	LogLevel    slog.Level
	Environment string

	AppName  string
	AppURL   string
	AppEmail string
	// AppSecret keys the CSRF cookie signature. Empty disables signing.
	AppSecret string

	Language           string
	SupportedLanguages []string

	AllowedOrigins []string

	CSRF    CSRFConfig
	Mail    MailConfig
	Contact ContactConfig

	// RedisURL empty means caching and rate limiting are disabled.
	RedisURL string
	// CacheTTL is the default expiry; 0 disables caching.
	CacheTTL time.Duration
}

// IsProduction reports whether the site runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsSupportedLanguage reports whether lang is in SupportedLanguages.
func (c *Config) IsSupportedLanguage(lang string) bool {
	for _, l := range c.SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// LoadConfig reads envPath (if it exists) then the process environment and
// returns a validated Config. Non-empty process variables win over the file.
func LoadConfig(envPath string) (*Config, error) {
	k := koanf.New(".")

	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			if err := k.Load(file.Provider(envPath), dotenv.Parser()); err != nil {
				return nil, fmt.Errorf("loading %s: %w", envPath, err)
			}
		}
	}
	// Empty variables count as unset so they don't mask the file.
	skipEmpty := func(key, value string) (string, any) {
		if value == "" {
			return "", nil
		}
		return key, value
	}
	if err := k.Load(env.ProviderWithValue("", ".", skipEmpty), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	return fromKoanf(k)
}

// fromKoanf converts raw keys into Config, applying defaults.
func fromKoanf(k *koanf.Koanf) (*Config, error) {
	cfg := &Config{}

	cfg.Port = str(k, "PORT", "7865")

	switch strings.ToLower(k.String("LOG_LEVEL")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	cfg.Environment = str(k, "APP_ENV", "production")
	cfg.AppName = k.String("APP_NAME")
	cfg.AppURL = strings.TrimRight(k.String("APP_URL"), "/")
	cfg.AppEmail = k.String("APP_EMAIL")
	cfg.AppSecret = k.String("APP_SECRET")

	cfg.Language = str(k, "APP_LANGUAGE", "en")
	cfg.SupportedLanguages = list(k, "APP_SUPPORTED_LANGUAGES", []string{"en"})
	if !cfg.IsSupportedLanguage(cfg.Language) {
		return nil, fmt.Errorf("APP_LANGUAGE %q is not listed in APP_SUPPORTED_LANGUAGES", cfg.Language)
	}

	cfg.AllowedOrigins = list(k, "ALLOWED_ORIGINS", []string{"http://localhost"})

	cfg.CSRF = CSRFConfig{
		CookieName:       str(k, "CSRF_COOKIE_NAME", "x-csrf-secret"),
		CookieMaxAge:     seconds(k, "CSRF_COOKIE_MAX_AGE", time.Hour, false),
		InputName:        str(k, "CSRF_INPUT_NAME", "x-csrf-token"),
		RefreshThreshold: seconds(k, "CSRF_REFRESH_THRESHOLD", 20*time.Minute, true),
	}

	cfg.Mail = MailConfig{
		Provider:    strings.ToLower(str(k, "MAIL_PROVIDER", "ses")),
		Host:        k.String("MAIL_HOST"),
		Port:        str(k, "MAIL_PORT", "2525"),
		Encryption:  k.String("MAIL_ENCRYPTION") == "true",
		Insecure:    k.String("MAIL_INSECURE") == "true",
		Username:    k.String("MAIL_USERNAME"),
		Password:    k.String("MAIL_PASSWORD"),
		FromName:    cfg.AppName,
		FromAddress: k.String("MAIL_FROM_ADDRESS"),
		AWSRegion:   str(k, "AWS_REGION", "eu-north-1"),
	}
	switch cfg.Mail.Provider {
	case "smtp", "ses", "nop", "log":
	default:
		return nil, fmt.Errorf("MAIL_PROVIDER must be one of smtp, ses, nop, log; got %q", cfg.Mail.Provider)
	}

	cfg.Contact = ContactConfig{
		Email:           str(k, "CONTACT_EMAIL", cfg.AppEmail),
		Sender:          strings.ToLower(str(k, "CONTACT_SENDER", "mail")),
		RemoteAPIURL:    strings.TrimRight(k.String("REMOTE_API_URL"), "/"),
		Timeout:         seconds(k, "CONTACT_TIMEOUT", 10*time.Second, false),
		RateMax:         intVal(k, "RATE_CONTACT_MAX", 5),
		RateWindow:      seconds(k, "RATE_CONTACT_WINDOW", time.Hour, false),
		RateLockout:     seconds(k, "RATE_CONTACT_LOCKOUT", time.Hour, false),
		TurnstileSecret: k.String("TURNSTILE_SECRET"),
	}
	cfg.Contact.TurnstileSiteKey = k.String("TURNSTILE_SITE_KEY")
	if cfg.Contact.TurnstileSecret != "" && cfg.Contact.TurnstileSiteKey == "" {
		return nil, fmt.Errorf("TURNSTILE_SITE_KEY must be set when TURNSTILE_SECRET is")
	}
	if cfg.Contact.Sender == "api" && !strings.HasPrefix(cfg.Contact.RemoteAPIURL, "http") {
		return nil, fmt.Errorf("REMOTE_API_URL must be set when CONTACT_SENDER=api")
	}

	cfg.RedisURL = k.String("REDIS_URL")
	cfg.CacheTTL = seconds(k, "CACHE_TTL", 60*time.Second, true)

	for _, key := range missingKeys(cfg) {
		slog.Warn("required config value is missing, contact submissions will fail", "key", key)
	}

	return cfg, nil
}

// missingKeys lists the variables a working contact flow needs but which
// are unset. Loading still succeeds so pages keep serving.
func missingKeys(cfg *Config) []string {
	var missing []string
	if cfg.Contact.Email == "" {
		missing = append(missing, "CONTACT_EMAIL")
	}
	if cfg.Mail.FromAddress == "" && cfg.Contact.Sender == "mail" {
		missing = append(missing, "MAIL_FROM_ADDRESS")
	}
	return missing
}

// str returns the value at key, or def when missing or empty.
func str(k *koanf.Koanf, key, def string) string {
	if v := strings.TrimSpace(k.String(key)); v != "" {
		return v
	}
	return def
}

// list splits a comma-separated value, dropping blanks.
func list(k *koanf.Koanf, key string, def []string) []string {
	v := k.String(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// intVal reads key as int, returning def if missing or unparseable.
func intVal(k *koanf.Koanf, key string, def int) int {
	v := strings.TrimSpace(k.String(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		slog.Warn("invalid config value, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

// seconds reads key as a duration. Bare integers are seconds; Go duration
// strings ("90s", "1h") are also accepted. Zero is only valid when allowZero.
func seconds(k *koanf.Koanf, key string, def time.Duration, allowZero bool) time.Duration {
	v := strings.TrimSpace(k.String(key))
	if v == "" {
		return def
	}
	var d time.Duration
	if n, err := strconv.Atoi(v); err == nil {
		d = time.Duration(n) * time.Second
	} else if parsed, err := time.ParseDuration(v); err == nil {
		d = parsed
	} else {
		slog.Warn("invalid config value, using default", "key", key, "value", v, "default", def)
		return def
	}
	if d < 0 || (d == 0 && !allowZero) {
		slog.Warn("invalid config value, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}
