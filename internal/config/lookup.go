// lookup.go -- dotted-key access for deployment tooling that still speaks
// the old "section.key" names.
package config

import (
	"log/slog"
	"sort"
)

// accessors maps each legacy dotted key to its typed field.
var accessors = map[string]func(c *Config) any{
	"app.name":                func(c *Config) any { return c.AppName },
	"app.url":                 func(c *Config) any { return c.AppURL },
	"app.environment":         func(c *Config) any { return c.Environment },
	"app.language":            func(c *Config) any { return c.Language },
	"app.languageSupported":   func(c *Config) any { return c.SupportedLanguages },
	"security.allowedOrigins": func(c *Config) any { return c.AllowedOrigins },
	"csrf.cookieName":         func(c *Config) any { return c.CSRF.CookieName },
	"csrf.cookieMaxAge":       func(c *Config) any { return int(c.CSRF.CookieMaxAge.Seconds()) },
	"csrf.inputName":          func(c *Config) any { return c.CSRF.InputName },
	"mail.provider":           func(c *Config) any { return c.Mail.Provider },
	"mail.host":               func(c *Config) any { return c.Mail.Host },
	"mail.port":               func(c *Config) any { return c.Mail.Port },
	"mail.encryption":         func(c *Config) any { return c.Mail.Encryption },
	"mail.username":           func(c *Config) any { return c.Mail.Username },
	"mail.password":           func(c *Config) any { return c.Mail.Password },
	"mail.from.name":          func(c *Config) any { return c.Mail.FromName },
	"mail.from.address":       func(c *Config) any { return c.Mail.FromAddress },
	"aws.region":              func(c *Config) any { return c.Mail.AWSRegion },
	"contact.email":           func(c *Config) any { return c.Contact.Email },
	"remoteApi.url":           func(c *Config) any { return c.Contact.RemoteAPIURL },
	"cache.ttl":               func(c *Config) any { return int(c.CacheTTL.Seconds()) },
	"redis.url":               func(c *Config) any { return c.RedisURL },
}

// Get returns the value for a dotted key such as "csrf.cookieName".
// Unknown keys log a warning and return (nil, false); callers carry on
// with their own default.
func (c *Config) Get(key string) (any, bool) {
	fn, ok := accessors[key]
	if !ok {
		slog.Warn("configuration key not found", "key", key)
		return nil, false
	}
	return fn(c), true
}

// Keys lists every dotted key Get understands, sorted.
func Keys() []string {
	keys := make([]string, 0, len(accessors))
	for k := range accessors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
