// Package i18n looks up translated text from embedded YAML locale tables.
//
// Keys are dotted paths into the nested tables ("contact.message.success").
// A key that does not resolve to a string is returned as-is, so missing text
// shows up on the page instead of failing the request.
package i18n

import (
	"embed"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Bundle holds the tables for every supported language.
type Bundle struct {
	def     string
	langs   []string
	tables  map[string]map[string]any
	matcher language.Matcher
}

// New loads the locale file of each supported language. def must be one of
// supported and is used when negotiation finds nothing better.
func New(def string, supported []string) (*Bundle, error) {
	b := &Bundle{def: def, tables: make(map[string]map[string]any)}

	// Default first so the matcher falls back to it.
	b.langs = append(b.langs, def)
	for _, l := range supported {
		if l != def {
			b.langs = append(b.langs, l)
		}
	}

	tags := make([]language.Tag, 0, len(b.langs))
	for _, l := range b.langs {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parsing language %q: %w", l, err)
		}
		tags = append(tags, tag)

		raw, err := localeFS.ReadFile("locales/" + l + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("no locale file for %q: %w", l, err)
		}
		table := map[string]any{}
		if err := yaml.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("parsing locale %q: %w", l, err)
		}
		b.tables[l] = table
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

// Default returns the fallback language.
func (b *Bundle) Default() string {
	return b.def
}

// Languages returns the supported languages, default first.
func (b *Bundle) Languages() []string {
	return append([]string(nil), b.langs...)
}

// Translate looks key up in the default language.
func (b *Bundle) Translate(key string, vars map[string]string) string {
	return b.TranslateIn(b.def, key, vars)
}

// TranslateIn looks key up in lang, falling back to the default language
// for unknown langs. Vars are only applied when the key resolved.
func (b *Bundle) TranslateIn(lang, key string, vars map[string]string) string {
	table, ok := b.tables[lang]
	if !ok {
		table = b.tables[b.def]
	}
	s, ok := lookup(table, key)
	if !ok {
		return key
	}
	return ReplaceVars(s, vars)
}

// Locale returns a translator bound to lang.
func (b *Bundle) Locale(lang string) Locale {
	if _, ok := b.tables[lang]; !ok {
		lang = b.def
	}
	return Locale{b: b, lang: lang}
}

// Negotiate picks the best supported language for an Accept-Language header.
func (b *Bundle) Negotiate(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return b.def
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.def
	}
	return b.langs[idx]
}

// Locale translates in one language.
type Locale struct {
	b    *Bundle
	lang string
}

// Lang is the language code, e.g. "ro".
func (l Locale) Lang() string {
	return l.lang
}

// Translate implements the Translator interfaces used across the site.
func (l Locale) Translate(key string, vars map[string]string) string {
	return l.b.TranslateIn(l.lang, key, vars)
}

// lookup walks a dotted key through nested maps.
func lookup(table map[string]any, key string) (string, bool) {
	var cur any = table
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		if cur, ok = m[part]; !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok
}

var varRe = regexp.MustCompile(`{{\s*(\w+)\s*}}`)

// ReplaceVars substitutes {{ name }} placeholders. Unknown names are left
// as "{{name}}".
func ReplaceVars(s string, vars map[string]string) string {
	return varRe.ReplaceAllStringFunc(s, func(m string) string {
		name := varRe.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return "{{" + name + "}}"
	})
}
