// Package validate checks untyped form input against a field schema and
// collects every failure per field instead of stopping at the first.
package validate

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Translator turns a message key into user-facing text.
type Translator interface {
	Translate(key string, vars map[string]string) string
}

// FieldErrors maps a field name to its messages. A field without violations
// is absent, never present with an empty list.
type FieldErrors map[string][]string

// Add appends msg to field's list.
func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Check reports whether a trimmed value satisfies a rule.
type Check func(value string) bool

// Rule pairs a check with the message key reported when it fails.
type Rule struct {
	Key   string
	Check Check
}

// Field describes one input. Optional fields skip their rules when empty.
type Field struct {
	Name     string
	Optional bool
	Rules    []Rule
}

// Result is either Data (Errors empty) or the accumulated Errors.
type Result[T any] struct {
	Data   T
	Errors FieldErrors
}

// OK reports whether validation passed.
func (r Result[T]) OK() bool {
	return len(r.Errors) == 0
}

// Schema validates a set of fields and builds T from the trimmed values.
type Schema[T any] struct {
	Fields []Field
	Build  func(values map[string]string) T
}

// Validate runs every rule of every field. Values are trimmed before
// checking and the trimmed values are what Build receives. Messages come
// from tr with the field name available as the "field" var; a nil tr
// reports bare keys.
func (s Schema[T]) Validate(input map[string]string, tr Translator) Result[T] {
	values := make(map[string]string, len(s.Fields))
	errs := FieldErrors{}

	for _, f := range s.Fields {
		v := strings.TrimSpace(input[f.Name])
		values[f.Name] = v
		if f.Optional && v == "" {
			continue
		}
		for _, rule := range f.Rules {
			if rule.Check(v) {
				continue
			}
			msg := rule.Key
			if tr != nil {
				msg = tr.Translate(rule.Key, map[string]string{"field": f.Name})
			}
			errs.Add(f.Name, msg)
		}
	}

	if len(errs) > 0 {
		return Result[T]{Errors: errs}
	}
	var data T
	if s.Build != nil {
		data = s.Build(values)
	}
	return Result[T]{Data: data}
}

// --- checks ---

// v validates single values by tag.
var v = validator.New(validator.WithRequiredStructEnabled())

// NotEmpty passes any non-empty value.
func NotEmpty(value string) bool {
	return value != ""
}

// Email passes a bare address such as "ana@example.com".
func Email(value string) bool {
	return v.Var(value, "required,email") == nil
}

// MaxLength returns a check limiting the value to n characters.
func MaxLength(n int) Check {
	return func(value string) bool {
		return utf8.RuneCountInString(value) <= n
	}
}
