// outcome.go -- Terminal states of a contact submission.
package contact

import "github.com/MGallo-Code/vitrine/internal/validate"

// Kind discriminates Outcome.
type Kind int

const (
	Success Kind = iota
	ValidationError
	CsrfError
	SendError
	CaptchaError
	RateLimited
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case ValidationError:
		return "validation_error"
	case CsrfError:
		return "csrf_error"
	case SendError:
		return "send_error"
	case CaptchaError:
		return "captcha_error"
	case RateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// ReasonTimeout marks a SendError caused by the send deadline.
const ReasonTimeout = "timeout"

// Outcome is the single result of one submission attempt.
//
// Message is safe to show to the user. Err carries the underlying failure
// for server-side logs only and is never rendered.
type Outcome struct {
	Kind    Kind
	Message string
	Errors  validate.FieldErrors
	Reason  string
	Err     error
}

// OK reports whether the message was accepted.
func (o Outcome) OK() bool {
	return o.Kind == Success
}

// Situation is the page-level state name used by templates.
func (o Outcome) Situation() string {
	switch o.Kind {
	case Success:
		return "success"
	case CsrfError:
		return "csrf_error"
	default:
		return "error"
	}
}
