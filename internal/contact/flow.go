// Package contact runs a contact form submission through CSRF, captcha,
// validation, rate limiting and delivery, and reports a single Outcome.
package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/MGallo-Code/vitrine/internal/store"
	"github.com/MGallo-Code/vitrine/internal/validate"
)

// DefaultTimeout bounds a single send when Flow.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// ErrSendTimeout is returned when the sender misses its deadline.
var ErrSendTimeout = errors.New("contact send timed out")

// CSRFVerifier checks the double-submit token.
// Satisfied by *csrf.Guard -- defined here (at consumer) per Go convention.
type CSRFVerifier interface {
	// Submitted extracts the client's token from fields or headers.
	Submitted(r *http.Request, fields map[string]string) string
	// Verify reports whether submitted matches the cookie secret on r.
	Verify(r *http.Request, submitted string) bool
}

// CaptchaVerifier checks a captcha response token.
// Satisfied by *captcha.TurnstileVerifier.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// RateLimiter records an attempt and rejects it when over policy.
// Satisfied by *store.RedisRateLimiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, policy store.RateLimit) error
}

// Flow holds the collaborators for one kind of contact submission.
// Captcha and RL are optional.
type Flow struct {
	CSRF    CSRFVerifier
	Sender  Sender
	Captcha CaptchaVerifier
	// CaptchaField is the form field holding the captcha token.
	CaptchaField string
	RL           RateLimiter
	RatePolicy   store.RateLimit
	Timeout      time.Duration
}

// Submit runs fields through every step in order and stops at the first
// failure. At most one send is attempted. tr localises messages; nil
// reports bare keys.
func (f *Flow) Submit(r *http.Request, fields map[string]string, tr validate.Translator) Outcome {
	ctx := r.Context()

	if !f.CSRF.Verify(r, f.CSRF.Submitted(r, fields)) {
		return Outcome{Kind: CsrfError, Message: translate(tr, "app.error.csrf")}
	}

	ip := clientIP(r)

	if f.Captcha != nil {
		if err := f.Captcha.Verify(ctx, fields[f.CaptchaField], ip); err != nil {
			return Outcome{Kind: CaptchaError, Message: translate(tr, "app.error.captcha"), Err: err}
		}
	}

	res := Schema.Validate(fields, tr)
	if !res.OK() {
		return Outcome{Kind: ValidationError, Message: translate(tr, "contact.message.error"), Errors: res.Errors}
	}

	if f.RL != nil {
		err := f.RL.Allow(ctx, "contact:"+ip, f.RatePolicy)
		switch {
		case errors.Is(err, store.ErrRateLimitExceeded):
			return Outcome{Kind: RateLimited, Message: translate(tr, "app.error.rate_limit"), Err: err}
		case err != nil:
			// Limiter down: let the message through.
			slog.Warn("contact rate limit check failed", "ip", ip, "error", err)
		}
	}

	sent, err := f.send(ctx, res.Data)
	if err != nil {
		out := Outcome{Kind: SendError, Message: translate(tr, "app.error.form"), Err: err}
		if isTimeout(err) {
			out.Reason = ReasonTimeout
		}
		return out
	}
	if !sent.Success {
		return Outcome{
			Kind:    SendError,
			Message: translate(tr, "app.error.form"),
			Err:     fmt.Errorf("sender reported failure: %q", sent.Message),
		}
	}

	msg := sent.Message
	if msg == "" {
		msg = translate(tr, "contact.message.success")
	}
	return Outcome{Kind: Success, Message: msg}
}

// send calls the Sender under the flow deadline. If the Sender ignores
// ctx, send still returns at the deadline and the late reply is dropped.
func (f *Flow) send(ctx context.Context, sub Submission) (Result, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type reply struct {
		res Result
		err error
	}
	done := make(chan reply, 1)
	go func() {
		res, err := f.Sender.Send(ctx, sub)
		done <- reply{res, err}
	}()

	select {
	case rep := <-done:
		return rep.res, rep.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("%w after %v", ErrSendTimeout, timeout)
		}
		return Result{}, ctx.Err()
	}
}

// isTimeout reports whether err is any flavour of send deadline.
func isTimeout(err error) bool {
	if errors.Is(err, ErrSendTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusRequestTimeout
}

func translate(tr validate.Translator, key string) string {
	if tr == nil {
		return key
	}
	return tr.Translate(key, nil)
}

// clientIP strips the port from RemoteAddr. RealIP middleware has already
// applied any trusted proxy header.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
