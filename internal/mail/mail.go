// mail.go
//
// Mailer interface, message types and NopMailer.
// Transports live in smtp.go and ses.go.
package mail

import (
	"context"
	"errors"
	"log/slog"
	netmail "net/mail"
)

// ErrNotConfigured is returned when a transport is missing required settings.
var ErrNotConfigured = errors.New("mail transport not configured")

// Address is a display name plus email address.
type Address struct {
	Name    string
	Address string
}

// String formats the address for a header, quoting and encoding the name
// as needed ("Ana" <ana@example.com>).
func (a Address) String() string {
	return (&netmail.Address{Name: a.Name, Address: a.Address}).String()
}

// Message is one outbound email. Text or HTML may be empty, not both.
type Message struct {
	From    Address
	To      Address
	ReplyTo Address // optional
	Subject string
	Text    string
	HTML    string
}

// Mailer sends email.
type Mailer interface {
	// Send delivers msg or returns an error. Implementations honour ctx
	// cancellation for network I/O.
	Send(ctx context.Context, msg Message) error
}

// NopMailer discards all outbound email. Used when no transport is configured
// (MAIL_PROVIDER=nop|log); messages are logged at debug level.
type NopMailer struct{}

func (NopMailer) Send(_ context.Context, msg Message) error {
	slog.Debug("mail discarded", "to", msg.To.Address, "subject", msg.Subject)
	return nil
}
