// sender.go -- ContactSender contract and the email-backed implementation.
package contact

import (
	"context"
	"fmt"

	"github.com/MGallo-Code/vitrine/internal/mail"
	"github.com/MGallo-Code/vitrine/internal/validate"
)

// Result is what a Sender reports for a delivered request. An empty
// Message lets the flow use its own translated success text.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Sender delivers a validated submission. Implementations must honour ctx.
type Sender interface {
	Send(ctx context.Context, sub Submission) (Result, error)
}

// contactTemplate is the email sent to the site owner for each submission.
var contactTemplate = mail.Template{
	Subject: "contact.email.subject",
	Text: "Name: {{ name }}\n" +
		"Email: {{ email }}\n" +
		"Company: {{ company }}\n" +
		"\n" +
		"Message:\n" +
		"{{ message }}\n",
	HTML: "<p>Name: {{ name }}</p>\n" +
		"<p>Email: {{ email }}</p>\n" +
		"<p>Company: {{ company }}</p>\n" +
		"<p>Message:</p>\n" +
		"<p style=\"white-space:pre-line\">{{ message }}</p>\n",
	Layout: "default",
}

// MailSender emails each submission to the site owner, with Reply-To set
// to the visitor so the owner can answer directly.
type MailSender struct {
	Mailer mail.Mailer
	From   mail.Address
	To     mail.Address
	// Translator renders the subject. Emails go out in one language.
	Translator validate.Translator
	Lang       string
	// Vars are extra template variables, e.g. app_name.
	Vars map[string]string
}

// Send renders the contact email and hands it to the Mailer. Result.Message
// is left empty.
func (s *MailSender) Send(ctx context.Context, sub Submission) (Result, error) {
	vars := make(map[string]string, len(s.Vars)+4)
	for k, v := range s.Vars {
		vars[k] = v
	}
	for k, v := range sub.Vars() {
		vars[k] = v
	}

	t := contactTemplate
	if s.Translator != nil {
		t.Subject = s.Translator.Translate(t.Subject, nil)
	}
	content, err := mail.Render(s.Lang, t, vars)
	if err != nil {
		return Result{}, fmt.Errorf("rendering contact email: %w", err)
	}

	msg := mail.Message{
		From:    s.From,
		To:      s.To,
		ReplyTo: mail.Address{Name: sub.Name, Address: sub.Email},
		Subject: content.Subject,
		Text:    content.Text,
		HTML:    content.HTML,
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return Result{}, fmt.Errorf("sending contact email: %w", err)
	}
	return Result{Success: true}, nil
}
