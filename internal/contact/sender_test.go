package contact

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MGallo-Code/vitrine/internal/i18n"
	"github.com/MGallo-Code/vitrine/internal/mail"
)

type recordingMailer struct {
	err  error
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newMailSender(t *testing.T, m mail.Mailer) *MailSender {
	t.Helper()
	b, err := i18n.New("en", []string{"en", "ro"})
	if err != nil {
		t.Fatalf("i18n.New: %v", err)
	}
	return &MailSender{
		Mailer:     m,
		From:       mail.Address{Name: "Vitrine", Address: "no-reply@example.com"},
		To:         mail.Address{Name: "Vitrine", Address: "office@example.com"},
		Translator: b.Locale("en"),
		Lang:       "en",
		Vars:       map[string]string{"app_name": "Vitrine"},
	}
}

// --- MailSender ---

func TestMailSender_Send(t *testing.T) {
	sub := Submission{Name: "Ana", Email: "ana@example.com", Company: "ACME", Message: "Hello <b>there</b>"}

	t.Run("sends one message to the owner with reply-to", func(t *testing.T) {
		m := &recordingMailer{}
		res, err := newMailSender(t, m).Send(context.Background(), sub)
		if err != nil {
			t.Fatalf("Send: %v", err)
		}
		if !res.Success || res.Message != "" {
			t.Errorf("expected success with empty message, got %+v", res)
		}
		if len(m.sent) != 1 {
			t.Fatalf("expected 1 message, got %d", len(m.sent))
		}
		msg := m.sent[0]
		if msg.To.Address != "office@example.com" || msg.From.Address != "no-reply@example.com" {
			t.Errorf("unexpected from/to: %v -> %v", msg.From, msg.To)
		}
		if msg.ReplyTo.Address != "ana@example.com" || msg.ReplyTo.Name != "Ana" {
			t.Errorf("unexpected reply-to: %v", msg.ReplyTo)
		}
		if msg.Subject != "Contact | Vitrine" {
			t.Errorf("unexpected subject %q", msg.Subject)
		}
	})

	t.Run("text is raw and HTML is escaped", func(t *testing.T) {
		m := &recordingMailer{}
		if _, err := newMailSender(t, m).Send(context.Background(), sub); err != nil {
			t.Fatalf("Send: %v", err)
		}
		msg := m.sent[0]
		if !strings.Contains(msg.Text, "Name: Ana") || !strings.Contains(msg.Text, "Hello <b>there</b>") {
			t.Errorf("unexpected text body:\n%s", msg.Text)
		}
		if strings.Contains(msg.HTML, "<b>there</b>") || !strings.Contains(msg.HTML, "&lt;b&gt;there&lt;/b&gt;") {
			t.Errorf("HTML body should escape the message:\n%s", msg.HTML)
		}
		if !strings.Contains(msg.HTML, `<html lang="en">`) {
			t.Error("expected HTML to be wrapped in the default layout")
		}
	})

	t.Run("placeholders typed by the visitor are not expanded", func(t *testing.T) {
		m := &recordingMailer{}
		s := sub
		s.Message = "{{ app_name }}"
		if _, err := newMailSender(t, m).Send(context.Background(), s); err != nil {
			t.Fatalf("Send: %v", err)
		}
		if !strings.Contains(m.sent[0].Text, "{{ app_name }}") {
			t.Errorf("visitor text was rewritten:\n%s", m.sent[0].Text)
		}
	})

	t.Run("mailer error is returned", func(t *testing.T) {
		boom := errors.New("connection refused")
		_, err := newMailSender(t, &recordingMailer{err: boom}).Send(context.Background(), sub)
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped mailer error, got %v", err)
		}
	})
}
