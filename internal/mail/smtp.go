// smtp.go
//
// SMTPMailer: plain net/smtp transport with MIME multipart/alternative bodies.
// Compatible with any SMTP provider: SES SMTP, Mailgun, Mailpit (local dev), etc.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"time"
)

// defaultSMTPTimeout bounds dial plus the whole SMTP session.
const defaultSMTPTimeout = 10 * time.Second

// SMTPConfig holds all configuration for SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string // empty skips AUTH
	Password string
	// ImplicitTLS dials TLS directly (port 465 style). Otherwise STARTTLS is
	// required unless Insecure is set.
	ImplicitTLS bool
	Insecure    bool
	Timeout     time.Duration
}

// SMTPMailer sends email via SMTP.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates an SMTPMailer with the given config.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Port == "" {
		return nil, fmt.Errorf("%w: MAIL_HOST and MAIL_PORT are required for smtp", ErrNotConfigured)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}
	return &SMTPMailer{cfg: cfg}, nil
}

// Send renders msg as MIME and delivers it.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	raw, err := buildMIME(msg, time.Now())
	if err != nil {
		return fmt.Errorf("building message: %w", err)
	}
	if err := m.sendMail(ctx, msg.From.Address, msg.To.Address, raw); err != nil {
		return fmt.Errorf("sending %q to %s: %w", msg.Subject, msg.To.Address, err)
	}
	return nil
}

// sendMail dials the SMTP server, enforces TLS (implicit or STARTTLS) unless
// Insecure, authenticates when a username is set, and delivers raw.
// The connection respects ctx cancellation and the configured timeout.
func (m *SMTPMailer) sendMail(ctx context.Context, from, to string, raw []byte) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	tlsCfg := &tls.Config{ServerName: m.cfg.Host}

	var (
		conn net.Conn
		err  error
	)
	if m.cfg.ImplicitTLS {
		conn, err = (&tls.Dialer{Config: tlsCfg}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = (&net.Dialer{}).DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	// Unblock a stuck session if ctx is cancelled early.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer c.Close()

	if !m.cfg.ImplicitTLS {
		ok, _ := c.Extension("STARTTLS")
		switch {
		case ok:
			if err := c.StartTLS(tlsCfg); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		case !m.cfg.Insecure:
			return fmt.Errorf("smtp server does not advertise STARTTLS: refusing plaintext session")
		}
	}

	if m.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := wc.Write(raw); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}

	return c.Quit()
}

// buildMIME renders headers plus a multipart/alternative body (text first,
// HTML last so clients prefer it). A message with only one part is sent as
// a single-part body.
func buildMIME(msg Message, now time.Time) ([]byte, error) {
	if msg.Text == "" && msg.HTML == "" {
		return nil, fmt.Errorf("message has no body")
	}

	var buf bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }

	header("From", msg.From.String())
	header("To", msg.To.String())
	if msg.ReplyTo.Address != "" {
		header("Reply-To", msg.ReplyTo.String())
	}
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")

	if msg.Text == "" || msg.HTML == "" {
		contentType, body := "text/plain; charset=UTF-8", msg.Text
		if msg.HTML != "" {
			contentType, body = "text/html; charset=UTF-8", msg.HTML
		}
		header("Content-Type", contentType)
		header("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQP(&buf, body); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	for _, part := range []struct{ contentType, content string }{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		if err := writeQP(w, part.content); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

func writeQP(w io.Writer, s string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(s)); err != nil {
		return err
	}
	return qp.Close()
}
