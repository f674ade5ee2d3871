package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

// fakeSES records the last SendEmail input.
type fakeSES struct {
	in  *sesv2.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.in = in
	return &sesv2.SendEmailOutput{MessageId: aws.String("id-1")}, f.err
}

// --- SESMailer ---

func TestSESMailer_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("maps message to simple content", func(t *testing.T) {
		f := &fakeSES{}
		if err := NewSESMailerWithClient(f).Send(ctx, testMessage); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
		if got := aws.ToString(f.in.FromEmailAddress); got != `"Vitrine" <noreply@example.com>` {
			t.Errorf("From: got %q", got)
		}
		if got := f.in.Destination.ToAddresses; len(got) != 1 || got[0] != "sales@example.com" {
			t.Errorf("To: got %v", got)
		}
		if got := f.in.ReplyToAddresses; len(got) != 1 || got[0] != "ana@example.com" {
			t.Errorf("ReplyTo: got %v", got)
		}
		simple := f.in.Content.Simple
		if aws.ToString(simple.Subject.Data) != testMessage.Subject ||
			aws.ToString(simple.Body.Html.Data) != testMessage.HTML ||
			aws.ToString(simple.Body.Text.Data) != testMessage.Text {
			t.Errorf("content mismatch: %+v", simple)
		}
	})

	t.Run("html only gets fallback text", func(t *testing.T) {
		f := &fakeSES{}
		msg := testMessage
		msg.Text = ""
		NewSESMailerWithClient(f).Send(ctx, msg)
		if got := aws.ToString(f.in.Content.Simple.Body.Text.Data); got != fallbackText {
			t.Errorf("Text: got %q", got)
		}
	})

	t.Run("client error is wrapped", func(t *testing.T) {
		boom := errors.New("throttled")
		err := NewSESMailerWithClient(&fakeSES{err: boom}).Send(ctx, testMessage)
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped client error, got %v", err)
		}
	})

	t.Run("empty region is ErrNotConfigured", func(t *testing.T) {
		if _, err := NewSESMailer(ctx, ""); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("expected ErrNotConfigured, got %v", err)
		}
	})
}
