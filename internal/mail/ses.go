// ses.go
//
// SESMailer sends through the Amazon SES v2 API using the default AWS
// credential chain (env, shared config, instance role).
package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESAPI is the subset of the SES v2 client SESMailer needs.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer sends email via SES.
type SESMailer struct {
	client SESAPI
}

// NewSESMailer loads AWS config for region and builds the client.
func NewSESMailer(ctx context.Context, region string) (*SESMailer, error) {
	if region == "" {
		return nil, fmt.Errorf("%w: AWS_REGION is required for ses", ErrNotConfigured)
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return NewSESMailerWithClient(sesv2.NewFromConfig(cfg)), nil
}

// NewSESMailerWithClient wraps an existing client.
func NewSESMailerWithClient(client SESAPI) *SESMailer {
	return &SESMailer{client: client}
}

// fallbackText fills the text part of HTML-only messages.
const fallbackText = "You have a new contact message."

// Send delivers msg with SES simple content.
func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	body := &types.Body{}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}
	text := msg.Text
	if text == "" {
		text = fallbackText
	}
	body.Text = &types.Content{Data: aws.String(text), Charset: aws.String("UTF-8")}

	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From.String()),
		Destination:      &types.Destination{ToAddresses: []string{msg.To.Address}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}
	if msg.ReplyTo.Address != "" {
		in.ReplyToAddresses = []string{msg.ReplyTo.Address}
	}

	if _, err := m.client.SendEmail(ctx, in); err != nil {
		return fmt.Errorf("ses send %q to %s: %w", msg.Subject, msg.To.Address, err)
	}
	return nil
}
