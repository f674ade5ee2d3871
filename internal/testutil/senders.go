// senders.go
//
// Shared mocks for outbound delivery: contact senders and mailers.
package testutil

import (
	"context"
	"sync"

	"github.com/MGallo-Code/vitrine/internal/contact"
	"github.com/MGallo-Code/vitrine/internal/mail"
)

// MockSender implements contact.Sender. It reports Result and Err as set;
// when Block is non-nil, Send waits on it or on ctx.
type MockSender struct {
	Result contact.Result
	Err    error
	Block  chan struct{}

	mu  sync.Mutex
	Got []contact.Submission
}

// NewMockSender returns a MockSender that reports success.
func NewMockSender() *MockSender {
	return &MockSender{Result: contact.Result{Success: true}}
}

func (m *MockSender) Send(ctx context.Context, sub contact.Submission) (contact.Result, error) {
	m.mu.Lock()
	m.Got = append(m.Got, sub)
	m.mu.Unlock()

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return contact.Result{}, ctx.Err()
		}
	}
	return m.Result, m.Err
}

// Calls returns how many times Send ran.
func (m *MockSender) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Got)
}

// MockMailer implements mail.Mailer and records every message.
type MockMailer struct {
	Err error

	mu   sync.Mutex
	Sent []mail.Message
}

func (m *MockMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// Messages returns a copy of what was sent.
func (m *MockMailer) Messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.Sent...)
}
