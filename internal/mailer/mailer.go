// internal/mailer/mailer.go
//
// Outbound e-mail through an SMTP relay.
//
// Context
//   The only mail the site sends is the contact form, delivered to the
//   operator's inbox with the visitor's address as Reply-To.  Delivery
//   mechanics (queueing, retries, bounces) belong to the relay.  When no
//   relay is configured, Disabled refuses every message so the form can
//   report the failure instead of silently dropping it.
//
// Style
//   Two-space sentence spacing, concise inline notes.
//
//------------------------------------------------------------------------------

package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/servicii-ro/directory/internal/config"
	"github.com/servicii-ro/directory/internal/metrics"
)

// ErrDisabled is returned by Disabled.
var ErrDisabled = errors.New("mailer: smtp not configured")

// Message is one plain-text e-mail.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	Text    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Contact is what the public contact form collects.
type Contact struct {
	Name    string
	Email   string
	Message string
}

// ContactMessage formats c for the operator inbox.
func ContactMessage(c Contact, to string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Nume: %s\nE-mail: %s\n\n%s\n", c.Name, c.Email, c.Message)
	return Message{
		To:      to,
		ReplyTo: c.Email,
		Subject: "Mesaj nou de contact: " + c.Name,
		Text:    b.String(),
	}
}

// SendContact delivers c through s and counts the outcome.
func SendContact(ctx context.Context, s Sender, c Contact, to string) error {
	err := s.Send(ctx, ContactMessage(c, to))
	outcome := "sent"
	if err != nil {
		outcome = "failed"
		zap.L().Warn("contact mail not delivered", zap.Error(err))
	}
	metrics.ContactMessagesTotal.WithLabelValues(outcome).Inc()
	return err
}

// Disabled is the Sender used without an SMTP host.
type Disabled struct{}

func (Disabled) Send(context.Context, Message) error { return ErrDisabled }

// SMTP sends through the configured relay.  One connection per message.
type SMTP struct {
	from   string
	client *mail.Client
}

// New returns an SMTP sender, or Disabled when cfg has no host.
func New(cfg config.SMTP) (Sender, error) {
	if !cfg.Enabled() {
		return Disabled{}, nil
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}
	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTP{from: cfg.From, client: c}, nil
}

// Send builds and delivers m.
func (s *SMTP) Send(ctx context.Context, m Message) error {
	msg, err := build(s.from, m)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func build(from string, m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("from %q: %w", from, err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("to %q: %w", m.To, err)
	}
	if m.ReplyTo != "" {
		if err := msg.ReplyTo(m.ReplyTo); err != nil {
			return nil, fmt.Errorf("reply-to %q: %w", m.ReplyTo, err)
		}
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Text)
	return msg, nil
}
