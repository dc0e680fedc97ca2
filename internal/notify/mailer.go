// Package notify delivers issued tickets to buyers by email.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	mailjet "github.com/mailjet/mailjet-apiv3-go/v4"
)

// Message is one outgoing email.
type Message struct {
	To       string
	ToName   string
	Subject  string
	Text     string
	HTML     string
	CustomID string
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// Mailjet sends through the Mailjet v3.1 send API.
type Mailjet struct {
	client   *mailjet.Client
	from     string
	fromName string
}

// NewMailjet builds a Mailjet mailer.
func NewMailjet(publicKey, privateKey, from, fromName string) *Mailjet {
	return &Mailjet{
		client:   mailjet.NewMailjetClient(publicKey, privateKey),
		from:     from,
		fromName: fromName,
	}
}

// Send posts the message.  The client takes no context, so a cancelled ctx
// is only checked before sending.
func (m *Mailjet) Send(ctx context.Context, msg Message) error {
	const op = "notify.Mailjet.Send"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	info := []mailjet.InfoMessagesV31{{
		From: &mailjet.RecipientV31{Email: m.from, Name: m.fromName},
		To: &mailjet.RecipientsV31{
			mailjet.RecipientV31{Email: msg.To, Name: msg.ToName},
		},
		Subject:  msg.Subject,
		TextPart: msg.Text,
		HTMLPart: msg.HTML,
		CustomID: msg.CustomID,
	}}
	res, err := m.client.SendMailV31(&mailjet.MessagesV31{Info: info})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, r := range res.ResultsV31 {
		if !strings.EqualFold(r.Status, "success") {
			return fmt.Errorf("%s: status %q for %s", op, r.Status, msg.To)
		}
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them.  It is used
// when no Mailjet keys are configured.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log.With(slog.String("component", "mailer"))}
}

func (l *LogMailer) Send(_ context.Context, m Message) error {
	l.log.Info("email not sent (mailer disabled)",
		slog.String("to", m.To),
		slog.String("subject", m.Subject),
		slog.String("body", m.Text),
	)
	return nil
}
