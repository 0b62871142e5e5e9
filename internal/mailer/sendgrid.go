package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendEndpoint = "/v3/mail/send"
	senderName   = "Storefront"
)

type SendGrid struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGrid(apiKey, from string) *SendGrid {
	return &SendGrid{client: sendgrid.NewSendClient(apiKey), from: mail.NewEmail(senderName, from)}
}

// NewSendGridWithHost points the client at another API host, e.g. a local
// stand-in.
func NewSendGridWithHost(apiKey, from, host string) *SendGrid {
	req := sendgrid.GetRequest(apiKey, sendEndpoint, host)
	req.Method = "POST"
	return &SendGrid{client: &sendgrid.Client{Request: req}, from: mail.NewEmail(senderName, from)}
}

func (s *SendGrid) Send(ctx context.Context, to, subject, text, html string) error {
	if to == "" {
		return fmt.Errorf("to address is empty")
	}
	msg := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", to), text, html)

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", resp.StatusCode, resp.Body)
	}
	return nil
}
