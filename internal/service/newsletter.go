package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
)

const (
	newsletterSubject = "Thanks for subscribing!"
	newsletterText    = "Thank you for signing up for our newsletter!"
	newsletterHTML    = "<strong>Thank you for signing up for our newsletter!</strong>"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

type NewsletterService struct {
	Mailer Mailer
}

// Subscribe validates the address and sends the welcome mail. It returns the
// normalized address.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email %q is not a valid address", email)
	}

	if err := s.Mailer.Send(ctx, addr.Address, newsletterSubject, newsletterText, newsletterHTML); err != nil {
		return "", fmt.Errorf("send newsletter welcome: %w: %w", ErrMailUnavailable, err)
	}
	return addr.Address, nil
}
