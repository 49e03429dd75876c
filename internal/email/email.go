package email

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Sender delivers magic-link sign-in emails. Implementations are selected at
// startup (console for development, SES for production) and injected into the
// auth service.
type Sender interface {
	SendMagicLink(ctx context.Context, toEmail, linkURL, username string) error
}

// ConsoleSender logs the magic link instead of delivering it. Development only.
type ConsoleSender struct {
	logger *logrus.Logger
}

func NewConsoleSender(logger *logrus.Logger) *ConsoleSender {
	return &ConsoleSender{logger: logger}
}

func (s *ConsoleSender) SendMagicLink(_ context.Context, toEmail, linkURL, username string) error {
	fields := logrus.Fields{
		"to":   toEmail,
		"link": linkURL,
	}
	if username != "" {
		fields["username"] = username
	}
	s.logger.WithFields(fields).Info("magic link email (development mode)")
	return nil
}
