// Package email sends transactional messages over SMTP.
package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPOptions configures NewSMTPSender.
type SMTPOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
	logger zerolog.Logger
}

// NewSMTPSender returns a gomail-backed Sender. Without credentials the sender
// runs disabled: messages are logged and dropped.
func NewSMTPSender(opts SMTPOptions, logger zerolog.Logger) Sender {
	logger = logger.With().Str("component", "smtp-sender").Logger()

	if opts.User == "" || opts.Password == "" {
		logger.Warn().Msg("SMTP credentials not configured, email delivery disabled")
		return &smtpSender{from: opts.From, logger: logger}
	}

	return &smtpSender{
		dialer: gomail.NewDialer(opts.Host, opts.Port, opts.User, opts.Password),
		from:   opts.From,
		logger: logger,
	}
}

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	if s.dialer == nil {
		s.logger.Info().
			Str("to", msg.To).
			Str("subject", msg.Subject).
			Msg("email delivery disabled, message dropped")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error().Err(err).Str("to", msg.To).Msg("failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email sent")
	return nil
}
