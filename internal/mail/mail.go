// Package mail sends outbound application mail. The server works without an
// SMTP host configured; reset links are then written to the log instead.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"notebook/internal/config"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

func New(cfg config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return &logMailer{}
	}
	return &smtpMailer{cfg: cfg}
}

type smtpMailer struct {
	cfg config.Config
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	mail := gomail.NewMsg()
	if err := mail.From(m.cfg.MailFrom); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := mail.To(msg.To); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	mail.Subject(msg.Subject)
	mail.SetBodyString(gomail.TypeTextPlain, msg.Body)

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.SMTPPort),
	}
	if m.cfg.SMTPUser != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.SMTPUser),
			gomail.WithPassword(m.cfg.SMTPPass),
		)
	}
	client, err := gomail.NewClient(m.cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, mail); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	slog.Info("mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

type logMailer struct{}

func (m *logMailer) Send(_ context.Context, msg Message) error {
	slog.Info("mail (smtp disabled)", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
