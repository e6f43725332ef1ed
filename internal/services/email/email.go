// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email sends one-time codes and result notifications via SMTP.
package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"codeberg.org/oliverandrich/univote/internal/config"
	"codeberg.org/oliverandrich/univote/internal/i18n"
	"codeberg.org/oliverandrich/univote/internal/models"
)

// Service handles outgoing mail.
type Service struct {
	cfg *config.SMTPConfig
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{cfg: cfg}, nil
}

// SendOneTimeCode mails a verification or login code to a voter.
func (s *Service) SendOneTimeCode(ctx context.Context, toEmail, code, purpose string) error {
	var subject, body string
	switch purpose {
	case models.PurposeLogin:
		subject = i18n.T(ctx, "email_login_code_subject")
		body = i18n.TData(ctx, "email_login_code_body", map[string]any{"Code": code})
	default:
		subject = i18n.T(ctx, "email_verify_code_subject")
		body = i18n.TData(ctx, "email_verify_code_body", map[string]any{"Code": code})
	}

	return s.send(toEmail, subject, body)
}

// NotifyResultsPublished tells the election creator that results are final.
// Used as the lifecycle notifier; failures never roll back a transition.
func (s *Service) NotifyResultsPublished(ctx context.Context, election *models.Election) error {
	subject := i18n.TData(ctx, "email_results_subject", map[string]any{"Election": election.Name})
	body := i18n.TData(ctx, "email_results_body", map[string]any{"Election": election.Name})

	return s.send(s.cfg.NotifyTo, subject, body)
}

// send sends an email via SMTP using go-mail.
func (s *Service) send(to, subject, body string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	// Build client options
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	// Configure TLS based on config and port
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Use implicit TLS (SSL) for port 465, STARTTLS for others
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	// Add authentication if credentials are provided
	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
