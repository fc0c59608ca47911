package services

import (
	"context"
	"fmt"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/config"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailSender delivers one transactional email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, plainText, html string) error
}

type sendgridEmailSender struct {
	client  *sendgrid.Client
	cfg     *config.Config
	sandbox bool
}

// NewSendGridEmailSender honours the sendgrid_sandbox_mode flag, in which
// SendGrid validates the message but delivers nothing.
func NewSendGridEmailSender(cfg *config.Config) EmailSender {
	return &sendgridEmailSender{
		client:  sendgrid.NewSendClient(cfg.SendGridAPIKey),
		cfg:     cfg,
		sandbox: cfg.LDFlag_SendgridSandboxMode,
	}
}

func (s *sendgridEmailSender) SendEmail(ctx context.Context, to, subject, plainText, html string) error {
	from := mail.NewEmail(s.cfg.OrganizationName, s.cfg.SendGridFromEmail)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), plainText, html)

	if s.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		message.MailSettings = ms
	}

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: failed to send email via sendgrid: %v", utils.ErrExternalServiceFailure, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: sendgrid returned %d: %s", utils.ErrExternalServiceFailure, resp.StatusCode, resp.Body)
	}
	return nil
}
