package email

import (
	"github.com/wneessen/go-mail"

	"hrms/internal/platform/config"
)

// NewClient builds the SMTP client used by the mail worker.
func NewClient(cfg *config.Config) (*mail.Client, error) {
	return mail.NewClient(cfg.Email.SMTPHost,
		mail.WithPort(cfg.Email.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithUsername(cfg.Email.SMTPUser),
		mail.WithPassword(cfg.Email.SMTPPass),
	)
}

// BuildMessage assembles a plain-text mail message.
func BuildMessage(from, to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, err
	}
	if err := msg.To(to); err != nil {
		return nil, err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
