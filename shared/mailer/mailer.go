package mailer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// ErrNoRecipients is returned when an email has no To address.
var ErrNoRecipients = errors.New("no recipients specified")

// Sender sends email messages.
type Sender interface {
	Send(email Email) error
	SendHTML(to []string, subject, htmlBody string) error
}

// Mailer represents an email sender.
type Mailer struct {
	config *Config
	dialer *gomail.Dialer
	logger *zerolog.Logger
}

var _ Sender = (*Mailer)(nil)

// Email represents an email message.
type Email struct {
	To          []string
	Cc          []string
	Bcc         []string
	ReplyTo     string
	Subject     string
	Body        string
	HTMLBody    string
	Attachments []string
}

// Config holds SMTP configuration for sending emails.
// With an empty Host the mailer logs messages instead of sending them.
type Config struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
	FromName string `env:"SMTP_FROM_NAME"`
}

// NewMailer creates a new Mailer instance with the given configuration.
func NewMailer(cfg *Config, logger *zerolog.Logger) *Mailer {
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate Mailer configuration")
	}

	m := &Mailer{config: cfg, logger: logger}
	if cfg.Enabled() {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	} else {
		logger.Warn().Msg("SMTP_HOST not set, outgoing email will only be logged")
	}

	return m
}

// Send sends a single email.
func (m *Mailer) Send(email Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}

	if m.dialer == nil {
		m.logger.Info().
			Strs("to", email.To).
			Str("subject", email.Subject).
			Msg("email not sent: mailer disabled")
		return nil
	}

	msg := gomail.NewMessage()
	m.setEmailMessage(msg, email)

	return m.dialer.DialAndSend(msg)
}

// SendHTML sends an HTML email.
func (m *Mailer) SendHTML(to []string, subject, htmlBody string) error {
	return m.Send(Email{
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
	})
}

func (m *Mailer) setEmailMessage(msg *gomail.Message, email Email) {
	// Set headers
	if m.config.FromName != "" {
		msg.SetAddressHeader("From", m.config.From, m.config.FromName)
	} else {
		msg.SetHeader("From", m.config.From)
	}
	msg.SetHeader("To", email.To...)

	if len(email.Cc) > 0 {
		msg.SetHeader("Cc", email.Cc...)
	}

	if len(email.Bcc) > 0 {
		msg.SetHeader("Bcc", email.Bcc...)
	}

	if email.ReplyTo != "" {
		msg.SetHeader("Reply-To", email.ReplyTo)
	}

	msg.SetHeader("Subject", email.Subject)

	// Set body
	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}

	for _, attachment := range email.Attachments {
		msg.Attach(attachment)
	}
}

// Enabled reports whether an SMTP host is configured.
func (c *Config) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

// Validate checks if the Mailer configuration is valid.
func (c *Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.Port == 0 {
		return fmt.Errorf("missing SMTP_PORT environment variable")
	}
	if c.From == "" {
		return fmt.Errorf("missing SMTP_FROM environment variable")
	}
	if c.Username != "" && c.Password == "" {
		return fmt.Errorf("missing SMTP_PASSWORD environment variable")
	}

	return nil
}
