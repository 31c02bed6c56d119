package notify

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailConfig holds SMTP delivery settings.
type EmailConfig struct {
	Server   string   `json:"smtpServer" mapstructure:"smtpServer"`
	Port     int      `json:"smtpPort" mapstructure:"smtpPort"`
	Sender   string   `json:"senderEmail" mapstructure:"senderEmail"`
	Password string   `json:"senderCredential" mapstructure:"senderCredential"`
	To       []string `json:"receiverEmail" mapstructure:"receiverEmail"`
}

// Validate checks that the config can address an SMTP server and at
// least one recipient.
func (c EmailConfig) Validate() error {
	if c.Server == "" {
		return errors.New("smtp server is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("smtp port %d out of range", c.Port)
	}
	if c.Sender == "" {
		return errors.New("sender address is required")
	}
	if len(c.To) == 0 {
		return errors.New("at least one recipient is required")
	}
	return nil
}

// Addr returns the host:port dial address.
func (c EmailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server, c.Port)
}

// EmailNotifier sends plain-text mail over SMTP with PLAIN auth.
type EmailNotifier struct {
	cfg EmailConfig

	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailNotifier creates a notifier from a validated config.
func NewEmailNotifier(cfg EmailConfig) (*EmailNotifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &EmailNotifier{cfg: cfg, sendMail: smtp.SendMail}, nil
}

// Send delivers one message to all configured recipients.
func (n *EmailNotifier) Send(subject, body string) error {
	msg := buildMessage(n.cfg.Sender, n.cfg.To, subject, body)

	var auth smtp.Auth
	if n.cfg.Password != "" {
		auth = smtp.PlainAuth("", n.cfg.Sender, n.cfg.Password, n.cfg.Server)
	}
	if err := n.sendMail(n.cfg.Addr(), auth, n.cfg.Sender, n.cfg.To, msg); err != nil {
		return fmt.Errorf("send mail via %s: %w", n.cfg.Addr(), err)
	}
	return nil
}

// buildMessage assembles an RFC 5322 message with CRLF line endings.
func buildMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
