package notify

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func validEmailConfig() EmailConfig {
	return EmailConfig{
		Server:   "smtp.example.com",
		Port:     587,
		Sender:   "alerts@example.com",
		Password: "app-password",
		To:       []string{"ops@example.com", "oncall@example.com"},
	}
}

func TestEmailConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*EmailConfig)
		wantErr bool
	}{
		{"valid", func(c *EmailConfig) {}, false},
		{"no password allowed", func(c *EmailConfig) { c.Password = "" }, false},
		{"empty server", func(c *EmailConfig) { c.Server = "" }, true},
		{"zero port", func(c *EmailConfig) { c.Port = 0 }, true},
		{"port too large", func(c *EmailConfig) { c.Port = 70000 }, true},
		{"empty sender", func(c *EmailConfig) { c.Sender = "" }, true},
		{"no recipients", func(c *EmailConfig) { c.To = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validEmailConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEmailNotifierSend(t *testing.T) {
	n, err := NewEmailNotifier(validEmailConfig())
	if err != nil {
		t.Fatalf("NewEmailNotifier() error = %v", err)
	}

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	n.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		if a == nil {
			t.Error("auth = nil, want PLAIN auth when password is set")
		}
		return nil
	}

	if err := n.Send("Test Subject", "line one\nline two"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q, want smtp.example.com:587", gotAddr)
	}
	if gotFrom != "alerts@example.com" || len(gotTo) != 2 {
		t.Errorf("from/to = %q/%v", gotFrom, gotTo)
	}
	msg := string(gotMsg)
	for _, want := range []string{
		"From: alerts@example.com\r\n",
		"To: ops@example.com, oncall@example.com\r\n",
		"Subject: Test Subject\r\n",
		"\r\n\r\nline one\nline two",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestEmailNotifierSendWrapsError(t *testing.T) {
	n, err := NewEmailNotifier(validEmailConfig())
	if err != nil {
		t.Fatalf("NewEmailNotifier() error = %v", err)
	}
	sentinel := errors.New("connection refused")
	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return sentinel }

	if err := n.Send("s", "b"); !errors.Is(err, sentinel) {
		t.Errorf("Send() error = %v, want wrapped sentinel", err)
	}
}

func TestNewEmailNotifierRejectsInvalidConfig(t *testing.T) {
	cfg := validEmailConfig()
	cfg.Server = ""
	if _, err := NewEmailNotifier(cfg); err == nil {
		t.Fatal("NewEmailNotifier() accepted config without server")
	}
}
