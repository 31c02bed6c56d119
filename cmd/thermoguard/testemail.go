package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opd-ai/thermoguard/internal/config"
	"github.com/opd-ai/thermoguard/internal/notify"
)

func testEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-email",
		Short: "Send a test message through the configured SMTP settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := buildLogger()
			store := config.NewStore(flagSettings, log)
			settings, err := store.Load()
			if err != nil {
				return err
			}
			if settings.Email.Server == "" {
				return errors.New("no smtp server configured; edit the settings file first")
			}

			mailer, err := notify.NewEmailNotifier(settings.Email)
			if err != nil {
				return err
			}

			hostname, _ := os.Hostname()
			subject := fmt.Sprintf("[thermoguard] test message from %s", hostname)
			body := fmt.Sprintf("Email delivery is working.\nSent at %s.\n",
				time.Now().Format("2006-01-02 15:04:05"))
			if err := mailer.Send(subject, body); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "test email sent to %v via %s\n",
				settings.Email.To, settings.Email.Addr())
			return nil
		},
	}
}
