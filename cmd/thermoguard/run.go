package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opd-ai/thermoguard/internal/api"
	"github.com/opd-ai/thermoguard/internal/profiling"
	"github.com/opd-ai/thermoguard/pkg/thermoguard"
)

func runCmd() *cobra.Command {
	var (
		flagListen     string
		flagNoHTTP     bool
		flagInterval   int
		flagNoAlerts   bool
		flagCPUProfile string
		flagMemProfile string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the monitoring daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := buildLogger()

			session, err := profiling.Begin(flagCPUProfile, flagMemProfile)
			if err != nil {
				return err
			}
			defer func() {
				if err := session.End(); err != nil {
					log.Warn("profiling shutdown", "error", err)
				}
			}()

			opts := thermoguard.DefaultOptions()
			opts.SettingsPath = flagSettings
			opts.WatchConfig = true
			opts.Logger = log

			mon, err := thermoguard.New(opts)
			if err != nil {
				return err
			}
			thermoguard.DefaultMetrics().RegisterExpvar()

			// Flag overrides apply to this process only and are not
			// written back to the settings file.
			if flagInterval > 0 || flagNoAlerts {
				s := mon.Settings()
				if flagInterval > 0 {
					s.RefreshSeconds = flagInterval
				}
				if flagNoAlerts {
					s.AlertsEnabled = false
				}
				mon.ApplySettings(s)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := mon.Start(ctx); err != nil {
				return err
			}
			defer mon.Stop()

			if !flagNoHTTP {
				addr := flagListen
				if addr == "" {
					addr = mon.Settings().ListenAddr
				}
				srv := api.NewServer(addr, mon, log)
				if err := srv.Start(); err != nil {
					return err
				}
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := srv.Shutdown(shutdownCtx); err != nil {
						log.Warn("http shutdown", "error", err)
					}
				}()
			}

			<-ctx.Done()
			log.Info("shutdown signal received")
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&flagListen, "listen", "", "http listen address (overrides settings)")
	fs.BoolVar(&flagNoHTTP, "no-http", false, "disable the http status server")
	fs.IntVar(&flagInterval, "interval", 0, "poll interval in seconds (overrides settings, not persisted)")
	fs.BoolVar(&flagNoAlerts, "no-alerts", false, "observe only, deliver no alerts (not persisted)")
	fs.StringVar(&flagCPUProfile, "cpuprofile", "", "write a cpu profile to this file")
	fs.StringVar(&flagMemProfile, "memprofile", "", "write a heap profile to this file on exit")
	return cmd
}
