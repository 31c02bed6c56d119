package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/opd-ai/thermoguard/internal/classify"
	"github.com/opd-ai/thermoguard/internal/config"
	"github.com/opd-ai/thermoguard/internal/sensor"
)

func sensorsCmd() *cobra.Command {
	var flagAll bool

	cmd := &cobra.Command{
		Use:   "sensors",
		Short: "Read the sensor chain once and print what it sees",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := buildLogger()
			store := config.NewStore(flagSettings, log)
			settings, err := store.Load()
			if err != nil {
				return err
			}

			chain := sensor.NewChain(sensor.ChainConfig{},
				sensor.NewHwmonSource(),
				sensor.NewGopsutilSource(),
				sensor.NewSmartctlSource(),
				sensor.NewSimulator(),
			)
			readings, err := chain.Read(cmd.Context())
			if err != nil {
				return err
			}

			cls := classify.New(settings.CalibrationOffset)
			accepted := cls.Classify(readings)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SOURCE\tDEVICE\tSENSOR\tRAW °C\tADJUSTED °C")
			for _, r := range readings {
				key := r.Device
				if key == "" {
					key = r.Sensor
				}
				adjusted, ok := accepted[key]
				if !ok {
					if !flagAll {
						continue
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t(ignored)\n", r.Source, r.Device, r.Sensor, r.Celsius)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%.1f\n", r.Source, r.Device, r.Sensor, r.Celsius, adjusted)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&flagAll, "all", false, "include readings that are not storage devices")
	return cmd
}
