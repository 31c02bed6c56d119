// Package thermoguard monitors storage device temperatures and raises
// alerts when they cross configured thresholds.
//
// A Monitor polls a prioritized chain of sensor sources (Linux hwmon,
// gopsutil, smartctl, and a CPU-load driven simulation as the last
// resort), classifies the readings down to storage devices, feeds the
// hottest value through a severity state machine and dispatches
// cooldown-gated desktop and email notifications. A bounded rolling
// history backs min/max/average statistics and the periodic status
// report.
//
// Basic usage:
//
//	opts := thermoguard.DefaultOptions()
//	opts.SettingsPath = "/etc/thermoguard/settings.json"
//
//	mon, err := thermoguard.New(opts)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := mon.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer mon.Stop()
package thermoguard
