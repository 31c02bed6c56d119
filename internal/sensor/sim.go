package sensor

import (
	"context"
	"math/rand"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
)

// SimulatedDevice is the pseudo-device name attached to simulated
// readings so downstream consumers can display their origin.
const SimulatedDevice = "Simulated Storage"

const (
	simBaseCelsius   = 35.0
	simCPUFactor     = 0.25
	simFloorCelsius  = 25.0
	simCeilCelsius   = 85.0
	simSpikeCPUMin   = 80.0
	simSpikeChance   = 0.3
	simDefaultResult = 45.0
)

// Simulator produces a plausible storage temperature as a function of
// current CPU utilization. It exists so the pipeline keeps exercising
// classification, history, and alerting when no hardware is observable;
// every reading it emits is flagged Synthetic.
type Simulator struct {
	// cpuPercent reports utilization over a short sampling window;
	// overridable in tests.
	cpuPercent func(ctx context.Context) (float64, error)
	// randFloat returns a value in [0, 1); overridable in tests.
	randFloat func() float64
}

// NewSimulator creates a Simulator backed by gopsutil CPU sampling.
func NewSimulator() *Simulator {
	return &Simulator{
		cpuPercent: func(ctx context.Context) (float64, error) {
			pcts, err := cpu.PercentWithContext(ctx, 100*time.Millisecond, false)
			if err != nil {
				return 0, err
			}
			if len(pcts) == 0 {
				return 0, nil
			}
			return pcts[0], nil
		},
		randFloat: rand.Float64,
	}
}

// Name implements Source.
func (s *Simulator) Name() string { return "simulated" }

// Read implements Source. It never fails: when CPU utilization cannot be
// sampled it emits a flat default value so sampling never stops.
func (s *Simulator) Read(ctx context.Context) ([]Reading, error) {
	return []Reading{{
		Source:    s.Name(),
		Device:    SimulatedDevice,
		Sensor:    "Temperature",
		Celsius:   s.value(ctx),
		Synthetic: true,
		Timestamp: time.Now(),
	}}, nil
}

func (s *Simulator) value(ctx context.Context) float64 {
	cpuPct, err := s.cpuPercent(ctx)
	if err != nil {
		return simDefaultResult
	}

	temp := simBaseCelsius + cpuPct*simCPUFactor
	temp += s.randFloat()*2 - 1 // +/- 1 degree of noise

	// Busy machines occasionally spike, like real drives under load.
	if cpuPct > simSpikeCPUMin && s.randFloat() < simSpikeChance {
		temp += 5 + s.randFloat()*10
		if temp > simCeilCelsius {
			temp = simCeilCelsius
		}
		return temp
	}

	if temp < simFloorCelsius {
		temp = simFloorCelsius
	}
	return temp
}
