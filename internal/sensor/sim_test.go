package sensor

import (
	"context"
	"errors"
	"testing"
)

func TestSimulatorTracksCPUUtilization(t *testing.T) {
	tests := []struct {
		name    string
		cpuPct  float64
		rand    float64
		wantMin float64
		wantMax float64
	}{
		{"idle machine stays near base", 0, 0, 25.0, 35.0},
		{"moderate load", 40, 0.5, 45.0, 45.0},
		{"busy without spike", 60, 0.5, 50.0, 50.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := &Simulator{
				cpuPercent: func(ctx context.Context) (float64, error) { return tt.cpuPct, nil },
				randFloat:  func() float64 { return tt.rand },
			}
			readings, err := sim.Read(context.Background())
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			got := readings[0].Celsius
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("Celsius = %v, want in [%v, %v]", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestSimulatorSpikeIsCapped(t *testing.T) {
	sim := &Simulator{
		cpuPercent: func(ctx context.Context) (float64, error) { return 100, nil },
		randFloat:  func() float64 { return 0.2 }, // below spike chance, maximal spike
	}
	readings, err := sim.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := readings[0].Celsius; got > simCeilCelsius {
		t.Errorf("Celsius = %v, want <= %v", got, simCeilCelsius)
	}
}

func TestSimulatorFlagsSynthetic(t *testing.T) {
	sim := &Simulator{
		cpuPercent: func(ctx context.Context) (float64, error) { return 10, nil },
		randFloat:  func() float64 { return 0.5 },
	}
	readings, err := sim.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !readings[0].Synthetic {
		t.Error("simulated reading not flagged Synthetic")
	}
	if readings[0].Device != SimulatedDevice {
		t.Errorf("Device = %q, want %q", readings[0].Device, SimulatedDevice)
	}
}

func TestSimulatorCPUFailureFallsBackToDefault(t *testing.T) {
	sim := &Simulator{
		cpuPercent: func(ctx context.Context) (float64, error) { return 0, errors.New("no procfs") },
		randFloat:  func() float64 { return 0.5 },
	}
	readings, err := sim.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v, simulator must never fail", err)
	}
	if readings[0].Celsius != simDefaultResult {
		t.Errorf("Celsius = %v, want default %v", readings[0].Celsius, simDefaultResult)
	}
}
