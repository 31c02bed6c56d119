package sensor

import "context"

// Source is a single temperature provider. Implementations must be safe
// for concurrent use and must return promptly; long-running probes are
// expected to honor ctx cancellation.
type Source interface {
	// Name identifies the source (e.g., "hwmon", "smartctl").
	Name() string

	// Read returns the current batch of temperature readings. An empty
	// batch with a nil error means the source is working but observed
	// nothing; a non-nil error marks the attempt as failed.
	Read(ctx context.Context) ([]Reading, error)
}
