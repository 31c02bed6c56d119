package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
)

// ChainConfig configures a Chain.
type ChainConfig struct {
	// ReprobeInterval, when positive, re-enables a failed source for one
	// probe read after the interval elapses. Zero preserves the historical
	// fail-once, disabled-forever behavior.
	ReprobeInterval time.Duration

	// Clock supplies time for re-probe decisions. Nil means the wall clock.
	Clock clock.Clock
}

// Chain consults an ordered list of sources, highest priority first, and
// returns the first successful batch of readings. A failing source is
// disabled via its gate and skipped on subsequent calls.
type Chain struct {
	mu      sync.Mutex
	sources []Source
	gates   []*sourceGate
	cfg     ChainConfig
}

// NewChain creates a Chain over the given sources in priority order.
func NewChain(cfg ChainConfig, sources ...Source) *Chain {
	c := &Chain{sources: sources, cfg: cfg}
	c.gates = make([]*sourceGate, len(sources))
	for i := range sources {
		c.gates[i] = newSourceGate(cfg.ReprobeInterval, cfg.Clock)
	}
	return c
}

// Read attempts each enabled source in priority order and returns the
// first non-empty batch. First success wins; remaining sources are not
// consulted. When every source fails or is disabled, it returns
// ErrChainExhausted and the caller must fall back to simulation.
func (c *Chain) Read(ctx context.Context) ([]Reading, error) {
	c.mu.Lock()
	sources := c.sources
	gates := c.gates
	c.mu.Unlock()

	var lastErr error
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !gates[i].Allow() {
			continue
		}

		readings, err := src.Read(ctx)
		if err != nil {
			gates[i].RecordFailure()
			lastErr = fmt.Errorf("%s: %w", src.Name(), err)
			continue
		}
		if len(readings) == 0 {
			// A working source with nothing to report is not a failure,
			// but the chain keeps looking for a source with data.
			gates[i].RecordSuccess()
			lastErr = fmt.Errorf("%s: %w", src.Name(), ErrSourceUnavailable)
			continue
		}

		gates[i].RecordSuccess()
		return readings, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrChainExhausted, lastErr)
	}
	return nil, ErrChainExhausted
}

// SourceStatus describes the availability of one chain source.
type SourceStatus struct {
	Name     string
	Disabled bool
	Failures int64
}

// Status returns the current availability of every source in priority order.
func (c *Chain) Status() []SourceStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	statuses := make([]SourceStatus, len(c.sources))
	for i, src := range c.sources {
		statuses[i] = SourceStatus{
			Name:     src.Name(),
			Disabled: c.gates[i].Disabled(),
			Failures: c.gates[i].Failures(),
		}
	}
	return statuses
}
