package thermoguard

import (
	"sync"
	"time"
)

// ErrorCategory classifies where in the pipeline an error happened.
type ErrorCategory int

const (
	// ErrorCategoryUnknown is the default for uncategorized errors.
	ErrorCategoryUnknown ErrorCategory = iota
	// ErrorCategorySensor is for acquisition failures in the source chain.
	ErrorCategorySensor
	// ErrorCategoryClassify is for cycles that produced no usable sample.
	ErrorCategoryClassify
	// ErrorCategoryNotify is for desktop notification delivery failures.
	ErrorCategoryNotify
	// ErrorCategoryEmail is for email delivery failures.
	ErrorCategoryEmail
	// ErrorCategoryConfig is for settings load and validation failures.
	ErrorCategoryConfig
)

// String returns the category's lowercase name.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategorySensor:
		return "sensor"
	case ErrorCategoryClassify:
		return "classify"
	case ErrorCategoryNotify:
		return "notify"
	case ErrorCategoryEmail:
		return "email"
	case ErrorCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// TrackedError is one recorded error occurrence.
type TrackedError struct {
	Category  ErrorCategory
	Message   string
	Timestamp time.Time
}

// ErrorTracker aggregates pipeline errors by category so health checks
// can report on them without scanning logs. It keeps a bounded list of
// the most recent occurrences. Safe for concurrent use.
type ErrorTracker struct {
	mu     sync.Mutex
	counts map[ErrorCategory]int64
	recent []TrackedError
	keep   int
}

// NewErrorTracker creates a tracker retaining the last keep errors.
// Non-positive keep retains 32.
func NewErrorTracker(keep int) *ErrorTracker {
	if keep <= 0 {
		keep = 32
	}
	return &ErrorTracker{
		counts: make(map[ErrorCategory]int64),
		keep:   keep,
	}
}

// Record adds one occurrence. A nil err is ignored.
func (t *ErrorTracker) Record(category ErrorCategory, err error, at time.Time) {
	if err == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counts[category]++
	t.recent = append(t.recent, TrackedError{
		Category:  category,
		Message:   err.Error(),
		Timestamp: at,
	})
	if len(t.recent) > t.keep {
		t.recent = t.recent[len(t.recent)-t.keep:]
	}
}

// Count returns the total occurrences recorded for category.
func (t *ErrorTracker) Count(category ErrorCategory) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[category]
}

// Recent returns the retained occurrences, oldest first.
func (t *ErrorTracker) Recent() []TrackedError {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TrackedError, len(t.recent))
	copy(out, t.recent)
	return out
}

// Last returns the most recent occurrence for category. ok is false
// when none is retained.
func (t *ErrorTracker) Last(category ErrorCategory) (TrackedError, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.recent) - 1; i >= 0; i-- {
		if t.recent[i].Category == category {
			return t.recent[i], true
		}
	}
	return TrackedError{}, false
}
