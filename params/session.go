package params

import "time"

// DefaultBodyWeightKg is used for calorie estimates when no body weight is known.
// It is a known approximation; a user profile should supply the real value.
const DefaultBodyWeightKg = 70.0

type SessionConfig struct {
	// TickInterval is the period of the duration/metrics refresh loop,
	// and the throttle window for fix-driven metrics updates.
	// Zero disables the refresh loop.
	TickInterval time.Duration

	// CurrentPaceWindow is the trailing time window used for current pace.
	CurrentPaceWindow time.Duration

	// MaxPaceWindowPoints is the number of consecutive route points
	// in the sliding window used for max (fastest) pace.
	MaxPaceWindowPoints int

	// BodyWeightKg is used for calorie estimates. Zero falls back to DefaultBodyWeightKg.
	BodyWeightKg float64

	// SplitDistance is the distance, in meters, of each split on a completed run.
	SplitDistance float64

	// QualityTTL is how long the last accepted fix is trusted for GPS quality.
	// Age is measured on the tracker clock, so replays go stale in replayed time.
	// The cache behind it also evicts on wall time, so a clock running slower
	// than the wall expires early.
	QualityTTL time.Duration
}

var DefaultSessionConfig = &SessionConfig{
	TickInterval:        time.Second,
	CurrentPaceWindow:   30 * time.Second,
	MaxPaceWindowPoints: 10,
	BodyWeightKg:        DefaultBodyWeightKg,
	SplitDistance:       1000,
	QualityTTL:          DefaultGPSQualityTTL,
}

// Copy returns a shallow copy of the config, safe to tweak.
func (c *SessionConfig) Copy() *SessionConfig {
	cp := *c
	return &cp
}
