package params

import "time"

type FilterConfig struct {
	// AccuracyThreshold is the worst reported horizontal accuracy, in meters, a fix may have.
	// Fixes with an accuracy greater than this value are rejected. The boundary is accepted.
	AccuracyThreshold float64

	// StationarySpeedThreshold is the speed, in m/s, below which a fix is considered
	// stationary GPS drift. Reported speed is preferred; otherwise it is derived
	// from the distance and time to the last accepted fix.
	StationarySpeedThreshold float64

	// MinDistanceBetweenPoints is the minimum distance, in meters, between
	// consecutive accepted (smoothed) fixes.
	MinDistanceBetweenPoints float64

	// ProcessNoise (Q) is added to the estimate variance before each observation.
	ProcessNoise float64

	// MeasurementNoise (R) is added to the squared reported accuracy of each observation.
	MeasurementNoise float64

	// RejectOutOfOrder rejects fixes not strictly newer than the last accepted fix.
	// When false, out-of-order fixes are evaluated against the last accepted fix
	// regardless of their timestamps.
	RejectOutOfOrder bool

	// DedupeCacheSize is the number of recent fix hashes remembered to drop
	// redelivered fixes (eg. the same fix from foreground and background providers).
	DedupeCacheSize int
}

var DefaultFilterConfig = &FilterConfig{
	AccuracyThreshold:        20.0,
	StationarySpeedThreshold: 0.5,
	MinDistanceBetweenPoints: 5.0,
	ProcessNoise:             3.0,
	MeasurementNoise:         1.0,
	RejectOutOfOrder:         true,
	DedupeCacheSize:          1_000,
}

// GPS quality tiers, by accuracy in meters (inclusive upper bounds).
const (
	GPSQualityExcellentAccuracy = 5.0
	GPSQualityGoodAccuracy      = 10.0
	GPSQualityFairAccuracy      = 20.0
)

// DefaultGPSQualityTTL is how long the last accepted fix is trusted for GPS quality queries.
var DefaultGPSQualityTTL = 30 * time.Second
