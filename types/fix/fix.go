package fix

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/rotblauer/catpace/common"
)

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidAccuracy    = errors.New("invalid accuracy")
	ErrMissingTime        = errors.New("missing time")
)

// Fix is a single raw position sample reported by the positioning provider.
// Fixes are values; filters return new fixes rather than mutating their input.
type Fix struct {
	Lat      float64   `json:"lat"`
	Lng      float64   `json:"lng"`
	Altitude *float64  `json:"altitude,omitempty"` // meters
	Accuracy float64   `json:"accuracy"`           // horizontal, meters
	Time     time.Time `json:"time"`
	Speed    *float64  `json:"speed,omitempty"`   // m/s
	Heading  *float64  `json:"heading,omitempty"` // degrees
}

// Point returns the fix as an orb.Point, which is [lng, lat].
func (f Fix) Point() orb.Point {
	return orb.Point{f.Lng, f.Lat}
}

// HasSpeed reports whether the provider reported a usable speed.
// Negative speeds are what some providers report for "unknown".
func (f Fix) HasSpeed() bool {
	return f.Speed != nil && common.IsFinite(*f.Speed) && *f.Speed >= 0
}

// Validate checks the fix is structurally usable. It does not judge quality;
// accuracy thresholds are the filter pipeline's job.
func (f Fix) Validate() error {
	if !common.IsFinite(f.Lat) || !common.IsFinite(f.Lng) ||
		math.Abs(f.Lat) > 90 || math.Abs(f.Lng) > 180 {
		return fmt.Errorf("%w: lat=%v lng=%v", ErrInvalidCoordinates, f.Lat, f.Lng)
	}
	if math.IsNaN(f.Accuracy) || f.Accuracy < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidAccuracy, f.Accuracy)
	}
	if f.Time.IsZero() {
		return ErrMissingTime
	}
	return nil
}

func (f Fix) String() string {
	return fmt.Sprintf("fix{%.6f,%.6f ±%.1fm @ %s}", f.Lat, f.Lng, f.Accuracy, f.Time.Format(time.RFC3339))
}

// Float returns a pointer to v, for the optional fields.
func Float(v float64) *float64 {
	return &v
}
