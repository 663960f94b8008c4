package trackpoint

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/rotblauer/catpace/types/fix"
)

// TrackPoint is an accepted, smoothed fix as stored on a session route.
type TrackPoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Elevation *float64  `json:"elevation,omitempty"` // meters
	Time      time.Time `json:"time"`
	Accuracy  float64   `json:"accuracy"` // smoothed estimate, meters
}

// FromFix builds a TrackPoint from a filtered fix.
func FromFix(f fix.Fix) TrackPoint {
	tp := TrackPoint{
		Lat:      f.Lat,
		Lng:      f.Lng,
		Time:     f.Time,
		Accuracy: f.Accuracy,
	}
	if f.Altitude != nil {
		alt := *f.Altitude
		tp.Elevation = &alt
	}
	return tp
}

// Point returns the track point as an orb.Point, which is [lng, lat].
func (tp TrackPoint) Point() orb.Point {
	return orb.Point{tp.Lng, tp.Lat}
}

// Route is the append-only, time-ordered sequence of accepted track points.
type Route []TrackPoint

// LineString returns the route geometry.
func (r Route) LineString() orb.LineString {
	ls := make(orb.LineString, 0, len(r))
	for _, tp := range r {
		ls = append(ls, tp.Point())
	}
	return ls
}

// Bound returns the bounding box of the route.
func (r Route) Bound() orb.Bound {
	return r.LineString().Bound()
}

// Span returns the time between the first and last points.
func (r Route) Span() time.Duration {
	if len(r) < 2 {
		return 0
	}
	return r[len(r)-1].Time.Sub(r[0].Time)
}

// Since returns the trailing sub-route with points at or after t.
func (r Route) Since(t time.Time) Route {
	for i := range r {
		if !r[i].Time.Before(t) {
			return r[i:]
		}
	}
	return nil
}

// Copy returns a copy of the route, safe to hand out while the original keeps growing.
func (r Route) Copy() Route {
	if r == nil {
		return nil
	}
	out := make(Route, len(r))
	copy(out, r)
	return out
}
