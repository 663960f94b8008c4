package clean

import (
	"github.com/rotblauer/catpace/common"
	"github.com/rotblauer/catpace/params"
	"github.com/rotblauer/catpace/types/fix"
)

type Reason int

const (
	Accepted Reason = iota
	RejectAccuracy
	RejectInvalid
	RejectOutOfOrder
	RejectStationary
	RejectMinDistance
)

var AllReasons = []Reason{
	Accepted, RejectAccuracy, RejectInvalid, RejectOutOfOrder, RejectStationary, RejectMinDistance,
}

func (r Reason) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectAccuracy:
		return "accuracy"
	case RejectInvalid:
		return "invalid"
	case RejectOutOfOrder:
		return "out_of_order"
	case RejectStationary:
		return "stationary"
	case RejectMinDistance:
		return "min_distance"
	}
	return "unknown"
}

// FilterPoorAccuracy passes fixes whose reported accuracy is no worse than the threshold.
// Non-finite and negative (unknown) accuracies fail.
func FilterPoorAccuracy(config *params.FilterConfig, f fix.Fix) bool {
	return f.Accuracy >= 0 && f.Accuracy <= config.AccuracyThreshold
}

// FilterInvalidCoordinates passes fixes with finite, in-range coordinates.
func FilterInvalidCoordinates(f fix.Fix) bool {
	return common.IsFinite(f.Lat) && common.IsFinite(f.Lng) &&
		f.Lat >= -90 && f.Lat <= 90 && f.Lng >= -180 && f.Lng <= 180
}

// FilterOutOfOrder passes fixes strictly newer than the last accepted fix.
func FilterOutOfOrder(last *fix.Fix, f fix.Fix) bool {
	return last == nil || f.Time.After(last.Time)
}

// FilterStationary passes fixes that appear to be moving.
// A reported speed is trusted when present; otherwise speed is derived from
// the distance and elapsed time since the last accepted fix.
// With nothing to derive from, the fix passes.
func FilterStationary(config *params.FilterConfig, last *fix.Fix, f fix.Fix) bool {
	return !(speedOf(last, f) < config.StationarySpeedThreshold)
}

// speedOf returns the reported or derived speed in m/s, or +Inf when it cannot be known.
func speedOf(last *fix.Fix, f fix.Fix) float64 {
	if f.HasSpeed() {
		return *f.Speed
	}
	if last == nil {
		return inf
	}
	seconds := f.Time.Sub(last.Time).Seconds()
	if seconds <= 0 {
		return inf
	}
	return common.Haversine(last.Point(), f.Point()) / seconds
}

// FilterMinDistance passes smoothed fixes far enough from the last accepted fix.
func FilterMinDistance(config *params.FilterConfig, last *fix.Fix, smoothed fix.Fix) bool {
	if last == nil {
		return true
	}
	return common.Haversine(last.Point(), smoothed.Point()) >= config.MinDistanceBetweenPoints
}
