package metrics

import "github.com/rotblauer/catpace/types/trackpoint"

// ElevationGain sums the positive altitude deltas between consecutive points
// that both carry an elevation. It is nil when no pair has elevation data
// or the sum is not positive.
func ElevationGain(route trackpoint.Route) *float64 {
	gain, _ := elevationDeltas(route)
	if gain <= 0 {
		return nil
	}
	return &gain
}

// ElevationLoss is the descending counterpart of ElevationGain, reported as a positive number.
func ElevationLoss(route trackpoint.Route) *float64 {
	_, loss := elevationDeltas(route)
	if loss <= 0 {
		return nil
	}
	return &loss
}

func elevationDeltas(route trackpoint.Route) (gain, loss float64) {
	for i := 1; i < len(route); i++ {
		prev, cur := route[i-1].Elevation, route[i].Elevation
		if prev == nil || cur == nil {
			continue
		}
		if d := *cur - *prev; d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	return gain, loss
}
