// Package metrics derives distance, pace, calorie and elevation figures from a route.
// Every function is pure; degenerate input yields zero (or nil) sentinels, never errors.
package metrics

import (
	"time"

	"github.com/montanaflynn/stats"
	"github.com/rotblauer/catpace/common"
	"github.com/rotblauer/catpace/types/trackpoint"
)

// TotalDistance returns the sum of haversine distances, in meters, between consecutive points.
func TotalDistance(route trackpoint.Route) float64 {
	distance := 0.0
	for i := 1; i < len(route); i++ {
		distance += common.Haversine(route[i-1].Point(), route[i].Point())
	}
	return distance
}

// AveragePace returns seconds per kilometer. It is 0 when distance is not positive.
func AveragePace(duration time.Duration, distance float64) float64 {
	if distance <= 0 || !common.IsFinite(distance) {
		return 0
	}
	return duration.Seconds() / (distance / 1000)
}

// CurrentPace returns the pace, in seconds per kilometer, over the points
// in the trailing window ending at now.
// It is 0 when fewer than two points fall in the window,
// or when their distance or elapsed time is zero.
func CurrentPace(route trackpoint.Route, now time.Time, window time.Duration) float64 {
	recent := route.Since(now.Add(-window))
	if len(recent) < 2 {
		return 0
	}
	return segmentPace(recent)
}

// MaxPace slides a window of windowPoints consecutive points across the route
// and returns the fastest (minimum) pace seen, in seconds per kilometer.
// It is 0 when the route is shorter than the window, or no window yields
// positive distance and time.
func MaxPace(route trackpoint.Route, windowPoints int) float64 {
	if windowPoints < 2 || len(route) < windowPoints {
		return 0
	}
	paces := make([]float64, 0, len(route)-windowPoints+1)
	for i := 0; i+windowPoints <= len(route); i++ {
		if p := segmentPace(route[i : i+windowPoints]); p > 0 {
			paces = append(paces, p)
		}
	}
	fastest, err := stats.Min(paces)
	if err != nil {
		return 0
	}
	return fastest
}

func segmentPace(seg trackpoint.Route) float64 {
	distance := TotalDistance(seg)
	elapsed := seg.Span()
	if distance <= 0 || elapsed <= 0 {
		return 0
	}
	return AveragePace(elapsed, distance)
}

// AccuracyMean returns the mean smoothed accuracy of the route points, in meters.
func AccuracyMean(route trackpoint.Route) float64 {
	data := make(stats.Float64Data, 0, len(route))
	for _, tp := range route {
		data = append(data, tp.Accuracy)
	}
	mean, err := data.Mean()
	if err != nil {
		return 0
	}
	return common.DecimalToFixed(mean, 2)
}
