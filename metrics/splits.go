package metrics

import (
	"time"

	"github.com/rotblauer/catpace/common"
	"github.com/rotblauer/catpace/types/trackpoint"
)

// Split is one fixed-distance section of a route.
// The last split may be partial.
type Split struct {
	Index     int           `json:"index"`
	Distance  float64       `json:"distance"` // meters
	Duration  time.Duration `json:"duration"`
	Pace      float64       `json:"pace"` // seconds per kilometer
	Elevation float64       `json:"elevation"`
}

// Splits cuts the route every `every` meters, interpolating the time
// at which each boundary was crossed. Split durations are wall time
// between crossings.
func Splits(route trackpoint.Route, every float64) []Split {
	if len(route) < 2 || every <= 0 {
		return nil
	}
	var out []Split
	var (
		cumulative   = 0.0
		boundary     = every
		splitStart   = route[0].Time
		splitStartAt = 0.0
		elevation    = 0.0
	)
	push := func(end time.Time, endAt float64) {
		d := end.Sub(splitStart)
		dist := endAt - splitStartAt
		out = append(out, Split{
			Index:     len(out),
			Distance:  common.DecimalToFixed(dist, 1),
			Duration:  d,
			Pace:      common.DecimalToFixed(AveragePace(d, dist), 1),
			Elevation: common.DecimalToFixed(elevation, 1),
		})
		splitStart, splitStartAt, elevation = end, endAt, 0
	}
	for i := 1; i < len(route); i++ {
		prev, cur := route[i-1], route[i]
		seg := common.Haversine(prev.Point(), cur.Point())
		climb := 0.0
		if prev.Elevation != nil && cur.Elevation != nil {
			climb = *cur.Elevation - *prev.Elevation
		}
		// credited is the fraction of this segment's climb already pushed.
		credited := 0.0
		for seg > 0 && cumulative+seg >= boundary {
			frac := (boundary - cumulative) / seg
			at := prev.Time.Add(time.Duration(frac * float64(cur.Time.Sub(prev.Time))))
			elevation += (frac - credited) * climb
			credited = frac
			push(at, boundary)
			boundary += every
		}
		elevation += (1 - credited) * climb
		cumulative += seg
	}
	if cumulative-splitStartAt > 0.01 {
		push(route[len(route)-1].Time, cumulative)
	}
	return out
}
