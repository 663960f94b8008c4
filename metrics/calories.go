package metrics

import (
	"math"
	"time"

	"github.com/rotblauer/catpace/common"
	"github.com/rotblauer/catpace/params"
	"github.com/rotblauer/catpace/types/activity"
)

type metTier struct {
	belowKmh float64
	met      float64
}

// Ascending MET tiers by average speed in km/h. The last tier has no upper bound.
var (
	walkingMETs = []metTier{
		{4.0, 2.8},         // slow
		{5.5, 3.5},         // moderate
		{math.Inf(1), 5.0}, // brisk
	}
	runningMETs = []metTier{
		{8.0, 7.0},          // jog
		{11.0, 9.8},         // run
		{math.Inf(1), 11.5}, // fast
	}
)

// METFor returns the metabolic equivalent for the activity at the given average speed.
// Unknown activities use the walking tiers.
func METFor(act activity.Activity, speedKmh float64) float64 {
	tiers := walkingMETs
	if act == activity.Running {
		tiers = runningMETs
	}
	for _, t := range tiers {
		if speedKmh < t.belowKmh {
			return t.met
		}
	}
	return tiers[len(tiers)-1].met
}

// Calories estimates energy burned as MET × weight × hours, rounded to the nearest integer.
// The MET is chosen from the session's average speed.
// A non-positive weight falls back to params.DefaultBodyWeightKg.
func Calories(act activity.Activity, distance float64, duration time.Duration, weightKg float64) int {
	if duration <= 0 {
		return 0
	}
	if weightKg <= 0 || !common.IsFinite(weightKg) {
		weightKg = params.DefaultBodyWeightKg
	}
	speedKmh := 0.0
	if distance > 0 {
		speedKmh = common.MetersPerSecondToKmh(distance / duration.Seconds())
	}
	return int(math.Round(METFor(act, speedKmh) * weightKg * duration.Hours()))
}
