package clean

import (
	"math"

	"github.com/rotblauer/catpace/types/fix"
)

var inf = math.Inf(1)

// kalman is a scalar-variance position estimator.
// Latitude and longitude are smoothed independently with a shared variance,
// which is seeded by the first observation's squared accuracy.
type kalman struct {
	lat, lng    float64
	variance    float64
	initialized bool
}

// observe folds the fix into the estimate and returns the smoothed fix.
// The smoothed fix keeps every raw field except its position,
// and reports the estimate's standard deviation as its accuracy.
func (k *kalman) observe(f fix.Fix, processNoise, measurementNoise float64) fix.Fix {
	if !k.initialized {
		k.lat, k.lng = f.Lat, f.Lng
		k.variance = f.Accuracy * f.Accuracy
		k.initialized = true
	} else {
		p := k.variance + processNoise
		gain := 1.0
		if d := p + f.Accuracy*f.Accuracy + measurementNoise; d > 0 {
			gain = p / d
		}
		k.lat += gain * (f.Lat - k.lat)
		k.lng += gain * (f.Lng - k.lng)
		k.variance = (1 - gain) * p
	}
	out := f
	out.Lat, out.Lng = k.lat, k.lng
	out.Accuracy = math.Sqrt(k.variance)
	return out
}

func (k *kalman) reset() {
	*k = kalman{}
}
