package catrun

import (
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/catpace/common"
	"github.com/rotblauer/catpace/conceptual"
	"github.com/rotblauer/catpace/metrics"
	"github.com/rotblauer/catpace/types/activity"
	"github.com/rotblauer/catpace/types/trackpoint"
)

var ErrInvalidCatRun = errors.New("invalid activity")

// CatRun is the immutable record of one completed walk or run.
type CatRun struct {
	ID            conceptual.ActivityID `json:"id"`
	Activity      activity.Activity     `json:"activity"`
	Start         time.Time             `json:"start"`
	End           time.Time             `json:"end"`
	Duration      time.Duration         `json:"duration"` // active, excludes pauses
	Distance      float64               `json:"distance"` // meters
	Steps         int                   `json:"steps"`
	Route         trackpoint.Route      `json:"route"`
	AveragePace   float64               `json:"average_pace"` // seconds per kilometer, 0 if undefined
	MaxPace       float64               `json:"max_pace"`     // fastest, seconds per kilometer, 0 if undefined
	Calories      int                   `json:"calories"`
	ElevationGain *float64              `json:"elevation_gain,omitempty"`
	ElevationLoss *float64              `json:"elevation_loss,omitempty"`
	Splits        []metrics.Split       `json:"splits,omitempty"`
	AccuracyMean  float64               `json:"accuracy_mean"`
	Created       time.Time             `json:"created"`
}

// Validate checks the run is internally consistent.
func (r *CatRun) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil", ErrInvalidCatRun)
	}
	if r.ID.Empty() {
		return fmt.Errorf("%w: missing id", ErrInvalidCatRun)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: end %v before start %v", ErrInvalidCatRun, r.End, r.Start)
	}
	if r.Duration < 0 || r.Duration > r.End.Sub(r.Start) {
		return fmt.Errorf("%w: duration %v", ErrInvalidCatRun, r.Duration)
	}
	if !common.IsFinite(r.Distance) || r.Distance < 0 {
		return fmt.Errorf("%w: distance %v", ErrInvalidCatRun, r.Distance)
	}
	if !common.IsFinite(r.AveragePace) || !common.IsFinite(r.MaxPace) || r.AveragePace < 0 || r.MaxPace < 0 {
		return fmt.Errorf("%w: pace avg=%v max=%v", ErrInvalidCatRun, r.AveragePace, r.MaxPace)
	}
	for i := 1; i < len(r.Route); i++ {
		if !r.Route[i].Time.After(r.Route[i-1].Time) {
			return fmt.Errorf("%w: route point %d out of order", ErrInvalidCatRun, i)
		}
	}
	return nil
}

// Speed returns the average speed in m/s.
func (r *CatRun) Speed() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return r.Distance / r.Duration.Seconds()
}

// Feature returns the run as a GeoJSON LineString feature with summary properties.
func (r *CatRun) Feature() *geojson.Feature {
	f := geojson.NewFeature(r.Route.LineString())
	f.ID = r.ID.String()
	f.Properties["Activity"] = r.Activity.String()
	f.Properties["Time_Start_Unix"] = r.Start.Unix()
	f.Properties["Time_Start_RFC3339"] = r.Start.Format(time.RFC3339)
	f.Properties["Time_End_Unix"] = r.End.Unix()
	f.Properties["Time_End_RFC3339"] = r.End.Format(time.RFC3339)
	f.Properties["Duration"] = r.Duration.Round(time.Second).Seconds()
	f.Properties["Distance"] = common.DecimalToFixed(r.Distance, 1)
	f.Properties["Steps"] = r.Steps
	f.Properties["Pace_Average"] = common.DecimalToFixed(r.AveragePace, 1)
	f.Properties["Pace_Max"] = common.DecimalToFixed(r.MaxPace, 1)
	f.Properties["Calories"] = r.Calories
	f.Properties["Accuracy_Mean"] = r.AccuracyMean
	f.Properties["RawPointCount"] = len(r.Route)
	if r.ElevationGain != nil {
		f.Properties["Elevation_Gain"] = common.DecimalToFixed(*r.ElevationGain, 1)
	}
	if r.ElevationLoss != nil {
		f.Properties["Elevation_Loss"] = common.DecimalToFixed(*r.ElevationLoss, 1)
	}
	return f
}

// FeatureCollection bundles runs for export.
func FeatureCollection(runs []*CatRun) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range runs {
		fc.Append(r.Feature())
	}
	return fc
}

// ByStart sorts runs oldest first.
func ByStart(a, b *CatRun) int {
	return a.Start.Compare(b.Start)
}
