package metrics

import (
	"math"

	"github.com/rotblauer/catpace/params"
)

type QualityTier int

const (
	QualityUnknown QualityTier = iota
	QualityPoor
	QualityFair
	QualityGood
	QualityExcellent
)

func (q QualityTier) String() string {
	switch q {
	case QualityPoor:
		return "poor"
	case QualityFair:
		return "fair"
	case QualityGood:
		return "good"
	case QualityExcellent:
		return "excellent"
	}
	return "unknown"
}

func (q QualityTier) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// Quality describes the GPS signal as judged by the last accepted fix.
type Quality struct {
	AccuracyMeters float64     `json:"accuracy_meters"`
	Tier           QualityTier `json:"tier"`
	SignalStrength int         `json:"signal_strength"` // 0-4
}

// QualityFor buckets an accuracy, in meters, into a tier.
// Negative or non-finite accuracy is unknown.
func QualityFor(accuracy float64) Quality {
	q := Quality{AccuracyMeters: accuracy}
	switch {
	case math.IsNaN(accuracy) || math.IsInf(accuracy, 0) || accuracy < 0:
		q.Tier = QualityUnknown
	case accuracy <= params.GPSQualityExcellentAccuracy:
		q.Tier = QualityExcellent
	case accuracy <= params.GPSQualityGoodAccuracy:
		q.Tier = QualityGood
	case accuracy <= params.GPSQualityFairAccuracy:
		q.Tier = QualityFair
	default:
		q.Tier = QualityPoor
	}
	q.SignalStrength = int(q.Tier)
	return q
}
