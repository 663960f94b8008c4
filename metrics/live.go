package metrics

import "time"

// Live is the snapshot pushed to subscribers while a session runs.
type Live struct {
	CurrentPace float64       `json:"current_pace"` // seconds per kilometer
	AveragePace float64       `json:"average_pace"` // seconds per kilometer
	Distance    float64       `json:"distance"`     // meters
	Duration    time.Duration `json:"duration"`     // active
	Steps       int           `json:"steps"`
	Calories    int           `json:"calories"`
	Status      string        `json:"status"`
	Time        time.Time     `json:"time"`
}
