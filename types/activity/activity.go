package activity

import (
	"fmt"
	"regexp"

	"github.com/rotblauer/catpace/common"
)

type Activity int

const (
	Unknown Activity = iota
	Walking
	Running
)

var AllActivityNames = []string{
	Walking.String(),
	Running.String(),
}

var (
	activityWalking = regexp.MustCompile(`(?i)walk|hike`)
	activityRunning = regexp.MustCompile(`(?i)run|jog`)
)

// IsKnown returns true if the activity is not Unknown.
func (a Activity) IsKnown() bool {
	return a == Walking || a == Running
}

// String implements the Stringer interface.
func (a Activity) String() string {
	switch a {
	case Walking:
		return "Walking"
	case Running:
		return "Running"
	}
	return "Unknown"
}

// Emoji returns a single emoji representation of the activity.
func (a Activity) Emoji() string {
	switch a {
	case Walking:
		return "🚶"
	case Running:
		return "🏃"
	}
	return "❓"
}

func (a Activity) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Activity) UnmarshalText(text []byte) error {
	*a = FromString(string(text))
	if !a.IsKnown() && string(text) != Unknown.String() {
		return fmt.Errorf("unknown activity: %q", text)
	}
	return nil
}

func FromString(str string) Activity {
	switch {
	case activityWalking.MatchString(str):
		return Walking
	case activityRunning.MatchString(str):
		return Running
	}
	return Unknown
}

// InferFromSpeed infers walking or running from a speed in m/s.
// Speeds slower than a slow walk are Unknown.
func InferFromSpeed(speed float64) Activity {
	if speed > common.SpeedOfWalkingMax {
		return Running
	}
	if speed < common.SpeedOfWalkingMin {
		return Unknown
	}
	return Walking
}

// IsReasonableForSpeed reports whether an average speed (m/s) is plausible for the activity.
func IsReasonableForSpeed(a Activity, speed float64) bool {
	switch a {
	case Walking:
		return speed >= common.SpeedOfWalkingMin && speed < common.SpeedOfRunningMax
	case Running:
		return speed >= common.SpeedOfWalkingSlow && speed < common.SpeedOfRunningMax*1.5
	}
	return true
}
