// Package records derives personal records from a set of completed runs.
// Records are always recomputed from the full set, never patched incrementally,
// so edits and deletions of past runs cannot leave them stale.
package records

import (
	"slices"
	"time"

	"github.com/rotblauer/catpace/common"
	"github.com/rotblauer/catpace/conceptual"
	"github.com/rotblauer/catpace/types/catrun"
)

type Kind int

const (
	LongestDistance Kind = iota
	FastestPace
	LongestDuration
	MostSteps
)

var AllKinds = []Kind{LongestDistance, FastestPace, LongestDuration, MostSteps}

func (k Kind) String() string {
	switch k {
	case LongestDistance:
		return "longest_distance"
	case FastestPace:
		return "fastest_pace"
	case LongestDuration:
		return "longest_duration"
	case MostSteps:
		return "most_steps"
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Record is one record slot. A zero Record means no holder.
// Durations are in seconds, distances in meters, paces in seconds per kilometer.
type Record struct {
	Value      float64               `json:"value"`
	ActivityID conceptual.ActivityID `json:"activity_id,omitempty"`
	Date       time.Time             `json:"date,omitempty"`
}

func (r Record) IsSet() bool {
	return !r.ActivityID.Empty()
}

type PersonalRecords struct {
	LongestDistance Record `json:"longest_distance"`
	FastestPace     Record `json:"fastest_pace"`
	LongestDuration Record `json:"longest_duration"`
	MostSteps       Record `json:"most_steps"`
}

// Get returns the record for a kind.
func (p PersonalRecords) Get(k Kind) Record {
	switch k {
	case LongestDistance:
		return p.LongestDistance
	case FastestPace:
		return p.FastestPace
	case LongestDuration:
		return p.LongestDuration
	case MostSteps:
		return p.MostSteps
	}
	return Record{}
}

func (p *PersonalRecords) set(k Kind, r Record) {
	switch k {
	case LongestDistance:
		p.LongestDistance = r
	case FastestPace:
		p.FastestPace = r
	case LongestDuration:
		p.LongestDuration = r
	case MostSteps:
		p.MostSteps = r
	}
}

// Broken describes one record improved by a new run.
type Broken struct {
	Kind     Kind    `json:"kind"`
	OldValue float64 `json:"old_value"`
	NewValue float64 `json:"new_value"`
}

// valueOf returns the run's metric for a kind.
func valueOf(k Kind, run *catrun.CatRun) float64 {
	switch k {
	case LongestDistance:
		return run.Distance
	case FastestPace:
		return run.AveragePace
	case LongestDuration:
		return run.Duration.Seconds()
	case MostSteps:
		return float64(run.Steps)
	}
	return 0
}

// improves reports whether candidate strictly beats the current value.
// Pace is lower-is-better and must be positive and finite; zero current means unset.
func improves(k Kind, candidate, current float64) bool {
	if !common.IsFinite(candidate) {
		return false
	}
	if k == FastestPace {
		return candidate > 0 && (current == 0 || candidate < current)
	}
	return candidate > current
}

// Compute selects the holder of each record across runs.
// Runs are considered oldest first; ties stay with the earlier run.
// An empty set, or a set with no qualifying value, yields zero records.
func Compute(runs []*catrun.CatRun) PersonalRecords {
	sorted := make([]*catrun.CatRun, 0, len(runs))
	for _, r := range runs {
		if r != nil {
			sorted = append(sorted, r)
		}
	}
	slices.SortStableFunc(sorted, catrun.ByStart)

	var out PersonalRecords
	for _, run := range sorted {
		for _, k := range AllKinds {
			v := valueOf(k, run)
			if improves(k, v, out.Get(k).Value) {
				out.set(k, Record{Value: v, ActivityID: run.ID, Date: run.Start})
			}
		}
	}
	return out
}

// DetectBroken compares a new run against the current records,
// returning one entry per strictly improved metric.
func DetectBroken(run *catrun.CatRun, current PersonalRecords) []Broken {
	if run == nil {
		return nil
	}
	var out []Broken
	for _, k := range AllKinds {
		old := current.Get(k).Value
		v := valueOf(k, run)
		if improves(k, v, old) {
			out = append(out, Broken{Kind: k, OldValue: old, NewValue: v})
		}
	}
	return out
}
