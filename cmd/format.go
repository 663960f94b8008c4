/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/catpace/records"
	"github.com/rotblauer/catpace/types/catrun"
)

// formatPace renders seconds per kilometer as m:ss/km.
func formatPace(secondsPerKm float64) string {
	if secondsPerKm <= 0 || math.IsInf(secondsPerKm, 0) || math.IsNaN(secondsPerKm) {
		return "-:--/km"
	}
	s := int(math.Round(secondsPerKm))
	return fmt.Sprintf("%d:%02d/km", s/60, s%60)
}

// formatDistance renders meters as kilometers past one kilometer.
func formatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%s m", humanize.Comma(int64(math.Round(meters))))
	}
	return fmt.Sprintf("%s km", humanize.FormatFloat("#,###.##", meters/1000))
}

func formatRecord(k records.Kind, r records.Record) string {
	if !r.IsSet() {
		return "-"
	}
	switch k {
	case records.LongestDistance:
		return formatDistance(r.Value)
	case records.FastestPace:
		return formatPace(r.Value)
	case records.LongestDuration:
		return (time.Duration(r.Value) * time.Second).String()
	case records.MostSteps:
		return humanize.Comma(int64(r.Value))
	}
	return fmt.Sprint(r.Value)
}

func printRun(w io.Writer, run *catrun.CatRun) {
	fmt.Fprintf(w, "%s %s %s\n", run.Activity.Emoji(), run.Activity, run.ID)
	fmt.Fprintf(w, "  started   %s (%s)\n", run.Start.Local().Format(time.RFC1123), humanize.Time(run.Start))
	fmt.Fprintf(w, "  duration  %s\n", run.Duration.Round(time.Second))
	fmt.Fprintf(w, "  distance  %s\n", formatDistance(run.Distance))
	fmt.Fprintf(w, "  pace      %s avg, %s best\n", formatPace(run.AveragePace), formatPace(run.MaxPace))
	fmt.Fprintf(w, "  steps     %s\n", humanize.Comma(int64(run.Steps)))
	fmt.Fprintf(w, "  calories  %s\n", humanize.Comma(int64(run.Calories)))
	if run.ElevationGain != nil {
		fmt.Fprintf(w, "  climb     %s m\n", humanize.Ftoa(*run.ElevationGain))
	}
	for _, split := range run.Splits {
		fmt.Fprintf(w, "  split %-3d %s in %s, %s\n", split.Index,
			formatDistance(split.Distance), split.Duration.Round(time.Second), formatPace(split.Pace))
	}
}

func printRecords(w io.Writer, recs records.PersonalRecords) {
	for _, k := range records.AllKinds {
		r := recs.Get(k)
		line := fmt.Sprintf("%-18s %s", k, formatRecord(k, r))
		if r.IsSet() {
			line += fmt.Sprintf("  (%s, %s)", r.Date.Local().Format(time.DateOnly), r.ActivityID)
		}
		fmt.Fprintln(w, line)
	}
}
