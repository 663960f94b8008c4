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
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rotblauer/catpace/api"
	"github.com/rotblauer/catpace/common"
	"github.com/rotblauer/catpace/metrics"
	"github.com/rotblauer/catpace/metrics/influxdb"
	"github.com/rotblauer/catpace/params"
	"github.com/rotblauer/catpace/session"
	"github.com/rotblauer/catpace/state"
	"github.com/rotblauer/catpace/types/activity"
	"github.com/rotblauer/catpace/types/catrun"
	"github.com/rotblauer/catpace/types/fix"
	"github.com/spf13/cobra"
)

var optReplayActivity string
var optReplaySpeedup float64
var optReplayCadence float64
var optReplayDryRun bool

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay [file]",
	Short: "Replay recorded fixes as a walk or run",
	Long: `Replay reads fixes from a file, or stdin, and runs them through a session
as if they were arriving live. The completed activity is stored and scored.

Fixes may be NDJSON, a JSON array, or GeoJSON Features/FeatureCollections.

Examples:

  catpace replay --activity running morning.ndjson
  cat walk.geojson | catpace replay --speedup 60 --cadence 1.8
`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		var in io.Reader = os.Stdin
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			cobra.CheckErr(err)
			defer f.Close()
			in = f
		}
		fixes, err := fix.DecodeAll(in)
		cobra.CheckErr(err)
		slog.Info("Read fixes", "n", len(fixes))

		act := activity.FromString(optReplayActivity)
		if !act.IsKnown() {
			cobra.CheckErr(fmt.Errorf("unknown activity %q", optReplayActivity))
		}

		var store api.Store
		if !optReplayDryRun {
			s, err := state.Open(datadir(), false)
			cobra.CheckErr(err)
			defer s.Close()
			store = s
		}

		provider := api.NewReplayProvider(fixes, optReplaySpeedup)
		cat := api.NewCat(&api.CatConfig{Session: sessionConfig(), Filter: filterConfig()}, store,
			api.WithLocationProvider(provider),
			api.WithStepProvider(provider.StepProvider(optReplayCadence)),
			api.WithTrackerOptions(session.WithClock(provider.Clock())),
		)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go logLive(ctx, cat.Tracker)

		_, err = cat.Start(ctx, act)
		cobra.CheckErr(err)

		select {
		case <-provider.Done():
		case sig := <-common.Interrupted():
			slog.Warn("Received signal, stopping", "signal", sig)
		}

		result, err := cat.Stop()
		if result == nil {
			cobra.CheckErr(err)
		}
		if err != nil {
			slog.Error("Activity not saved", "error", err)
		}
		printRun(os.Stdout, result.Run)
		for _, b := range result.Broken {
			fmt.Printf("🏆 new %s: %s\n", b.Kind, formatRecord(b.Kind, result.Records.Get(b.Kind)))
		}

		if store != nil && params.DefaultInfluxConfig.Enabled() {
			if err := influxdb.ExportCatRuns(params.DefaultInfluxConfig, []*catrun.CatRun{result.Run}); err != nil {
				slog.Error("Failed to export to InfluxDB", "error", err)
			}
		}
	},
}

// logLive logs each live metrics update until ctx is done.
func logLive(ctx context.Context, tracker *session.Tracker) {
	ch := make(chan metrics.Live, 16)
	sub := tracker.SubscribeMetrics(ch)
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case live := <-ch:
			slog.Info("Live",
				"status", live.Status,
				"distance", formatDistance(live.Distance),
				"duration", live.Duration.Round(time.Second),
				"pace", formatPace(live.CurrentPace),
				"avg", formatPace(live.AveragePace),
				"steps", live.Steps,
				"kcal", live.Calories)
		}
	}
}

func init() {
	rootCmd.AddCommand(replayCmd)

	flags := replayCmd.Flags()
	flags.StringVar(&optReplayActivity, "activity", activity.Running.String(), "Walking or Running")
	flags.Float64Var(&optReplaySpeedup, "speedup", 0, "Replay speed relative to the fix timestamps. 0 replays as fast as possible")
	flags.Float64Var(&optReplayCadence, "cadence", 0, "Simulated steps per second. 0 disables the step counter")
	flags.BoolVar(&optReplayDryRun, "dry-run", false, "Do not store the activity")
}
