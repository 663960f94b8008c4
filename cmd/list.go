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
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/catpace/state"
	"github.com/rotblauer/catpace/types/activity"
	"github.com/rotblauer/catpace/types/catrun"
	"github.com/spf13/cobra"
)

var optListActivity string
var optListSince time.Duration
var optListLimit int
var optListGeoJSON bool
var optListVerbose bool

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored activities",
	Long: `List prints stored activities, oldest first.

Examples:

  catpace list --activity walking --since 168h
  catpace list --limit 10 --geojson > recent.geojson
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		store, err := state.Open(datadir(), true)
		cobra.CheckErr(err)
		defer store.Close()

		q := state.Query{
			Activity: activity.FromString(optListActivity),
			Limit:    optListLimit,
		}
		if optListSince > 0 {
			q.From = time.Now().Add(-optListSince)
		}
		runs, err := store.List(q)
		cobra.CheckErr(err)

		if optListGeoJSON {
			enc := json.NewEncoder(os.Stdout)
			cobra.CheckErr(enc.Encode(catrun.FeatureCollection(runs)))
			return
		}
		total := 0.0
		for _, run := range runs {
			total += run.Distance
			if optListVerbose {
				printRun(os.Stdout, run)
				continue
			}
			fmt.Printf("%s %-20s %-8s %10s %8s %9s  %s\n",
				run.Activity.Emoji(),
				run.Start.Local().Format(time.DateTime),
				run.Activity,
				formatDistance(run.Distance),
				run.Duration.Round(time.Second),
				formatPace(run.AveragePace),
				run.ID)
		}
		fmt.Printf("%s activities, %s\n", humanize.Comma(int64(len(runs))), formatDistance(total))
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	flags := listCmd.Flags()
	flags.StringVar(&optListActivity, "activity", "", "Only Walking or Running")
	flags.DurationVar(&optListSince, "since", 0, "Only activities started within this long ago")
	flags.IntVar(&optListLimit, "limit", 0, "Only the most recent activities")
	flags.BoolVar(&optListGeoJSON, "geojson", false, "Print a GeoJSON FeatureCollection")
	flags.BoolVarP(&optListVerbose, "verbose", "v", false, "Print each activity in full, with splits")
}
