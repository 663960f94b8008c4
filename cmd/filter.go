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
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/rotblauer/catpace/geo/clean"
	"github.com/rotblauer/catpace/stream"
	"github.com/rotblauer/catpace/types/fix"
	"github.com/spf13/cobra"
)

// filterCmd represents the filter command
var filterCmd = &cobra.Command{
	Use:   "filter [file]",
	Short: "Filter and smooth fixes without starting a session",
	Long: `Filter reads fixes from a file, or stdin, runs them through the location
filter, and writes the accepted, smoothed fixes to stdout as NDJSON.
Rejection counts by reason are logged when done.

Examples:

  catpace filter --accuracy 10 raw.ndjson > clean.ndjson
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

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pipeline := clean.NewPipeline(filterConfig())
		enc := json.NewEncoder(os.Stdout)
		for f := range clean.AcceptedFixes(ctx, pipeline.Stream(ctx, stream.Slice(ctx, fixes))) {
			if err := enc.Encode(f); err != nil {
				slog.Error("Failed to write fix", "error", err)
				return
			}
		}
		slog.Info("Filtered fixes", append([]any{"read", len(fixes)}, pipeline.LogArgs()...)...)
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)
}
