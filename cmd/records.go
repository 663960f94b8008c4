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
	"os"

	"github.com/rotblauer/catpace/records"
	"github.com/rotblauer/catpace/state"
	"github.com/rotblauer/catpace/types/activity"
	"github.com/spf13/cobra"
)

var optRecordsActivity string

// recordsCmd represents the records command
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Show personal records",
	Long: `Records computes personal records over every stored activity.
Records are never stored; they are recomputed from history each time.`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		store, err := state.Open(datadir(), true)
		cobra.CheckErr(err)
		defer store.Close()

		runs, err := store.List(state.Query{Activity: activity.FromString(optRecordsActivity)})
		cobra.CheckErr(err)
		printRecords(os.Stdout, records.Compute(runs))
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.Flags().StringVar(&optRecordsActivity, "activity", "", "Only Walking or Running")
}
