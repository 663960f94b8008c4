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
	"log/slog"

	"github.com/rotblauer/catpace/api"
	"github.com/rotblauer/catpace/common"
	"github.com/rotblauer/catpace/daemon/webd"
	"github.com/rotblauer/catpace/metrics/influxdb"
	"github.com/rotblauer/catpace/params"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// webdCmd represents the serve command
var webdCmd = &cobra.Command{
	Use:   "webd",
	Short: "Start the webserver",
	Long: `Serves a walk and run session over HTTP.

Clients start, pause, resume and stop sessions, and post fixes and step counts.
Live metrics are broadcast on the /socat websocket.
Session control is protected by CATPACE_TOKEN, if set.`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		config := params.DefaultWebDaemonConfig()
		config.DataDir = datadir()
		config.Network = viper.GetString("network")
		config.Address = viper.GetString("address")

		server, err := webd.NewWebDaemon(config, &api.CatConfig{Session: sessionConfig(), Filter: filterConfig()})
		cobra.CheckErr(err)
		defer func() {
			if err := server.Close(); err != nil {
				slog.Error("Failed to close web daemon", "error", err)
			}
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go influxdb.Exporter(ctx, params.DefaultInfluxConfig)
		go func() {
			sig := <-common.Interrupted()
			slog.Warn("Received signal, shutting down", "signal", sig)
			cancel()
		}()

		if err := server.Run(ctx); err != nil {
			slog.Error("Web daemon failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(webdCmd)

	pFlags := webdCmd.PersistentFlags()
	pFlags.AddFlagSet(listenerFlags(params.DefaultWebListenerConfig()))
	_ = viper.BindPFlags(pFlags)
}

func listenerFlags(defaults params.ListenerConfig) *pflag.FlagSet {
	fs := pflag.NewFlagSet("listener", pflag.ContinueOnError)
	fs.String("network", defaults.Network, "Network to listen on (tcp, tcp4, tcp6, unix)")
	fs.String("address", defaults.Address, "Address to listen on")
	return fs
}
