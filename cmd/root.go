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
	"log/slog"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/rotblauer/catpace/params"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "catpace",
	Short: "Walk and run tracking for cats",
	Long: `catpace tracks walks and runs from GPS fixes and a step counter.

Fixes are filtered and smoothed, live pace, distance and calories are
computed while a session runs, and completed activities are stored and
scored for personal records.

Configuration is read from $HOME/.catpace.yaml (or --config), and from
the environment with the CATPACE_ prefix, e.g. CATPACE_DATADIR.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pFlags := rootCmd.PersistentFlags()
	pFlags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.catpace.yaml)")
	pFlags.String("datadir", params.DatadirRoot, "Directory for the activity store")
	pFlags.Int("verbosity", int(slog.LevelInfo), "Log level (-4 debug, 0 info, 4 warn, 8 error)")
	pFlags.Float64("weight", params.DefaultBodyWeightKg, "Body weight in kilograms, for calories")
	pFlags.Float64("split", params.DefaultSessionConfig.SplitDistance, "Split distance in meters")
	pFlags.Float64("accuracy", params.DefaultFilterConfig.AccuracyThreshold, "Reject fixes with accuracy worse than this, in meters")

	_ = viper.BindPFlags(pFlags)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".catpace")
	}

	viper.SetEnvPrefix("CATPACE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaultSlog sets the default logger level from --verbosity.
func setDefaultSlog(cmd *cobra.Command, args []string) {
	level := slog.Level(viper.GetInt("verbosity"))
	slog.SetLogLoggerLevel(level)
	slog.Debug("Log level", "level", level, "cmd", cmd.Name(), "args", args)
}

func datadir() string {
	dir, err := homedir.Expand(viper.GetString("datadir"))
	cobra.CheckErr(err)
	return dir
}

func sessionConfig() *params.SessionConfig {
	c := params.DefaultSessionConfig.Copy()
	c.BodyWeightKg = viper.GetFloat64("weight")
	c.SplitDistance = viper.GetFloat64("split")
	return c
}

func filterConfig() *params.FilterConfig {
	c := *params.DefaultFilterConfig
	c.AccuracyThreshold = viper.GetFloat64("accuracy")
	return &c
}
