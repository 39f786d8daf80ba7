// Package commands holds the trainingcal command line.
package commands

import (
	"github.com/spf13/cobra"
)

// RootOptions are the flags shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Dev        bool
}

func New() *cobra.Command {
	ro := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "trainingcal",
		Short: "Training calendar views, seed schedule and HTTP API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&ro.ConfigPath, "config", "/etc/trainingcal/config.yaml",
		"Path to config file. A default one is written on first run.")
	cmd.PersistentFlags().StringVar(&ro.LogLevel, "log-level", "",
		"Log level (debug, info, warn, error). Overrides the config file.")
	cmd.PersistentFlags().BoolVar(&ro.Dev, "dev", false,
		"Run as a development deployment.")

	AddCommands(cmd, ro)
	return cmd
}

func AddCommands(topLevel *cobra.Command, ro *RootOptions) {
	addServe(topLevel, ro)
	addRange(topLevel, ro)
	addSeed(topLevel, ro)
	addLayout(topLevel, ro)
	addExport(topLevel, ro)
}
