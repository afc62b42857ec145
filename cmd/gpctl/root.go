// Command gpctl queries Gaussian Process state files from the command line.
package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	rootVerbose bool

	// logger is configured by the root command before any subcommand runs.
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "gpctl",
	Short: "gpctl - Gaussian Process regression tool",
	Long: `gpctl loads a Gaussian Process from a state file and computes
predictions, the log likelihood and function samples.

State files are YAML documents with meanData, covarianceData,
defaultOutputNoiseVariance, measurements and randomVectors, or gob
snapshots written by "gpctl convert" (files ending in .gob).

Points are separated by commas; the coordinates of a vector input are
separated by colons:
  --at 0,0.5,1       three scalar inputs
  --at 0:1,2:3       two inputs in two dimensions`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if rootVerbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Log engine updates to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
