package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var likelihoodState string

var likelihoodCmd = &cobra.Command{
	Use:   "likelihood",
	Short: "Print the log likelihood of the measurements",
	Long: `Print the log marginal likelihood of the measurements under the prior.

A state without measurements prints 1.`,
	Args: cobra.NoArgs,
	RunE: runLikelihood,
}

func init() {
	rootCmd.AddCommand(likelihoodCmd)

	likelihoodCmd.Flags().StringVarP(&likelihoodState, "state", "s", "", "State file (YAML or .gob)")
}

func runLikelihood(cmd *cobra.Command, args []string) error {
	g, err := loadEngine(likelihoodState)
	if err != nil {
		return err
	}
	ll, err := g.LogLikelihood()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%.10g\n", ll)
	return nil
}
