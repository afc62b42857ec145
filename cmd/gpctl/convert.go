package main

import (
	"fmt"
	"os"

	"github.com/n0madic/go-gaussian-process/gp"
	"github.com/spf13/cobra"
)

var (
	convertState string
	convertOut   string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert between YAML state files and gob snapshots",
	Long: `Convert between YAML state files and gob snapshots.

The output format follows the extension of --out: .gob writes a snapshot,
anything else writes YAML.

Examples:
  gpctl convert --state gp.yaml --out gp.gob
  gpctl convert --state gp.gob --out gp.yaml`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertState, "state", "s", "", "Input state file (YAML or .gob)")
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "", "Output file")
}

func runConvert(cmd *cobra.Command, args []string) error {
	if convertOut == "" {
		return fmt.Errorf("no output file given (use --out)")
	}
	g, err := loadEngine(convertState)
	if err != nil {
		return err
	}

	f, err := os.Create(convertOut)
	if err != nil {
		return err
	}
	if isSnapshot(convertOut) {
		err = g.Save(f)
	} else {
		err = gp.EncodeStateYAML(f, g.State())
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", convertOut, err)
	}
	logger.Debug("state converted", "from", convertState, "to", convertOut, "measurements", g.NumMeasurements())
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d measurements)\n", convertOut, g.NumMeasurements())
	return nil
}
