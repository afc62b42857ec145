package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/n0madic/go-gaussian-process/gp"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

var (
	predictState string
	predictAt    string
	predictJoint bool
	predictPrior bool
	predictJSON  bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the function at given inputs",
	Long: `Predict the function at given inputs.

Without --joint every input gets an independent mean and variance. With
--joint the full covariance between the inputs is printed as well.

Examples:
  gpctl predict --state gp.yaml --at 0,0.5,1
  gpctl predict --state gp.yaml --at 0,1 --joint
  gpctl predict --state gp.gob --at 0:1,2:3 --json`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringVarP(&predictState, "state", "s", "", "State file (YAML or .gob)")
	predictCmd.Flags().StringVarP(&predictAt, "at", "a", "", "Inputs to predict at")
	predictCmd.Flags().BoolVarP(&predictJoint, "joint", "j", false, "Predict the joint distribution")
	predictCmd.Flags().BoolVar(&predictPrior, "prior", false, "Ignore the measurements")
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "Output as JSON")
}

type pointResult struct {
	Input    []float64 `json:"input"`
	Mean     float64   `json:"mean"`
	Variance float64   `json:"variance"`
}

type jointResult struct {
	Inputs     [][]float64 `json:"inputs"`
	Mean       []float64   `json:"mean"`
	Covariance [][]float64 `json:"covariance"`
}

func runPredict(cmd *cobra.Command, args []string) error {
	xs, err := parsePoints(predictAt)
	if err != nil {
		return err
	}
	g, err := loadEngine(predictState)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if predictJoint {
		var jp gp.JointPrediction
		if predictPrior {
			jp, err = g.PriorJoint(xs)
		} else {
			jp, err = g.PredictJoint(xs)
		}
		if err != nil {
			return err
		}
		return writeJoint(out, jp)
	}

	var ps []gp.Prediction
	if predictPrior {
		ps, err = g.PriorBatch(xs)
	} else {
		ps, err = g.PredictBatch(xs)
	}
	if err != nil {
		return err
	}
	results := make([]pointResult, len(ps))
	for i, p := range ps {
		results[i] = pointResult{Input: p.Input, Mean: p.Output.Mean(), Variance: p.Output.Variance()}
	}
	if predictJSON {
		return writeJSON(out, results)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INPUT\tMEAN\tVARIANCE")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\n", formatPoint(r.Input), r.Mean, r.Variance)
	}
	return w.Flush()
}

func writeJoint(out io.Writer, jp gp.JointPrediction) error {
	cov := jp.Output.Covariance()
	n := cov.SymmetricDim()
	result := jointResult{Inputs: jp.Inputs, Mean: jp.Output.MeanVec(), Covariance: make([][]float64, n)}
	for i := 0; i < n; i++ {
		result.Covariance[i] = mat.Row(nil, i, cov)
	}
	if predictJSON {
		return writeJSON(out, result)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INPUT\tMEAN")
	for i, x := range result.Inputs {
		fmt.Fprintf(w, "%s\t%.6g\n", formatPoint(x), result.Mean[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\ncovariance:\n%.6g\n", mat.Formatted(cov, mat.Squeeze()))
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
