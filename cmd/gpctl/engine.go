package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/n0madic/go-gaussian-process/gp"
)

// loadEngine builds a GP from a YAML state file or a gob snapshot.
func loadEngine(path string, options ...gp.Option) (*gp.GP, error) {
	if path == "" {
		return nil, fmt.Errorf("no state file given (use --state)")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	options = append([]gp.Option{gp.WithLogger(logger)}, options...)
	if isSnapshot(path) {
		g, err := gp.Load(f, options...)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		return g, nil
	}
	state, err := gp.DecodeStateYAML(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	g, err := gp.New(state, options...)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", path, err)
	}
	return g, nil
}

func isSnapshot(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gob")
}

// parsePoints parses comma separated points whose coordinates are separated
// by colons.
func parsePoints(s string) ([][]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("no points given")
	}
	var out [][]float64
	for _, field := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(field), ":")
		x := make([]float64, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid point %q: %w", field, err)
			}
			x[i] = v
		}
		out = append(out, x)
	}
	return out, nil
}

func formatPoint(x []float64) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ":")
}
