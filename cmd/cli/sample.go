package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chillerdash/internal/testkit"

	"github.com/spf13/cobra"
)

func newSampleCmd() *cobra.Command {
	config := testkit.DefaultPlantConfig()
	var start string

	cmd := &cobra.Command{
		Use:   "sample [output-file]",
		Short: "Write a synthetic chiller plant log to CSV or XLSX",
		Long: `Generate a deterministic chiller plant log for trying out the dashboard.
The format follows the output file extension (.csv or .xlsx).

Example: chillerdash-cli sample plant.xlsx --rows 672 --seed 7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if start != "" {
				t, err := time.Parse(time.RFC3339, start)
				if err != nil {
					return fmt.Errorf("invalid start format (use RFC3339): %w", err)
				}
				config.Start = t
			}
			if err := runSample(args[0], config); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d readings to %s\n", config.Rows, args[0])
			return nil
		},
	}

	cmd.Flags().IntVar(&config.Rows, "rows", config.Rows, "Number of readings")
	cmd.Flags().DurationVar(&config.Interval, "interval", config.Interval, "Time between readings")
	cmd.Flags().Int64Var(&config.Seed, "seed", config.Seed, "Random seed for deterministic output")
	cmd.Flags().Float64Var(&config.MissingRate, "missing-rate", 0, "Fraction of readings left blank")
	cmd.Flags().StringVar(&config.PlantName, "plant", config.PlantName, "Plant name written to every row")
	cmd.Flags().StringVar(&start, "start", "", "First timestamp (RFC3339)")
	return cmd
}

func runSample(path string, config testkit.PlantGeneratorConfig) error {
	if config.Rows <= 0 {
		return fmt.Errorf("rows must be positive")
	}

	var write func(io.Writer) error
	gen := testkit.NewPlantDataGenerator(config)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		write = gen.WriteCSV
	case ".xlsx":
		write = gen.WriteXLSX
	default:
		return fmt.Errorf("unsupported output format %q, use .csv or .xlsx", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
