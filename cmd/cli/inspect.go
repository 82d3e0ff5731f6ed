package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"chillerdash/adapters/excel"
	"chillerdash/domain/mapping"
	"chillerdash/domain/upload"
	"chillerdash/internal"
	"chillerdash/internal/errors"
	"chillerdash/internal/profiling"
	uploadsvc "chillerdash/internal/upload"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func newInspectCmd() *cobra.Command {
	var previewRows int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Validate a plant data file and print its summary",
		Long: `Read a CSV or Excel file the same way the dashboard does, run the upload
checks and print the row, column and numeric column counts together with the
column types and the suggested column mapping.

The command exits with an error when the file would be rejected by the dashboard.

Example: chillerdash-cli inspect plant.csv --preview 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := internal.LogLevelWarn
			if verbose {
				level = internal.LogLevelDebug
			}
			logger := internal.NewLoggerWithWriter(level, cmd.ErrOrStderr())
			return runInspect(cmd.OutOrStdout(), args[0], previewRows, logger)
		},
	}

	cmd.Flags().IntVar(&previewRows, "preview", 5, "Number of data rows to print")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log reader details to stderr")
	return cmd
}

func runInspect(out io.Writer, path string, previewRows int, logger *internal.Logger) error {
	name := filepath.Base(path)
	if !upload.IsAllowedExtension(name) {
		return errors.UnsupportedFormat(upload.Extension(name))
	}

	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "cannot read %s", name)
	}
	if info.Size() == 0 {
		return errors.EmptyFile("The file is empty")
	}

	data, err := excel.NewDataReader(name).WithLogger(logger).ReadFile(path)
	if err != nil {
		return err
	}

	columns := profiling.NewProfiler(excel.DefaultReaderConfig()).ProfileColumns(data)
	summary := profiling.SummarizeDataset(data.RowCount(), columns)
	result, validationErr := uploadsvc.Validate(summary)

	p := message.NewPrinter(language.English)
	p.Fprintf(out, "File:            %s (%.2f KB)\n", name, float64(info.Size())/1024)
	if data.SheetName != "" {
		p.Fprintf(out, "Worksheet:       %s\n", data.SheetName)
	}
	if data.Encoding != "" {
		p.Fprintf(out, "Encoding:        %s\n", data.Encoding)
	}
	p.Fprintf(out, "Rows:            %d\n", summary.Rows)
	p.Fprintf(out, "Columns:         %d\n", summary.Columns)
	p.Fprintf(out, "Numeric columns: %d\n", summary.NumericColumns)

	for _, w := range data.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}

	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tMISSING\tUNIQUE\tMIN\tMEAN\tMAX")
	for _, c := range columns {
		lo, avg, hi := "-", "-", "-"
		if c.Summary != nil {
			lo = p.Sprintf("%.2f", c.Summary.Min)
			avg = p.Sprintf("%.2f", c.Summary.Mean)
			hi = p.Sprintf("%.2f", c.Summary.Max)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n", c.Name, c.DataType, c.MissingCount, c.UniqueCount, lo, avg, hi)
	}
	tw.Flush()

	if result.Valid {
		suggested := mapping.Suggest(columns)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Suggested mapping:")
		for _, spec := range mapping.Roles {
			col := suggested[spec.Role]
			if col == "" {
				col = "(none)"
			}
			fmt.Fprintf(out, "  %-20s %s\n", spec.Label, col)
		}
	}

	if previewRows > 0 && len(data.Records) > 0 {
		fmt.Fprintln(out)
		tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(data.Headers, "\t"))
		for _, row := range data.Head(previewRows) {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		tw.Flush()
	}

	if !result.Valid {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "File validation failed:")
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  • %s\n", e)
		}
		return validationErr
	}
	return nil
}
