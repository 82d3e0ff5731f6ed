package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"chillerdash/domain/tariff"

	"github.com/spf13/cobra"
)

func newTariffsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tariffs [category]",
		Short: "List the electricity tariffs offered in the mapping form",
		Long: `List the tariff catalog, optionally limited to one customer category.

Example: chillerdash-cli tariffs Business`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := tariff.Default()
			if err != nil {
				return err
			}
			category := ""
			if len(args) == 1 {
				category = args[0]
			}
			return runTariffs(cmd.OutOrStdout(), catalog, category, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")
	return cmd
}

func runTariffs(out io.Writer, catalog *tariff.Catalog, category string, asJSON bool) error {
	categories := catalog.Categories
	if category != "" {
		groups, err := catalog.Groups(category)
		if err != nil {
			return fmt.Errorf("unknown category %q, expected one of %s", category, strings.Join(catalog.CategoryNames(), ", "))
		}
		for _, c := range catalog.Categories {
			if strings.EqualFold(c.Name, category) {
				categories = []tariff.Category{{Name: c.Name, Groups: groups}}
				break
			}
		}
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(categories)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tGROUP\tTARIFF\tRATES")
	for _, c := range categories {
		for _, g := range c.Groups {
			for _, t := range g.Tariffs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, g.Name, t.Name, formatRates(t))
			}
		}
	}
	return tw.Flush()
}

func formatRates(t tariff.Tariff) string {
	rates := t.SortedRates()
	parts := make([]string, len(rates))
	for i, r := range rates {
		parts[i] = fmt.Sprintf("%s=%g", r.Name, r.Value)
	}
	return strings.Join(parts, ", ")
}
