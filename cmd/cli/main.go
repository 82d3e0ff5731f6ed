package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "chillerdash-cli",
		Short:         "Chiller Energy Dashboard CLI for checking plant data files offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newInspectCmd(),
		newTariffsCmd(),
		newSampleCmd(),
	)
	return rootCmd
}
