package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meteokit/gribkit/grib"
)

func init() {
	rootCmd.AddCommand(newCountCmd())
}

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <file>",
		Short: "Count the messages in a GRIB file",
		Long: `The count command scans a GRIB file and reports how many
well-formed messages it contains. Bytes between messages are skipped.

Example:
  gribctl count analysis.grib`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(args[0])
		},
	}
}

func runCount(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	printVerbose("Scanning: %s\n", path)
	n, err := grib.CountMessagesInFile(nil, f)
	if err != nil {
		return fmt.Errorf("failed to count messages: %w", err)
	}

	if jsonOut {
		return printJSON(map[string]interface{}{"file": path, "count": n})
	}
	printInfo("%d\n", n)
	return nil
}
