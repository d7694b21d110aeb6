package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/meteokit/gribkit/grib"
)

var dumpValues bool

func init() {
	cmd := newDumpCmd()
	cmd.Flags().BoolVar(&dumpValues, "values", false, "Include the full data values array")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "Dump every key of every message",
		Long: `The dump command prints every decoded key of every message.
The data values array is summarized unless --values is given.

Example:
  gribctl dump analysis.grib
  gribctl dump analysis.grib --values`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args[0])
		},
	}
}

func runDump(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	msg := 0
	for {
		h, err := grib.NewHandleFromFile(nil, f)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("message %d: %w", msg+1, err)
		}
		msg++

		printInfo("***** message %d (offset %d, %d bytes) *****\n", msg, h.Offset(), len(h.Message()))
		it := h.Keys("", 0)
		for it.Next() {
			v := it.Value()
			if it.Name() == "values" && !dumpValues {
				printInfo("  %s = (%d values)\n", it.Name(), v.Len())
				continue
			}
			printInfo("  %s = %s\n", it.Name(), v)
		}
		h.Close()
	}
}
