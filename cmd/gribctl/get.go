package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meteokit/gribkit/grib"
)

func init() {
	rootCmd.AddCommand(newGetCmd())
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <file> <key> [key...]",
		Short: "Print key values for each message",
		Long: `The get command prints the requested keys of every message,
one line per message, values in key order.

Example:
  gribctl get analysis.grib shortName level
  gribctl get analysis.grib dataDate dataTime --json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(args[0], args[1:])
		},
	}
}

func runGet(path string, keys []string) error {
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

		values := make([]string, 0, len(keys))
		for _, key := range keys {
			s, err := h.GetString(key)
			if err != nil {
				h.Close()
				return fmt.Errorf("message %d key %s: %w", msg, key, err)
			}
			values = append(values, s)
		}
		h.Close()

		if jsonOut {
			entry := map[string]interface{}{"message": msg}
			for i, key := range keys {
				entry[key] = values[i]
			}
			if err := printJSON(entry); err != nil {
				return err
			}
		} else {
			printInfo("%s\n", strings.Join(values, " "))
		}
	}
}
