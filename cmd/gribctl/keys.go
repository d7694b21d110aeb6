package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/meteokit/gribkit/grib"
	"github.com/meteokit/gribkit/pkg/types"
)

var (
	keysNamespace string
	keysCoded     bool
	keysComputed  bool
	keysReadOnly  bool
)

func init() {
	cmd := newKeysCmd()
	cmd.Flags().StringVarP(&keysNamespace, "namespace", "n", "", "Only keys in this namespace (ls, parameter, vertical, time, geography, data)")
	cmd.Flags().BoolVar(&keysCoded, "coded", false, "Only keys backed by coded octets")
	cmd.Flags().BoolVar(&keysComputed, "computed", false, "Only keys derived from other octets")
	cmd.Flags().BoolVar(&keysReadOnly, "read-only", false, "Only keys that reject set operations")
	rootCmd.AddCommand(cmd)
}

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys <file>",
		Short: "List the keys of each message",
		Long: `The keys command iterates each message's keys, optionally
filtered by namespace and attribute flags, and prints name and value.

Example:
  gribctl keys analysis.grib
  gribctl keys analysis.grib --namespace vertical
  gribctl keys analysis.grib --computed --read-only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeys(args[0])
		},
	}
}

func keysFilter() types.AttrFlags {
	var flags types.AttrFlags
	if keysCoded {
		flags |= types.FlagCoded
	}
	if keysComputed {
		flags |= types.FlagComputed
	}
	if keysReadOnly {
		flags |= types.FlagReadOnly
	}
	return flags
}

func runKeys(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	filter := keysFilter()
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

		if jsonOut {
			entry := map[string]interface{}{"message": msg}
			it := h.Keys(keysNamespace, filter)
			for it.Next() {
				entry[it.Name()] = it.Value().String()
			}
			if err := printJSON(entry); err != nil {
				h.Close()
				return err
			}
		} else {
			printInfo("-- message %d --\n", msg)
			it := h.Keys(keysNamespace, filter)
			for it.Next() {
				printInfo("  %s = %s\n", it.Name(), it.Value())
			}
		}
		h.Close()
	}
}
