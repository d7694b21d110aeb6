package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meteokit/gribkit/grib/index"
	"github.com/meteokit/gribkit/pkg/types"
)

var (
	indexKeys   string
	indexOutput string
)

func init() {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Build and query persistent key indexes",
	}

	buildCmd := newIndexBuildCmd()
	buildCmd.Flags().StringVarP(&indexKeys, "keys", "k", "", "Comma-separated keys with optional kind suffix (e.g. shortName,level:l)")
	buildCmd.Flags().StringVarP(&indexOutput, "output", "o", "", "Path of the index file to write")
	buildCmd.MarkFlagRequired("keys")
	buildCmd.MarkFlagRequired("output")

	indexCmd.AddCommand(buildCmd)
	indexCmd.AddCommand(newIndexValuesCmd())
	indexCmd.AddCommand(newIndexSelectCmd())
	rootCmd.AddCommand(indexCmd)
}

func newIndexBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build <file> [file...] -k <keys> -o <out.gbx>",
		Short: "Index one or more GRIB files by the given keys",
		Long: `The build subcommand scans GRIB files, records the requested
keys of every message plus its byte range, and persists the result.

Example:
  gribctl index build analysis.grib -k shortName,level:l -o analysis.gbx
  gribctl index build day1.grib day2.grib -k shortName,dataDate:l -o week.gbx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexBuild(args)
		},
	}
}

func runIndexBuild(paths []string) error {
	ix, err := index.NewFromFile(nil, paths[0], indexKeys)
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", paths[0], err)
	}
	defer ix.Close()
	for _, path := range paths[1:] {
		printVerbose("Adding: %s\n", path)
		if err := ix.AddFile(path); err != nil {
			return fmt.Errorf("failed to index %s: %w", path, err)
		}
	}
	if err := ix.Write(indexOutput); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	printInfo("wrote %s\n", indexOutput)
	return nil
}

func newIndexValuesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "values <index.gbx> <key>",
		Short: "Print a key's distinct indexed values",
		Long: `The values subcommand prints the distinct values recorded for
one key, in first-seen order.

Example:
  gribctl index values analysis.gbx shortName`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexValues(args[0], args[1])
		},
	}
}

func runIndexValues(path, key string) error {
	ix, err := index.Read(nil, path)
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}
	defer ix.Close()

	values, err := ix.Values(key)
	if err != nil {
		return err
	}
	if jsonOut {
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = v.String()
		}
		return printJSON(map[string]interface{}{"key": key, "values": out, "count": len(out)})
	}
	for _, v := range values {
		printInfo("%s\n", v)
	}
	return nil
}

func newIndexSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <index.gbx> <key=value> [key=value...]",
		Short: "Enumerate the messages matching a selection",
		Long: `The select subcommand selects a value for every indexed key and
prints the matching messages. Every key of the index must be given.

Example:
  gribctl index select analysis.gbx shortName=t level=850`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexSelect(args[0], args[1:])
		},
	}
}

func runIndexSelect(path string, pairs []string) error {
	ix, err := index.Read(nil, path)
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}
	defer ix.Close()

	kinds := make(map[string]types.Kind)
	for _, k := range ix.Keys() {
		kinds[k.Name] = k.Kind
	}

	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return fmt.Errorf("selection %q is not key=value", pair)
		}
		kind, ok := kinds[key]
		if !ok {
			return fmt.Errorf("key %s is not indexed", key)
		}
		if err := selectTyped(ix, key, kind, value); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				printVerbose("no indexed value %s for %s\n", value, key)
				continue // enumeration below ends cleanly
			}
			return err
		}
	}

	keys := ix.Keys()
	matches := 0
	for {
		h, err := ix.NextHandle()
		if errors.Is(err, types.ErrEndOfIndex) {
			break
		}
		if err != nil {
			return err
		}
		matches++

		fields := make([]string, 0, len(keys))
		for _, k := range keys {
			s, err := h.GetString(k.Name)
			if err != nil {
				h.Close()
				return err
			}
			fields = append(fields, fmt.Sprintf("%s=%s", k.Name, s))
		}
		printInfo("offset %-10d %s\n", h.Offset(), strings.Join(fields, " "))
		h.Close()
	}
	printInfo("%d matches\n", matches)
	return nil
}

func selectTyped(ix *index.Index, key string, kind types.Kind, value string) error {
	switch kind {
	case types.Long:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("key %s wants a long, got %q", key, value)
		}
		return ix.SelectLong(key, n)
	case types.Double:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("key %s wants a double, got %q", key, value)
		}
		return ix.SelectDouble(key, f)
	default:
		return ix.SelectString(key, value)
	}
}
