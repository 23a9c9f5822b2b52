// Package main repairs CSV files whose trailing column holds unquoted
// commas, rejoining the overflow fields and rewriting the file quoted.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"strategy-perf-lab/internal/decisionfile"
)

func main() {
	input := flag.String("in", "", "Input CSV file")
	output := flag.String("out", "", "Output CSV file (defaults to overwriting the input)")
	dir := flag.String("dir", "", "Repair every .csv file in a directory in place")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	switch {
	case *dir != "":
		if err := repairDir(*dir); err != nil {
			log.Fatal().Err(err).Msg("repair directory")
		}
	case *input != "":
		out := *output
		if out == "" {
			out = *input
		}
		rows, err := decisionfile.RepairCSV(*input, out)
		if err != nil {
			log.Fatal().Err(err).Str("file", *input).Msg("repair file")
		}
		fmt.Printf("%s: %d rows written to %s\n", *input, rows, out)
	default:
		fmt.Fprintln(os.Stderr, "Usage: fixcsv --in file.csv [--out fixed.csv] | fixcsv --dir csvdir")
		os.Exit(1)
	}
}

// repairDir rewrites every .csv file in dir in place.
func repairDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		rows, err := decisionfile.RepairCSV(path, path)
		if err != nil {
			return fmt.Errorf("repair %s: %w", name, err)
		}
		fmt.Printf("%s: %d rows\n", name, rows)
	}

	fmt.Printf("Repaired %d files\n", len(names))
	return nil
}
