// Package decisionfile loads strategy decisions from a directory of
// per-ticker CSV files and repairs malformed results CSVs.
package decisionfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"strategy-perf-lab/internal/domain"
)

const dateLayout = "2006-01-02"

// LoadDir reads every .csv file in dir and returns the combined decisions.
// Files without a ticker column get the ticker backfilled from the filename
// stem. Expected columns: ticker (optional), strategy, date, action.
func LoadDir(dir string) ([]domain.Decision, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read decision dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var decisions []domain.Decision
	for _, name := range names {
		ticker := strings.TrimSuffix(name, filepath.Ext(name))
		fileDecisions, err := loadFile(filepath.Join(dir, name), ticker)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		decisions = append(decisions, fileDecisions...)
	}
	return decisions, nil
}

func loadFile(path, fallbackTicker string) ([]domain.Decision, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"strategy", "date", "action"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}
	tickerCol, hasTicker := cols["ticker"]

	var decisions []domain.Decision
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		date, err := time.Parse(dateLayout, record[cols["date"]])
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", record[cols["date"]], err)
		}

		ticker := fallbackTicker
		if hasTicker && record[tickerCol] != "" {
			ticker = record[tickerCol]
		}

		decisions = append(decisions, domain.Decision{
			Ticker:   ticker,
			Strategy: record[cols["strategy"]],
			Date:     domain.Day(date),
			Action:   domain.ParseAction(record[cols["action"]]),
		})
	}
	return decisions, nil
}
