package decisionfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// RepairCSV rewrites a results CSV whose final free-text column contains
// unquoted commas. Rows with more fields than the header keep the leading
// columns as-is and re-join the overflow into the last column, which the
// writer then quotes properly.
//
// Returns the number of data rows written.
func RepairCSV(inputPath, outputPath string) (int, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return 0, fmt.Errorf("read input: %w", err)
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return 0, fmt.Errorf("input has no header")
	}

	header := strings.Split(strings.TrimSpace(lines[0]), ",")
	width := len(header)

	rows := [][]string{header}
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) > width {
			// Overflow belongs to the trailing free-text column.
			fixed := append(parts[:width-1:width-1], strings.Join(parts[width-1:], ","))
			parts = fixed
		}
		rows = append(rows, parts)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.WriteAll(rows); err != nil {
		return 0, fmt.Errorf("write output: %w", err)
	}
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flush output: %w", err)
	}

	return len(rows) - 1, nil
}
