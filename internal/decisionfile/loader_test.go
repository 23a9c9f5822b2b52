package decisionfile

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"strategy-perf-lab/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDir_TickerBackfill(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AAPL.csv",
		"strategy,date,action\nmomentum,2024-01-02,buy\nmomentum,2024-01-10,sell\n")

	decisions, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	if len(decisions) != 2 {
		t.Fatalf("Expected 2 decisions, got %d", len(decisions))
	}
	if decisions[0].Ticker != "AAPL" {
		t.Errorf("Expected ticker backfilled from filename, got %q", decisions[0].Ticker)
	}
	if decisions[0].Action != domain.ActionBuy {
		t.Errorf("Expected buy, got %q", decisions[0].Action)
	}
	if !decisions[0].Date.Equal(domain.Date(2024, time.January, 2)) {
		t.Errorf("Unexpected date: %v", decisions[0].Date)
	}
}

func TestLoadDir_ExplicitTickerWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "misc.csv",
		"ticker,strategy,date,action\nMSFT,reversal,2024-01-05,sell\n,reversal,2024-01-06,buy\n")

	decisions, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	if len(decisions) != 2 {
		t.Fatalf("Expected 2 decisions, got %d", len(decisions))
	}
	if decisions[0].Ticker != "MSFT" {
		t.Errorf("Expected explicit ticker MSFT, got %q", decisions[0].Ticker)
	}
	// Blank ticker cell falls back to the filename stem.
	if decisions[1].Ticker != "misc" {
		t.Errorf("Expected fallback ticker misc, got %q", decisions[1].Ticker)
	}
}

func TestLoadDir_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AAPL.csv", "strategy,date,action\nmomentum,2024-01-02,buy\n")
	writeFile(t, dir, "MSFT.csv", "strategy,date,action\nmomentum,2024-01-03,sell\n")
	writeFile(t, dir, "notes.txt", "ignored")

	decisions, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	if len(decisions) != 2 {
		t.Fatalf("Expected 2 decisions, got %d", len(decisions))
	}
	// Files are processed in sorted order.
	if decisions[0].Ticker != "AAPL" || decisions[1].Ticker != "MSFT" {
		t.Errorf("Unexpected order: %q, %q", decisions[0].Ticker, decisions[1].Ticker)
	}
}

func TestLoadDir_UnknownActionKeptInert(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AAPL.csv", "strategy,date,action\nmomentum,2024-01-02,hold\n")

	decisions, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	if len(decisions) != 1 {
		t.Fatalf("Expected 1 decision, got %d", len(decisions))
	}
	if decisions[0].Action.IsValid() {
		t.Errorf("Expected inert action, got %q", decisions[0].Action)
	}
}

func TestLoadDir_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AAPL.csv", "strategy,date\nmomentum,2024-01-02\n")

	_, err := LoadDir(dir)
	if err == nil {
		t.Fatal("Expected error for missing action column")
	}
}

func TestRepairCSV_RejoinsOverflow(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "results.csv")
	output := filepath.Join(dir, "results_fixed.csv")

	content := "universe,cagr,signals\n" +
		"SC1,12.5,AAPL,MSFT,NVDA\n" +
		"SC2,8.1,TSLA\n"
	if err := os.WriteFile(input, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	n, err := RepairCSV(input, output)
	if err != nil {
		t.Fatalf("RepairCSV failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 rows written, got %d", n)
	}

	f, err := os.Open(output)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Repaired CSV does not parse: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d", len(records))
	}
	if records[1][2] != "AAPL,MSFT,NVDA" {
		t.Errorf("Expected overflow rejoined into signals column, got %q", records[1][2])
	}
	if records[2][2] != "TSLA" {
		t.Errorf("Expected well-formed row untouched, got %q", records[2][2])
	}
}

func TestRepairCSV_EmptyInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(input, nil, 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	_, err := RepairCSV(input, filepath.Join(dir, "out.csv"))
	if err == nil {
		t.Fatal("Expected error for empty input")
	}
}
