package commands

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportToJSONL(t *testing.T) {
	path := createTestLogFile(t, sessionLog())
	outPath := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		lines = append(lines, m)
	}
	if len(lines) != len(sessionLog()) {
		t.Fatalf("expected %d lines, got %d", len(sessionLog()), len(lines))
	}

	frame, ok := lines[0]["Frame"].(map[string]any)
	if !ok {
		t.Fatalf("expected Frame object in first line: %v", lines[0])
	}
	if frame["Opcode"] != "RTON" {
		t.Errorf("expected RTON, got %v", frame["Opcode"])
	}
	if _, ok := lines[3]["Outcome"]; !ok {
		t.Errorf("expected Outcome in fourth line: %v", lines[3])
	}
}

func TestExportToCSV(t *testing.T) {
	path := createTestLogFile(t, sessionLog())
	outPath := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != len(sessionLog())+1 {
		t.Fatalf("expected %d records, got %d", len(sessionLog())+1, len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("unexpected header: %v", records[0])
	}

	qcvs := records[3]
	if qcvs[5] != "frame" || qcvs[6] != "QCVS" || qcvs[8] != "84000801" {
		t.Errorf("unexpected QCVS row: %v", qcvs)
	}
	outcome := records[4]
	if outcome[5] != "outcome" || outcome[9] != "PROGRAMMING" {
		t.Errorf("unexpected outcome row: %v", outcome)
	}
	if records[5][5] != "error" || records[5][9] != "malformed frame" {
		t.Errorf("unexpected error row: %v", records[5])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, sessionLog())
	err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out.xml"))
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}
