package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/cbus-station/cancmd-go/pkg/log"
)

func TestStatsCounts(t *testing.T) {
	stats := newStats()
	for _, e := range sessionLog() {
		stats.add(e)
	}

	if stats.TotalEvents != 5 {
		t.Errorf("expected 5 events, got %d", stats.TotalEvents)
	}
	if stats.EventsByLayer[log.LayerBus] != 2 {
		t.Errorf("expected 2 bus events, got %d", stats.EventsByLayer[log.LayerBus])
	}
	if stats.Opcodes["QCVS"] != 1 || stats.Opcodes["RTON"] != 1 {
		t.Errorf("unexpected opcode counts: %v", stats.Opcodes)
	}
	if stats.Outcomes["PROGRAMMING"] != 1 {
		t.Errorf("unexpected outcome counts: %v", stats.Outcomes)
	}
	if stats.StateChanges[log.StateEntityPower] != 1 {
		t.Errorf("expected one power change, got %v", stats.StateChanges)
	}
	if stats.Errors != 1 {
		t.Errorf("expected 1 error, got %d", stats.Errors)
	}
	if len(stats.Connections) != 1 {
		t.Errorf("expected 1 connection, got %d", len(stats.Connections))
	}
	if got := stats.TimeRange.End.Sub(stats.TimeRange.Start); got != 3*time.Second {
		t.Errorf("expected 3s range, got %s", got)
	}
}

func TestStatsProcessingPercentile(t *testing.T) {
	stats := newStats()
	if stats.ProcessingPercentile(50) != 0 {
		t.Error("expected zero without outcomes")
	}
	for _, ms := range []int{5, 1, 3, 2, 4} {
		d := time.Duration(ms) * time.Millisecond
		stats.add(log.Event{Category: log.CategoryOutcome, Outcome: &log.OutcomeEvent{Kind: "POWER", ProcessingTime: &d}})
	}
	if got := stats.ProcessingPercentile(50); got != 3*time.Millisecond {
		t.Errorf("p50 = %s, want 3ms", got)
	}
	if got := stats.ProcessingPercentile(100); got != 5*time.Millisecond {
		t.Errorf("p100 = %s, want 5ms", got)
	}
}

func TestRunStatsOutput(t *testing.T) {
	path := createTestLogFile(t, sessionLog())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Events: 5",
		"BUS:",
		"QCVS:",
		"PROGRAMMING:",
		"POWER:",
		"Connections: 1",
		"from 192.168.1.20:51234",
		"Errors: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}
