package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
	"github.com/cbus-station/cancmd-go/pkg/log"
)

func TestFormatFrameEvent(t *testing.T) {
	event := frameEvent(testTime, log.DirectionIn, cbus.NewFrame(1, cbus.PriorityLow, cbus.OpQCVS, 0, 0, 8, 1))

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{
		"2026-03-14T09:30:00.250000Z",
		"[bus]",
		"IN",
		"BUS",
		"Frame QCVS",
		"CANID: 1",
		"Data: 84000801",
		"Text: :S",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestFormatOutcomeEvent(t *testing.T) {
	pt := 2 * time.Millisecond
	reply := log.NewFrameEvent(cbus.NewFrame(0x72, cbus.PriorityLow, cbus.OpSSTAT, 0, 3))
	event := log.Event{
		Timestamp: testTime,
		Direction: log.DirectionOut,
		Layer:     log.LayerStation,
		Category:  log.CategoryOutcome,
		Outcome: &log.OutcomeEvent{
			Kind:           "PROGRAMMING",
			Opcode:         "WCVS",
			Mode:           "PAGED",
			CV:             29,
			Value:          6,
			Error:          "programming track power is off",
			Reply:          reply,
			ProcessingTime: &pt,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{
		"Outcome PROGRAMMING",
		"Command: WCVS",
		"Mode: PAGED  CV: 29  Value: 6",
		"Error: programming track power is off",
		"Reply: SSTAT",
		"Duration: 2.000ms",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestFormatStateChangeEvent(t *testing.T) {
	event := log.Event{
		Timestamp:    testTime,
		ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			NewState: "CONNECTED",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "[abc12345]") {
		t.Errorf("expected shortened connection ID, got: %s", output)
	}
	if !strings.Contains(output, "Entity: CONNECTION") {
		t.Errorf("expected entity, got: %s", output)
	}
	if !strings.Contains(output, "  -> CONNECTED") {
		t.Errorf("expected new state, got: %s", output)
	}
}

func TestRunViewFilters(t *testing.T) {
	path := createTestLogFile(t, sessionLog())

	cat := log.CategoryFrame
	var buf bytes.Buffer
	if err := RunView(path, log.Filter{Category: &cat}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if got := strings.Count(buf.String(), "Frame "); got != 2 {
		t.Errorf("expected 2 frames, got %d:\n%s", got, buf.String())
	}

	buf.Reset()
	if err := RunView(path, log.Filter{Opcode: "qcvs"}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Frame QCVS") || !strings.Contains(output, "Outcome PROGRAMMING") {
		t.Errorf("expected QCVS frame and outcome, got:\n%s", output)
	}
	if strings.Contains(output, "RTON") {
		t.Errorf("unexpected RTON frame in:\n%s", output)
	}
}

func TestRunViewMissingFile(t *testing.T) {
	err := RunView(filepath.Join(t.TempDir(), "missing.clog"), log.Filter{}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseLayerFlag(t *testing.T) {
	tests := []struct {
		input string
		want  log.Layer
		ok    bool
	}{
		{"transport", log.LayerTransport, true},
		{"BUS", log.LayerBus, true},
		{"Station", log.LayerStation, true},
		{"wire", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseLayerFlag(tt.input)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ParseLayerFlag(%q) = %v, %v; want %v", tt.input, got, err, tt.want)
		}
		if !tt.ok && err == nil {
			t.Errorf("ParseLayerFlag(%q) expected error", tt.input)
		}
	}
}

func TestParseCategoryFlag(t *testing.T) {
	for input, want := range map[string]log.Category{
		"frame":   log.CategoryFrame,
		"OUTCOME": log.CategoryOutcome,
		"state":   log.CategoryState,
		"error":   log.CategoryError,
	} {
		got, err := ParseCategoryFlag(input)
		if err != nil || got != want {
			t.Errorf("ParseCategoryFlag(%q) = %v, %v; want %v", input, got, err, want)
		}
	}
	if _, err := ParseCategoryFlag("message"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestParseEntityFlag(t *testing.T) {
	for input, want := range map[string]log.StateEntity{
		"connection":   log.StateEntityConnection,
		"programming":  log.StateEntityProgramming,
		"power":        log.StateEntityPower,
		"loco":         log.StateEntityLocoSession,
		"loco-session": log.StateEntityLocoSession,
	} {
		got, err := ParseEntityFlag(input)
		if err != nil || got != want {
			t.Errorf("ParseEntityFlag(%q) = %v, %v; want %v", input, got, err, want)
		}
	}
	if _, err := ParseEntityFlag("zone"); err == nil {
		t.Error("expected error for unknown entity")
	}
}
