package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
	"github.com/cbus-station/cancmd-go/pkg/log"
)

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 250000000, time.UTC)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.clog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func frameEvent(ts time.Time, dir log.Direction, f cbus.Frame) log.Event {
	return log.Event{
		Timestamp: ts,
		Direction: dir,
		Layer:     log.LayerBus,
		Category:  log.CategoryFrame,
		Frame:     log.NewFrameEvent(f),
	}
}

// sessionLog is a short programming exchange.
func sessionLog() []log.Event {
	pt := 350 * time.Microsecond
	qcvs := cbus.NewFrame(1, cbus.PriorityLow, cbus.OpQCVS, 0, 0, 8, 1)
	return []log.Event{
		frameEvent(testTime, log.DirectionIn, cbus.NewFrame(1, cbus.PriorityLow, cbus.OpRTON)),
		{
			Timestamp: testTime.Add(time.Millisecond),
			Layer:     log.LayerStation,
			Category:  log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity: log.StateEntityPower, OldState: "OFF", NewState: "ON", Reason: "POWER_CHANGE",
			},
		},
		frameEvent(testTime.Add(2*time.Second), log.DirectionIn, qcvs),
		{
			Timestamp: testTime.Add(2*time.Second + time.Millisecond),
			Direction: log.DirectionOut,
			Layer:     log.LayerStation,
			Category:  log.CategoryOutcome,
			Outcome: &log.OutcomeEvent{
				Kind:           "PROGRAMMING",
				Opcode:         "QCVS",
				Mode:           "DIRECT_BYTE",
				CV:             8,
				ProcessingTime: &pt,
			},
		},
		{
			Timestamp:    testTime.Add(3 * time.Second),
			ConnectionID: "5f2b9c1e-0d4a-4e55-9a11-7c3e2b8d6f01",
			RemoteAddr:   "192.168.1.20:51234",
			Layer:        log.LayerTransport,
			Category:     log.CategoryError,
			Error: &log.ErrorEventData{
				Layer:   log.LayerTransport,
				Message: "malformed frame",
				Context: ":SZZ;",
			},
		},
	}
}
