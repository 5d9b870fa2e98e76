package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456789, time.UTC)
	processing := 350 * time.Microsecond
	code := 4

	tests := []struct {
		name  string
		event Event
	}{
		{
			name: "frame",
			event: Event{
				Timestamp:    ts,
				ConnectionID: "abc12345-def6-7890-abcd-ef1234567890",
				Direction:    DirectionIn,
				Layer:        LayerBus,
				Category:     CategoryFrame,
				RemoteAddr:   "192.168.1.100:5550",
				Frame:        NewFrameEvent(cbus.NewFrame(0x10, cbus.PriorityNormal, cbus.OpRTON)),
			},
		},
		{
			name: "outcome",
			event: Event{
				Timestamp: ts,
				Direction: DirectionIn,
				Layer:     LayerStation,
				Category:  CategoryOutcome,
				Outcome: &OutcomeEvent{
					Kind:           "REJECTED",
					Opcode:         "QCVS",
					Handle:         3,
					Mode:           "PAGED",
					CV:             29,
					Error:          "programming mode conflict",
					Reply:          NewFrameEvent(cbus.NewFrame(0x72, cbus.PriorityAboveNormal, cbus.OpSSTAT, 3, 4)),
					ProcessingTime: &processing,
				},
			},
		},
		{
			name: "state",
			event: Event{
				Timestamp: ts,
				Layer:     LayerStation,
				Category:  CategoryState,
				StateChange: &StateChangeEvent{
					Entity:   StateEntityProgramming,
					OldState: "PAGED",
					NewState: "IDLE",
					Reason:   "ABORTED_POWER_OFF",
				},
			},
		},
		{
			name: "error",
			event: Event{
				Timestamp: ts,
				Layer:     LayerTransport,
				Category:  CategoryError,
				Error: &ErrorEventData{
					Layer:   LayerTransport,
					Message: "bad frame",
					Code:    &code,
					Context: "decode",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeEvent(tt.event)
			if err != nil {
				t.Fatalf("EncodeEvent failed: %v", err)
			}
			got, err := DecodeEvent(data)
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}

			if !got.Timestamp.Equal(tt.event.Timestamp) {
				t.Errorf("Timestamp = %v, want %v", got.Timestamp, tt.event.Timestamp)
			}
			if got.ConnectionID != tt.event.ConnectionID || got.Category != tt.event.Category || got.Layer != tt.event.Layer {
				t.Errorf("header = %+v, want %+v", got, tt.event)
			}

			switch {
			case tt.event.Frame != nil:
				if got.Frame == nil || got.Frame.Frame() != tt.event.Frame.Frame() {
					t.Errorf("Frame = %+v, want %+v", got.Frame, tt.event.Frame)
				}
			case tt.event.Outcome != nil:
				o := got.Outcome
				if o == nil || o.Kind != "REJECTED" || o.CV != 29 || o.Reply == nil || o.Reply.Opcode != "SSTAT" {
					t.Errorf("Outcome = %+v", o)
				}
				if o != nil && (o.ProcessingTime == nil || *o.ProcessingTime != processing) {
					t.Errorf("ProcessingTime = %v", o.ProcessingTime)
				}
			case tt.event.StateChange != nil:
				if got.StateChange == nil || *got.StateChange != *tt.event.StateChange {
					t.Errorf("StateChange = %+v", got.StateChange)
				}
			case tt.event.Error != nil:
				if got.Error == nil || got.Error.Code == nil || *got.Error.Code != code {
					t.Errorf("Error = %+v", got.Error)
				}
			}
		})
	}
}

func TestEncoderDecoderStream(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for i := 0; i < 3; i++ {
		if err := enc.Encode(Event{Category: CategoryFrame, Frame: &FrameEvent{ID: uint32(i)}}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	dec := NewDecoder(&buf)
	for i := 0; i < 3; i++ {
		var e Event
		if err := dec.Decode(&e); err != nil {
			t.Fatalf("Decode %d: %v", i, err)
		}
		if e.Frame == nil || e.Frame.ID != uint32(i) {
			t.Errorf("event %d = %+v", i, e.Frame)
		}
	}
}

func TestDecodeEventGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xFF, 0x00}); err == nil {
		t.Error("expected error for garbage input")
	}
}
