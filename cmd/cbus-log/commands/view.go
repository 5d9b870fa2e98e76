// Package commands implements the cbus-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cbus-station/cancmd-go/pkg/gridconnect"
	"github.com/cbus-station/cancmd-go/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	conn := "bus"
	if event.ConnectionID != "" {
		conn = shortenConnID(event.ConnectionID)
	}

	fmt.Fprintf(w, "%s [%s] %-3s %s %s\n", ts, conn, event.Direction, event.Layer, eventLabel(event))

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame, "  ")
	case event.Outcome != nil:
		formatOutcomeDetails(w, event.Outcome)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// eventLabel names the payload carried by an event.
func eventLabel(event log.Event) string {
	switch {
	case event.Frame != nil:
		if event.Frame.Opcode != "" {
			return "Frame " + event.Frame.Opcode
		}
		return "Frame"
	case event.Outcome != nil:
		return "Outcome " + event.Outcome.Kind
	case event.StateChange != nil:
		return "State"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatFrameDetails(w io.Writer, fe *log.FrameEvent, indent string) {
	if fe.Extended {
		fmt.Fprintf(w, "%sID: 0x%08X (extended)\n", indent, fe.ID)
	} else {
		fmt.Fprintf(w, "%sID: 0x%03X  CANID: %d\n", indent, fe.ID, fe.ID&0x7F)
	}
	if len(fe.Data) > 0 {
		fmt.Fprintf(w, "%sData: %s\n", indent, hex.EncodeToString(fe.Data))
	}
	if fe.Kind != "" {
		fmt.Fprintf(w, "%sKind: %s\n", indent, fe.Kind)
	}
	text := fe.Text
	if text == "" {
		text = gridconnect.Encode(fe.Frame())
	}
	fmt.Fprintf(w, "%sText: %s\n", indent, text)
}

func formatOutcomeDetails(w io.Writer, o *log.OutcomeEvent) {
	if o.Opcode != "" {
		fmt.Fprintf(w, "  Command: %s\n", o.Opcode)
	}
	if o.Handle != 0 {
		fmt.Fprintf(w, "  Handle: %d\n", o.Handle)
	}
	if o.Mode != "" {
		fmt.Fprintf(w, "  Mode: %s  CV: %d  Value: %d\n", o.Mode, o.CV, o.Value)
	}
	if o.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", o.Error)
	}
	if o.Reply != nil {
		fmt.Fprintf(w, "  Reply: %s\n", o.Reply.Opcode)
		formatFrameDetails(w, o.Reply, "    ")
	}
	if o.ProcessingTime != nil {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(*o.ProcessingTime))
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity)
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseLayerFlag parses a layer name (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "bus":
		return log.LayerBus, nil
	case "station":
		return log.LayerStation, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport, bus or station)", s)
	}
}

// ParseDirectionFlag parses a direction name (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category name (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "frame":
		return log.CategoryFrame, nil
	case "outcome":
		return log.CategoryOutcome, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be frame, outcome, state or error)", s)
	}
}

// ParseEntityFlag parses a state entity name (case-insensitive).
func ParseEntityFlag(s string) (log.StateEntity, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case "connection":
		return log.StateEntityConnection, nil
	case "programming":
		return log.StateEntityProgramming, nil
	case "power":
		return log.StateEntityPower, nil
	case "loco_session", "loco":
		return log.StateEntityLocoSession, nil
	default:
		return 0, fmt.Errorf("invalid entity: %s (must be connection, programming, power or loco)", s)
	}
}

// RunView prints the events matching filter to output.
func RunView(path string, filter log.Filter, output io.Writer) error {
	filter.Opcode = strings.ToUpper(filter.Opcode)
	return each(path, filter, func(event log.Event) error {
		formatEvent(output, event)
		return nil
	})
}
