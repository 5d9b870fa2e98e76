package commands

import (
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cbus-station/cancmd-go/pkg/log"
)

// RunExport writes every event of the capture file as JSON lines or CSV
// to output, or to stdout when output is empty.
func RunExport(path, format, output string) error {
	var write func(io.Writer) error
	switch format {
	case "jsonl":
		write = func(w io.Writer) error { return exportJSONL(path, w) }
	case "csv":
		write = func(w io.Writer) error { return exportCSV(path, w) }
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	if output == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportJSONL(path string, w io.Writer) error {
	enc := json.NewEncoder(w)
	return each(path, log.Filter{}, func(event log.Event) error {
		if err := enc.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return nil
	})
}

var csvHeader = []string{"timestamp", "connection_id", "direction", "layer", "category", "type", "opcode", "id", "data", "detail"}

func exportCSV(path string, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	err := each(path, log.Filter{}, func(event log.Event) error {
		return cw.Write(csvRow(event))
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(event log.Event) []string {
	eventType := "unknown"
	var id, data, detail string
	switch {
	case event.Frame != nil:
		eventType = "frame"
		id = "0x" + strconv.FormatUint(uint64(event.Frame.ID), 16)
		data = hex.EncodeToString(event.Frame.Data)
		detail = event.Frame.Kind
	case event.Outcome != nil:
		eventType = "outcome"
		detail = event.Outcome.Kind
		if event.Outcome.Error != "" {
			detail += ": " + event.Outcome.Error
		}
	case event.StateChange != nil:
		eventType = "state"
		detail = fmt.Sprintf("%s %s->%s", event.StateChange.Entity, event.StateChange.OldState, event.StateChange.NewState)
	case event.Error != nil:
		eventType = "error"
		detail = event.Error.Message
	}

	return []string{
		event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		event.ConnectionID,
		event.Direction.String(),
		event.Layer.String(),
		event.Category.String(),
		eventType,
		event.Opcode(),
		id,
		data,
		detail,
	}
}
