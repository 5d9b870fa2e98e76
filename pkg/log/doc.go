// Package log provides structured protocol capture for the command station.
//
// This package defines the Logger interface and Event types for capturing
// bus frames, dispatch outcomes and state changes. It is separate from
// operational logging (slog): protocol capture provides a complete
// machine-readable trace for debugging layouts and throttles.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/cancmd/station.clog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at three layers:
//   - Transport: GridConnect text on bridge connections (FrameEvent.Text)
//   - Bus: CAN frames in and out of the station (FrameEvent)
//   - Station: dispatch outcomes (OutcomeEvent) and state changes
//     (StateChangeEvent)
//
// Errors at any layer have a dedicated event type.
//
// # File Format
//
// Capture files are a stream of CBOR events with the .clog extension. The
// cbus-log CLI tool provides viewing, filtering, statistics and export.
package log
