package log

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger.
// Useful for development when you want to see bus traffic in the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote", event.RemoteAddr))
	}

	// Add type-specific attributes
	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.String("id", fmt.Sprintf("%X", event.Frame.ID)),
			slog.String("data", fmt.Sprintf("% X", event.Frame.Data)),
		)
		if event.Frame.Opcode != "" {
			attrs = append(attrs, slog.String("opcode", event.Frame.Opcode))
		}
		if event.Frame.Kind != "" {
			attrs = append(attrs, slog.String("kind", event.Frame.Kind))
		}
		if event.Frame.Text != "" {
			attrs = append(attrs, slog.String("text", event.Frame.Text))
		}
	case event.Outcome != nil:
		attrs = append(attrs, slog.String("outcome", event.Outcome.Kind))
		if event.Outcome.Opcode != "" {
			attrs = append(attrs, slog.String("opcode", event.Outcome.Opcode))
		}
		if event.Outcome.Mode != "" {
			attrs = append(attrs,
				slog.String("mode", event.Outcome.Mode),
				slog.Uint64("cv", uint64(event.Outcome.CV)),
			)
		}
		if event.Outcome.Error != "" {
			attrs = append(attrs, slog.String("error", event.Outcome.Error))
		}
		if event.Outcome.Reply != nil {
			attrs = append(attrs, slog.String("reply", event.Outcome.Reply.Opcode))
		}
		if event.Outcome.ProcessingTime != nil {
			attrs = append(attrs, slog.Duration("processing_time", *event.Outcome.ProcessingTime))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "cbus", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
