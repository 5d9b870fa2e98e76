package station

import (
	"errors"
	"time"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
	"github.com/cbus-station/cancmd-go/pkg/dispatch"
	"github.com/cbus-station/cancmd-go/pkg/log"
	"github.com/cbus-station/cancmd-go/pkg/programming"
)

func (s *Station) logFrame(f cbus.Frame) {
	if s.protocolLogger == nil {
		return
	}
	s.protocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerBus,
		Category:  log.CategoryFrame,
		Frame:     log.NewFrameEvent(f),
	})
}

func (s *Station) logOutcome(o dispatch.Outcome, reply *cbus.Frame, elapsed time.Duration) {
	s.debugLog("station: outcome", "kind", o.Kind, "opcode", o.Opcode, "handle", o.Handle, "error", o.Err)
	if s.protocolLogger == nil {
		return
	}

	oe := &log.OutcomeEvent{
		Kind:           o.Kind.String(),
		Handle:         o.Handle,
		CV:             uint16(o.CV),
		Value:          o.Value,
		ProcessingTime: &elapsed,
	}
	if o.Opcode != 0 {
		oe.Opcode = o.Opcode.String()
	}
	if o.Mode != programming.ModeIdle {
		oe.Mode = o.Mode.String()
	}
	if o.Err != nil {
		oe.Error = o.Err.Error()
	}
	if reply != nil {
		oe.Reply = log.NewFrameEvent(*reply)
	}

	s.protocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionOut,
		Layer:     log.LayerStation,
		Category:  log.CategoryOutcome,
		Outcome:   oe,
	})
}

func (s *Station) logState(entity log.StateEntity, oldState, newState, reason string) {
	s.debugLog("station: state change", "entity", entity, "old", oldState, "new", newState, "reason", reason)
	if s.protocolLogger == nil {
		return
	}
	s.protocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerStation,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   entity,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

func (s *Station) logError(op string, err error) {
	if s.logger != nil {
		s.logger.Warn("station: "+op+" failed", "error", err)
	}
	if s.protocolLogger == nil {
		return
	}
	data := &log.ErrorEventData{
		Layer:   log.LayerStation,
		Message: err.Error(),
		Context: op,
	}
	var cmdErr *cbus.CommandError
	if errors.As(err, &cmdErr) {
		code := int(cmdErr.Code)
		data.Code = &code
	}
	s.protocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerStation,
		Category:  log.CategoryError,
		Error:     data,
	})
}
