package log

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
)

type captureLogger struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureLogger) Log(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func TestNoopLoggerIsZeroValue(t *testing.T) {
	var logger NoopLogger
	logger.Log(Event{})
	logger.Log(Event{Frame: &FrameEvent{}, Outcome: &OutcomeEvent{}})
}

func TestLoggerFuncAndOrNoop(t *testing.T) {
	var got []Event
	var l Logger = LoggerFunc(func(e Event) { got = append(got, e) })
	OrNoop(l).Log(Event{Category: CategoryError})
	require.Len(t, got, 1)
	assert.Equal(t, CategoryError, got[0].Category)

	assert.Equal(t, NoopLogger{}, OrNoop(nil))
	OrNoop(nil).Log(Event{})
}

func TestMultiLogger(t *testing.T) {
	a, b := &captureLogger{}, &captureLogger{}
	m := NewMultiLogger(a, nil, b)
	assert.Len(t, m, 2)

	m.Log(Event{Category: CategoryState})
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	adapter := NewSlogAdapter(logger)

	adapter.Log(Event{
		Direction: DirectionIn,
		Layer:     LayerBus,
		Category:  CategoryFrame,
		Frame:     NewFrameEvent(cbus.NewFrame(0x10, cbus.PriorityNormal, cbus.OpDSPD, 1, 0x85)),
	})
	adapter.Log(Event{
		Layer:    LayerStation,
		Category: CategoryOutcome,
		Outcome:  &OutcomeEvent{Kind: "PROGRAMMING_STARTED", Opcode: "WCVS", Mode: "PAGED", CV: 3},
	})

	out := buf.String()
	assert.Contains(t, out, `"opcode":"DSPD"`)
	assert.Contains(t, out, `"data":"47 01 85"`)
	assert.Contains(t, out, `"outcome":"PROGRAMMING_STARTED"`)
	assert.Contains(t, out, `"mode":"PAGED"`)
	assert.Equal(t, 2, strings.Count(out, `"msg":"cbus"`))
}

func TestSlogAdapterBelowDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	NewSlogAdapter(logger).Log(Event{Category: CategoryError, Error: &ErrorEventData{Message: "x"}})
	assert.Empty(t, buf.String())
}

func TestFileLoggerAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "station.clog")
	fl, err := NewFileLogger(path)
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	frames := []cbus.Frame{
		cbus.NewFrame(0x10, cbus.PriorityNormal, cbus.OpRTON),
		cbus.NewFrame(0x72, cbus.PriorityEmergency, cbus.OpTON),
		cbus.NewFrame(0x10, cbus.PriorityNormal, cbus.OpRSTAT),
	}
	for i, f := range frames {
		dir := DirectionIn
		if i == 1 {
			dir = DirectionOut
		}
		fl.Log(Event{
			Timestamp:    base.Add(time.Duration(i) * time.Second),
			ConnectionID: "conn-1",
			Direction:    dir,
			Layer:        LayerBus,
			Category:     CategoryFrame,
			Frame:        NewFrameEvent(f),
		})
	}
	power := StateEntityPower
	fl.Log(Event{
		Timestamp:   base.Add(5 * time.Second),
		Layer:       LayerStation,
		Category:    CategoryState,
		StateChange: &StateChangeEvent{Entity: power, OldState: "OFF", NewState: "ON"},
	})

	written, failed := fl.Stats()
	assert.Equal(t, 4, written)
	assert.Zero(t, failed)
	require.NoError(t, fl.Close())
	require.NoError(t, fl.Close(), "close is idempotent")
	fl.Log(Event{}) // ignored after close

	read := func(f Filter) []Event {
		r, err := NewFilteredReader(path, f)
		require.NoError(t, err)
		defer r.Close()
		var out []Event
		for {
			e, err := r.Next()
			if err != nil {
				break
			}
			out = append(out, e)
		}
		return out
	}

	assert.Len(t, read(Filter{}), 4)

	out := DirectionOut
	got := read(Filter{Direction: &out})
	require.Len(t, got, 1)
	assert.Equal(t, "TON", got[0].Frame.Opcode)

	assert.Len(t, read(Filter{Opcode: "RSTAT"}), 1)
	assert.Len(t, read(Filter{Entity: &power}), 1)
	assert.Len(t, read(Filter{ConnectionID: "conn-1"}), 3)

	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)
	assert.Len(t, read(Filter{TimeStart: &start, TimeEnd: &end}), 2)
}

func TestNewReaderMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.clog"))
	assert.Error(t, err)
}

func TestReaderEventsAndFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flush.clog")
	fl, err := NewFileLogger(path)
	require.NoError(t, err)
	defer fl.Close()

	for i := range 3 {
		fl.Log(Event{Timestamp: time.Unix(int64(i), 0).UTC(), Category: CategoryError, Error: &ErrorEventData{Message: "e"}})
	}
	require.NoError(t, fl.Flush())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	n := 0
	for e, err := range r.Events() {
		require.NoError(t, err)
		assert.Equal(t, "e", e.Error.Message)
		n++
	}
	assert.Equal(t, 3, n)
}

func TestFilterMatchOpcode(t *testing.T) {
	frame := Event{Frame: &FrameEvent{Opcode: "QCVS"}}
	outcome := Event{Outcome: &OutcomeEvent{Kind: "PROGRAMMING", Opcode: "QCVS"}}
	state := Event{StateChange: &StateChangeEvent{Entity: StateEntityPower}}

	f := Filter{Opcode: "QCVS"}
	assert.True(t, f.Match(frame))
	assert.True(t, f.Match(outcome))
	assert.False(t, f.Match(state))
	assert.True(t, Filter{}.Match(state))
}
