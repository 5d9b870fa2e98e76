package gridconnect

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
	"github.com/cbus-station/cancmd-go/pkg/log"
)

// ErrFrameTooLong indicates text between delimiters longer than any valid
// frame.
var ErrFrameTooLong = errors.New("gridconnect: frame too long")

// Writer writes GridConnect frames to an underlying writer.
type Writer struct {
	w  io.Writer
	mu sync.Mutex

	// Logging support (optional)
	logger log.Logger
	connID string
}

// NewWriter creates a frame writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// SetLogger configures logging for this writer.
// Pass nil to disable logging.
func (fw *Writer) SetLogger(logger log.Logger, connID string) {
	fw.logger = logger
	fw.connID = connID
}

// WriteFrame encodes and writes one frame.
// Thread-safe: can be called from multiple goroutines.
func (fw *Writer) WriteFrame(f cbus.Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	text := Encode(f)

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, err := io.WriteString(fw.w, text); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	if fw.logger != nil {
		fw.logger.Log(makeFrameEvent(fw.connID, f, text, log.DirectionOut))
	}
	return nil
}

// Reader reads GridConnect frames from an underlying reader. Bytes outside
// ':' ... ';' are skipped, so CR/LF separated streams work unchanged.
type Reader struct {
	r *bufio.Reader

	// Logging support (optional)
	logger log.Logger
	connID string
}

// NewReader creates a frame reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// SetLogger configures logging for this reader.
// Pass nil to disable logging.
func (fr *Reader) SetLogger(logger log.Logger, connID string) {
	fr.logger = logger
	fr.connID = connID
}

// ReadFrame returns the next frame. Malformed frames return an error
// wrapping ErrMalformed; the stream stays usable and the next call
// continues after the bad frame.
func (fr *Reader) ReadFrame() (cbus.Frame, error) {
	// Skip to the start delimiter.
	for {
		c, err := fr.r.ReadByte()
		if err != nil {
			return cbus.Frame{}, err
		}
		if c == StartChar {
			break
		}
	}

	buf := make([]byte, 0, MaxFrameLen)
	buf = append(buf, StartChar)
	for {
		c, err := fr.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return cbus.Frame{}, io.ErrUnexpectedEOF
			}
			return cbus.Frame{}, err
		}
		if c == StartChar {
			// A new frame started before the old one ended.
			buf = buf[:1]
			continue
		}
		buf = append(buf, c)
		if c == EndChar {
			break
		}
		if len(buf) > MaxFrameLen {
			return cbus.Frame{}, fr.reject(string(buf), ErrFrameTooLong)
		}
	}

	text := string(buf)
	f, err := Decode(text)
	if err != nil {
		return cbus.Frame{}, fr.reject(text, err)
	}

	if fr.logger != nil {
		fr.logger.Log(makeFrameEvent(fr.connID, f, text, log.DirectionIn))
	}
	return f, nil
}

func (fr *Reader) reject(text string, err error) error {
	if fr.logger != nil {
		fr.logger.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: fr.connID,
			Direction:    log.DirectionIn,
			Layer:        log.LayerTransport,
			Category:     log.CategoryError,
			Error: &log.ErrorEventData{
				Layer:   log.LayerTransport,
				Message: err.Error(),
				Context: text,
			},
		})
	}
	return err
}

// makeFrameEvent creates a log event for a frame.
func makeFrameEvent(connID string, f cbus.Frame, text string, direction log.Direction) log.Event {
	fe := log.NewFrameEvent(f)
	fe.Text = text
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    direction,
		Layer:        log.LayerTransport,
		Category:     log.CategoryFrame,
		Frame:        fe,
	}
}
