package gridconnect

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
)

// Frame delimiters.
const (
	StartChar = ':'
	EndChar   = ';'

	// MaxFrameLen is the longest valid encoded frame (extended, 8 data bytes).
	MaxFrameLen = 1 + 1 + 8 + 1 + 16 + 1
)

// ErrMalformed is returned for text that is not a GridConnect frame.
var ErrMalformed = errors.New("gridconnect: malformed frame")

// Encode renders f as GridConnect text.
func Encode(f cbus.Frame) string {
	var b strings.Builder
	b.Grow(MaxFrameLen)
	b.WriteByte(StartChar)
	if f.Extended {
		fmt.Fprintf(&b, "X%08X", f.ID&cbus.MaxExtendedID)
	} else {
		fmt.Fprintf(&b, "S%04X", (f.ID&cbus.MaxStandardID)<<5)
	}
	if f.RTR {
		b.WriteByte('R')
	} else {
		b.WriteByte('N')
	}
	b.WriteString(strings.ToUpper(hex.EncodeToString(f.Payload())))
	b.WriteByte(EndChar)
	return b.String()
}

// Decode parses one GridConnect frame, with or without delimiters.
// Standard identifiers of three hex digits or fewer are taken as plain
// identifiers; four digits use the register layout.
func Decode(s string) (cbus.Frame, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, string(StartChar))
	s = strings.TrimSuffix(s, string(EndChar))
	if len(s) < 2 {
		return cbus.Frame{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	var f cbus.Frame
	switch s[0] {
	case 'S', 's':
	case 'X', 'x':
		f.Extended = true
	default:
		return cbus.Frame{}, fmt.Errorf("%w: frame type %q", ErrMalformed, s[0])
	}

	sep := strings.IndexAny(s, "NnRr")
	if sep < 2 {
		return cbus.Frame{}, fmt.Errorf("%w: missing N or R in %q", ErrMalformed, s)
	}
	f.RTR = s[sep] == 'R' || s[sep] == 'r'

	idText := s[1:sep]
	id, err := strconv.ParseUint(idText, 16, 32)
	if err != nil {
		return cbus.Frame{}, fmt.Errorf("%w: identifier %q", ErrMalformed, idText)
	}
	switch {
	case f.Extended:
		if len(idText) > 8 || id > cbus.MaxExtendedID {
			return cbus.Frame{}, fmt.Errorf("%w: extended identifier %q", ErrMalformed, idText)
		}
		f.ID = uint32(id)
	case len(idText) == 4:
		f.ID = uint32(id >> 5)
	case len(idText) < 4:
		f.ID = uint32(id)
	default:
		return cbus.Frame{}, fmt.Errorf("%w: standard identifier %q", ErrMalformed, idText)
	}
	if f.ID > cbus.MaxStandardID && !f.Extended {
		return cbus.Frame{}, fmt.Errorf("%w: identifier %q", ErrMalformed, idText)
	}

	data, err := hex.DecodeString(s[sep+1:])
	if err != nil || len(data) > cbus.MaxDataLen {
		return cbus.Frame{}, fmt.Errorf("%w: data %q", ErrMalformed, s[sep+1:])
	}
	f.Len = uint8(copy(f.Data[:], data))
	return f, nil
}
