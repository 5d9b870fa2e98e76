package track

import (
	"sync"

	"github.com/cbus-station/cancmd-go/pkg/programming"
)

// Well-known decoder CVs.
const (
	CVPrimaryAddress programming.CVAddress = 1
	CVVersion        programming.CVAddress = 7
	CVManufacturer   programming.CVAddress = 8
	CVConfig         programming.CVAddress = 29
)

// ManufacturerDIY is the NMRA manufacturer ID for public domain and DIY
// decoders.
const ManufacturerDIY byte = 13

// resetValue written to CV8 restores factory defaults.
const resetValue byte = 8

// registerCVs maps the eight physical registers onto CVs. Register 6 is the
// page register and has no CV.
var registerCVs = [8]programming.CVAddress{1, 2, 3, 4, 29, 0, 7, 8}

// Decoder is a simulated mobile decoder sitting on the programming track.
type Decoder struct {
	mu      sync.Mutex
	cvs     map[programming.CVAddress]byte
	page    byte
	present bool
}

// NewDecoder creates a decoder with factory defaults.
func NewDecoder() *Decoder {
	d := &Decoder{present: true}
	d.reset()
	return d
}

func (d *Decoder) reset() {
	d.cvs = map[programming.CVAddress]byte{
		CVPrimaryAddress: 3,
		CVVersion:        1,
		CVManufacturer:   ManufacturerDIY,
		CVConfig:         0x06,
	}
	d.page = 1
}

// SetPresent places or removes the decoder. A missing decoder never
// acknowledges.
func (d *Decoder) SetPresent(present bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.present = present
}

// CV returns the stored value of a CV.
func (d *Decoder) CV(cv programming.CVAddress) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cvs[cv]
}

// SetCV stores a CV value directly, bypassing the track.
func (d *Decoder) SetCV(cv programming.CVAddress, value byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cvs[cv] = value
}

// Page returns the paged-mode page register.
func (d *Decoder) Page() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.page
}

// apply executes one request and returns the value to report.
func (d *Decoder) apply(req programming.Request) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.present {
		return 0, programming.ErrNoAck
	}

	switch req.Mode {
	case programming.ModeDirectByte:
		return d.byteOp(req.Op, req.CV, req.Value)

	case programming.ModeDirectBit:
		if req.Op == programming.OpRead {
			return d.cvs[req.CV], nil
		}
		// Value is 0000DBBB: D the bit state, BBB the bit position.
		bit := req.Value & 0x07
		cur := d.cvs[req.CV]
		if req.Value&0x08 != 0 {
			cur |= 1 << bit
		} else {
			cur &^= 1 << bit
		}
		return d.byteOp(programming.OpWrite, req.CV, cur)

	case programming.ModePaged:
		// Select the page, then access the data register at the offset.
		idx := int(req.CV) - 1
		d.page = byte(idx/4 + 1)
		return d.byteOp(req.Op, req.CV, req.Value)

	case programming.ModeRegister:
		if req.CV < 1 || int(req.CV) > len(registerCVs) {
			return 0, programming.ErrNoAck
		}
		cv := registerCVs[req.CV-1]
		if cv == 0 {
			if req.Op == programming.OpWrite {
				d.page = req.Value
			}
			return d.page, nil
		}
		return d.byteOp(req.Op, cv, req.Value)

	case programming.ModeAddress:
		return d.byteOp(req.Op, CVPrimaryAddress, req.Value&0x7F)

	default:
		return 0, programming.ErrNoAck
	}
}

func (d *Decoder) byteOp(op programming.Op, cv programming.CVAddress, value byte) (byte, error) {
	if op == programming.OpRead {
		// Unimplemented CVs read as zero.
		return d.cvs[cv], nil
	}

	switch cv {
	case CVVersion:
		return 0, programming.ErrNoAck
	case CVManufacturer:
		if value != resetValue {
			return 0, programming.ErrNoAck
		}
		d.reset()
		return value, nil
	}
	d.cvs[cv] = value
	return value, nil
}
