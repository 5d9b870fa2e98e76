package gridconnect

import (
	"errors"
	"testing"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		frame cbus.Frame
		want  string
	}{
		{
			name:  "RTON from CAN ID 0x10",
			frame: cbus.NewFrame(0x10, cbus.PriorityNormal, cbus.OpRTON),
			want:  ":SA200N09;",
		},
		{
			name:  "QCVS",
			frame: cbus.NewFrame(0x7F, cbus.PriorityLow, cbus.OpQCVS, 1, 0, 29, 0),
			want:  ":SBFE0N8401001D00;",
		},
		{
			name:  "enumeration request",
			frame: cbus.Frame{ID: uint32(cbus.PriorityLow)<<7 | 0x01, RTR: true},
			want:  ":SB020R;",
		},
		{
			name:  "extended",
			frame: cbus.NewExtendedFrame(cbus.BootControlID, 0, 0, 0, 0, 0x0D, 0x02, 0, 0),
			want:  ":X00000004N000000000D020000;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.frame)
			if got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
			back, err := Decode(got)
			if err != nil {
				t.Fatalf("Decode(%q): %v", got, err)
			}
			if back != tt.frame {
				t.Errorf("Decode(Encode()) = %s, want %s", back, tt.frame)
			}
		})
	}
}

func TestDecodeVariants(t *testing.T) {
	tests := []struct {
		in   string
		id   uint32
		data []byte
	}{
		{"SA200N09", 0x510, []byte{0x09}},
		{" :sa200n09; ", 0x510, []byte{0x09}},
		{":S510N09;", 0x510, []byte{0x09}},
		{":S0N;", 0, []byte{}},
	}
	for _, tt := range tests {
		f, err := Decode(tt.in)
		if err != nil {
			t.Errorf("Decode(%q): %v", tt.in, err)
			continue
		}
		if f.ID != tt.id || string(f.Payload()) != string(tt.data) {
			t.Errorf("Decode(%q) = %s", tt.in, f)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		":;",
		":Q1234N00;",
		":SN00;",
		":SZZZZN00;",
		":S800N00;",
		":S123456N00;",
		":X200000000N;",
		":X123456789N;",
		":SA200N0;",
		":SA200N000102030405060708;",
		":SA200;",
	} {
		if _, err := Decode(in); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q) error = %v, want ErrMalformed", in, err)
		}
	}
}
