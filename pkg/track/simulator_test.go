package track

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbus-station/cancmd-go/pkg/programming"
)

func TestDecoderModes(t *testing.T) {
	tests := []struct {
		name  string
		req   programming.Request
		want  byte
		check func(t *testing.T, d *Decoder)
	}{
		{
			name: "direct byte write",
			req:  programming.Request{Op: programming.OpWrite, Mode: programming.ModeDirectByte, CV: 3, Value: 20},
			want: 20,
			check: func(t *testing.T, d *Decoder) {
				assert.Equal(t, byte(20), d.CV(3))
			},
		},
		{
			name: "direct byte read",
			req:  programming.Request{Op: programming.OpRead, Mode: programming.ModeDirectByte, CV: 29},
			want: 0x06,
		},
		{
			name: "direct bit set",
			req:  programming.Request{Op: programming.OpWrite, Mode: programming.ModeDirectBit, CV: 29, Value: 0x08 | 5},
			want: 0x26,
			check: func(t *testing.T, d *Decoder) {
				assert.Equal(t, byte(0x26), d.CV(29))
			},
		},
		{
			name: "direct bit clear",
			req:  programming.Request{Op: programming.OpWrite, Mode: programming.ModeDirectBit, CV: 29, Value: 1},
			want: 0x04,
		},
		{
			name: "paged selects page",
			req:  programming.Request{Op: programming.OpWrite, Mode: programming.ModePaged, CV: 10, Value: 7},
			want: 7,
			check: func(t *testing.T, d *Decoder) {
				assert.Equal(t, byte(3), d.Page())
				assert.Equal(t, byte(7), d.CV(10))
			},
		},
		{
			name: "register 5 is CV29",
			req:  programming.Request{Op: programming.OpRead, Mode: programming.ModeRegister, CV: 5},
			want: 0x06,
		},
		{
			name: "register 6 is page register",
			req:  programming.Request{Op: programming.OpWrite, Mode: programming.ModeRegister, CV: 6, Value: 4},
			want: 4,
			check: func(t *testing.T, d *Decoder) {
				assert.Equal(t, byte(4), d.Page())
			},
		},
		{
			name: "address mode masks to 7 bits",
			req:  programming.Request{Op: programming.OpWrite, Mode: programming.ModeAddress, CV: 1, Value: 0xFF},
			want: 0x7F,
			check: func(t *testing.T, d *Decoder) {
				assert.Equal(t, byte(0x7F), d.CV(CVPrimaryAddress))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder()
			got, err := d.apply(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.check != nil {
				tt.check(t, d)
			}
		})
	}
}

func TestDecoderReadOnlyAndReset(t *testing.T) {
	d := NewDecoder()
	d.SetCV(3, 50)

	_, err := d.apply(programming.Request{Op: programming.OpWrite, Mode: programming.ModeDirectByte, CV: 7, Value: 2})
	assert.ErrorIs(t, err, programming.ErrNoAck)

	_, err = d.apply(programming.Request{Op: programming.OpWrite, Mode: programming.ModeDirectByte, CV: 8, Value: 1})
	assert.ErrorIs(t, err, programming.ErrNoAck)

	_, err = d.apply(programming.Request{Op: programming.OpWrite, Mode: programming.ModeDirectByte, CV: 8, Value: 8})
	require.NoError(t, err)
	assert.Equal(t, byte(0), d.CV(3))
	assert.Equal(t, ManufacturerDIY, d.CV(CVManufacturer))
}

func TestDecoderAbsent(t *testing.T) {
	d := NewDecoder()
	d.SetPresent(false)
	_, err := d.apply(programming.Request{Op: programming.OpRead, Mode: programming.ModeDirectByte, CV: 1})
	assert.ErrorIs(t, err, programming.ErrNoAck)
}

func TestSimulatorRun(t *testing.T) {
	results := make(chan programming.Result, 1)
	sim := NewSimulator(Config{Latency: time.Millisecond}, nil, func(r programming.Result) {
		results <- r
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	req := programming.Request{Op: programming.OpWrite, Mode: programming.ModePaged, CV: 3, Value: 42}
	require.NoError(t, sim.Submit(req))

	select {
	case res := <-results:
		assert.Equal(t, req, res.Request)
		assert.NoError(t, res.Err)
		assert.Equal(t, byte(42), sim.Decoder().CV(3))
	case <-time.After(2 * time.Second):
		t.Fatal("no result")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestSimulatorOverload(t *testing.T) {
	results := make(chan programming.Result, 1)
	sim := NewSimulator(Config{}, nil, func(r programming.Result) { results <- r })
	sim.SetOverload(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sim.Run(ctx) }()

	require.NoError(t, sim.Submit(programming.Request{Op: programming.OpRead, Mode: programming.ModeDirectByte, CV: 1}))
	select {
	case res := <-results:
		assert.ErrorIs(t, res.Err, programming.ErrOverload)
	case <-time.After(2 * time.Second):
		t.Fatal("no result")
	}
}

func TestSimulatorSubmitBusy(t *testing.T) {
	sim := NewSimulator(Config{QueueSize: 1}, nil, nil)
	req := programming.Request{Op: programming.OpRead, Mode: programming.ModeDirectByte, CV: 1}

	require.NoError(t, sim.Submit(req))
	assert.ErrorIs(t, sim.Submit(req), programming.ErrProgrammerBusy)
}
