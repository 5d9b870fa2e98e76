package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/cbus-station/cancmd-go/pkg/cbus"
	"github.com/cbus-station/cancmd-go/pkg/gridconnect"
	"github.com/cbus-station/cancmd-go/pkg/programming"
)

// consoleCANID is the sender ID of frames typed at the console.
const consoleCANID = 0x7D

// consoleHandle is the programming session handle used by the console.
const consoleHandle = 0

var errUsage = errors.New("usage")

// Console is the interactive command line.
type Console struct {
	rl  *readline.Instance
	out io.Writer
	d   *daemon
}

// NewConsole creates the readline console.
func NewConsole() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "cancmd> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl, out: rl.Stdout()}, nil
}

// Stdout returns a writer that coordinates with the prompt.
func (c *Console) Stdout() io.Writer {
	return c.out
}

func (c *Console) attach(d *daemon) {
	c.d = d
}

// printFrame shows a frame the station transmitted.
func (c *Console) printFrame(f cbus.Frame) {
	fmt.Fprintf(c.out, "<- %-24s %s\n", gridconnect.Encode(f), f)
}

// Run reads commands until quit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if c.execute(ctx, line) {
			cancel()
			return
		}
	}
}

// execute runs one command line and reports whether the console should
// quit.
func (c *Console) execute(ctx context.Context, line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		c.printHelp()
	case "quit", "exit", "q":
		return true
	case "power", "p":
		err = c.cmdPower(ctx, args)
	case "status", "s":
		c.cmdStatus()
	case "send":
		err = c.cmdSend(args)
	case "prog", "w":
		err = c.cmdProgram(args, programming.OpWrite)
	case "read", "r":
		err = c.cmdProgram(args, programming.OpRead)
	case "locos", "l":
		c.cmdLocos()
	case "stop":
		c.inject(cbus.NewFrame(consoleCANID, cbus.PriorityEmergency, cbus.OpRESTP))
	case "overload":
		err = c.cmdOverload(args)
	case "cv":
		err = c.cmdCV(args)
	default:
		err = fmt.Errorf("unknown command %q (type 'help')", cmd)
	}

	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, `Commands:
  power on|off                 Switch track power
  status                       Show station status
  send <gridconnect>           Inject a frame, e.g. send :SB020N0A;
  prog <mode> <cv> <value>     Write a CV (modes: direct, bit, paged, register, address)
  read <mode> <cv>             Read a CV
  locos                        List loco sessions
  stop                         Emergency stop all locos
  overload on|off              Simulate a programming track overload
  cv <n>                       Show a CV of the simulated decoder
  quit                         Exit
`)
}

func (c *Console) cmdPower(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: power on|off", errUsage)
	}
	var p programming.PowerState
	switch strings.ToLower(args[0]) {
	case "on":
		p = programming.PowerOn
	case "off":
		p = programming.PowerOff
	default:
		return fmt.Errorf("%w: power on|off", errUsage)
	}
	return c.d.station.SetPower(ctx, p)
}

func (c *Console) cmdStatus() {
	st := c.d.station.Status()
	fmt.Fprintf(c.out, "Power:     %s\n", st.State.Power)
	fmt.Fprintf(c.out, "Mode:      %s\n", st.State.Mode)
	if s := st.State.Session; s != nil {
		fmt.Fprintf(c.out, "Session:   handle=%d cv=%d pending=%s\n", s.Handle, s.CV, s.Pending)
	}
	fmt.Fprintf(c.out, "Flags:     0x%02X\n", st.Flags)
	fmt.Fprintf(c.out, "Frames:    received=%d dropped=%d sent=%d failed=%d\n",
		st.Received, st.Dropped, st.Sent, st.TxFailed)
	fmt.Fprintf(c.out, "Clients:   %d\n", c.d.server.ConnectionCount())
	fmt.Fprintf(c.out, "Locos:     %d\n", c.d.table.Len())
}

func (c *Console) cmdSend(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: send <gridconnect>", errUsage)
	}
	f, err := gridconnect.Decode(args[0])
	if err != nil {
		return err
	}
	c.inject(f)
	return nil
}

func (c *Console) cmdProgram(args []string, op programming.Op) error {
	want := 2
	usage := "read <mode> <cv>"
	if op == programming.OpWrite {
		want = 3
		usage = "prog <mode> <cv> <value>"
	}
	if len(args) != want {
		return fmt.Errorf("%w: %s", errUsage, usage)
	}

	mode, err := parseMode(args[0])
	if err != nil {
		return err
	}
	cv, err := strconv.ParseUint(args[1], 0, 16)
	if err != nil {
		return fmt.Errorf("cv: %w", err)
	}

	data := []byte{consoleHandle, byte(cv >> 8), byte(cv), mode}
	opc := cbus.OpQCVS
	if op == programming.OpWrite {
		v, err := strconv.ParseUint(args[2], 0, 8)
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		data = append(data, byte(v))
		opc = cbus.OpWCVS
	}
	c.inject(cbus.NewFrame(consoleCANID, cbus.PriorityLow, opc, data...))
	return nil
}

func (c *Console) cmdLocos() {
	sessions := c.d.table.Sessions()
	if len(sessions) == 0 {
		fmt.Fprintln(c.out, "No loco sessions.")
		return
	}
	for _, s := range sessions {
		dir := "rev"
		if s.Forward() {
			dir = "fwd"
		}
		fmt.Fprintf(c.out, "  %3d  addr=%-5d speed=%-3d %s  fn=0x%07X  sharers=%d\n",
			s.Handle, s.Address, s.Speed(), dir, s.Functions, s.Sharers)
	}
}

func (c *Console) cmdOverload(args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return fmt.Errorf("%w: overload on|off", errUsage)
	}
	c.d.simulator.SetOverload(args[0] == "on")
	return nil
}

func (c *Console) cmdCV(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: cv <n>", errUsage)
	}
	n, err := strconv.ParseUint(args[0], 0, 16)
	if err != nil {
		return fmt.Errorf("cv: %w", err)
	}
	fmt.Fprintf(c.out, "CV%d = %d\n", n, c.d.simulator.Decoder().CV(programming.CVAddress(n)))
	return nil
}

// inject hands a frame to the station as if it came from the bus.
func (c *Console) inject(f cbus.Frame) {
	fmt.Fprintf(c.out, "-> %-24s %s\n", gridconnect.Encode(f), f)
	if !c.d.station.Receive(f) {
		fmt.Fprintln(c.out, "Error: inbound queue full")
	}
}

// parseMode maps a console mode name onto its wire code.
func parseMode(s string) (byte, error) {
	switch strings.ToLower(s) {
	case "direct", "byte":
		return programming.WireDirectByte, nil
	case "bit":
		return programming.WireDirectBit, nil
	case "paged", "page":
		return programming.WirePaged, nil
	case "register", "reg":
		return programming.WireRegister, nil
	case "address", "addr":
		return programming.WireAddress, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}
