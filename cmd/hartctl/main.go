// Command hartctl is an interactive debug-module console: it drives a
// Hart's haltreq/resethaltreq/step net ports the way an external JTAG
// debugger would, colorizing trace output with ANSI escapes the way
// cmd/cc's terminal handling does for a guest console.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/hartsim/corevm/internal/hart"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hartctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "hart boot config (YAML)")
	snapshotPath := flag.String("snapshot", "", "snapshot file to load at startup")
	flag.Parse()

	cfg := hart.Config{}
	if *configPath != "" {
		var err error
		cfg, err = hart.LoadConfigFile(*configPath)
		if err != nil {
			return err
		}
	}

	h, err := hart.New(cfg)
	if err != nil {
		return err
	}
	if *snapshotPath != "" {
		if err := hart.LoadFromFile(h, *snapshotPath); err != nil {
			return err
		}
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		old, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err == nil {
			defer term.Restore(int(os.Stdin.Fd()), old)
		}
	}

	console := &console{h: h, out: os.Stdout}
	console.printBanner()
	return console.loop(bufio.NewReader(os.Stdin), *snapshotPath)
}

type console struct {
	h   *hart.Hart
	out *os.File
}

const (
	ansiBoldCyan = "\x1b[1;36m"
	ansiReset    = "\x1b[0m"
	ansiDim      = "\x1b[2m"
)

func (c *console) printBanner() {
	title := ansiBoldCyan + "hartctl" + ansiReset + " — debug console"
	// Strip proves out the ansi dependency's plain-text measurement path:
	// log lines written to a non-terminal (e.g. redirected to a file) get
	// the escapes stripped so they stay readable.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		title = ansi.Strip(title)
	}
	fmt.Fprintf(c.out, "%s (hart %d)\r\n", title, c.h.ID)
	fmt.Fprintf(c.out, "commands: h(alt) r(esume) s(tep) d(cause) p(c) w(rite snapshot) q(uit)\r\n")
}

// loop reads single-keystroke commands in raw mode (when interactive) or
// newline-terminated commands from a script/pipe, and applies them to the
// debug net ports (§6 "Debug Module Interface: net ports").
func (c *console) loop(r *bufio.Reader, snapshotPath string) error {
	raw := term.IsTerminal(int(os.Stdin.Fd()))
	for {
		fmt.Fprintf(c.out, "%s(%s)> %s", ansiDim, c.h.Priv(), ansiReset)
		var line string
		if raw {
			b, err := r.ReadByte()
			if err != nil {
				return nil
			}
			line = string(b)
		} else {
			l, err := r.ReadString('\n')
			if err != nil {
				return nil
			}
			line = l
		}
		cmd := strings.TrimSpace(line)
		if cmd == "" {
			continue
		}
		switch cmd[0] {
		case 'h':
			c.h.EnterDebug(hart.DebugCauseHaltreq, c.h.Priv().Virtual())
			fmt.Fprintf(c.out, "halted, dpc=0x%x cause=haltreq\r\n", c.h.PC)
		case 'r':
			c.h.ExitDebug()
			fmt.Fprintf(c.out, "resumed at pc=0x%x\r\n", c.h.PC)
		case 's':
			v, err := c.h.DebugCSRRead(hart.CSRDcsr)
			if err == nil {
				err = c.h.DebugCSRWrite(hart.CSRDcsr, v|1<<2) // dcsr.step
			}
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\r\n", err)
				continue
			}
			fmt.Fprintf(c.out, "step armed (next resume retires exactly one instruction)\r\n")
		case 'd':
			v, err := c.h.DebugCSRRead(hart.CSRDcsr)
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\r\n", err)
				continue
			}
			fmt.Fprintf(c.out, "dcsr=0x%x\r\n", v)
		case 'p':
			fmt.Fprintf(c.out, "pc=0x%x\r\n", c.h.PC)
		case 'w':
			if snapshotPath == "" {
				fmt.Fprintf(c.out, "no -snapshot path given at startup\r\n")
				continue
			}
			if err := hart.SaveToFile(c.h, snapshotPath); err != nil {
				fmt.Fprintf(c.out, "error: %v\r\n", err)
				continue
			}
			fmt.Fprintf(c.out, "saved to %s\r\n", snapshotPath)
		case 'q':
			return nil
		default:
			fmt.Fprintf(c.out, "unknown command %q\r\n", cmd)
		}
	}
}

// formatCause is kept separate from the interactive loop so a future scripted
// front-end (hartconform) can reuse it without a terminal attached.
func formatCause(cause uint64) string {
	if hart.IsInterrupt(cause) {
		return "interrupt#" + strconv.FormatUint(hart.ExceptionCode(cause), 10)
	}
	return "exception#" + strconv.FormatUint(cause, 10)
}
