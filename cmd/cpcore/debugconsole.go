// debugconsole.go - `cpcore run --debug`'s interactive monitor: a
// line-mode command loop over console.Console/Host's raw-stdin
// reader, polled alongside the emulation so the window keeps
// running while a command is being typed.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cpcdevtools/cpcore/cmd/cpcore/console"
	"github.com/cpcdevtools/cpcore/internal/machine"
)

type debugConsole struct {
	m    *machine.Machine
	lock func(func())

	con  *console.Console
	host *console.Host

	stopCh chan struct{}
	done   chan struct{}

	detached bool // set by `q`; only touched from loop's goroutine
}

func newDebugConsole(m *machine.Machine, lock func(func())) *debugConsole {
	con := console.NewConsole()
	con.SetLineMode(true) // read whole commands
	con.SetEcho(os.Stdout)

	return &debugConsole{
		m:      m,
		lock:   lock,
		con:    con,
		host:   console.NewHost(con),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (dc *debugConsole) Start() {
	dc.host.Start()
	fmt.Fprint(os.Stdout, "cpcore debugger attached — r, s, n, f, b <addr>, d <addr>, m <addr> <len>, q\n> ")
	go dc.loop()
}

func (dc *debugConsole) Stop() {
	close(dc.stopCh)
	<-dc.done
	dc.host.Stop()
}

func (dc *debugConsole) loop() {
	defer close(dc.done)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-dc.stopCh:
			return
		case <-ticker.C:
		}

		for {
			line, ok := dc.con.ReadLine()
			if !ok {
				break
			}
			dc.execute(line)
			if dc.detached {
				dc.host.Stop()
				return
			}
			fmt.Fprint(os.Stdout, "> ")
		}
	}
}

func (dc *debugConsole) execute(cmdLine string) {
	fields := strings.Fields(cmdLine)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "r":
		dc.lock(func() {
			c := dc.m.CPU
			fmt.Fprintf(os.Stdout,
				"AF=%04X BC=%04X DE=%04X HL=%04X IX=%04X IY=%04X SP=%04X PC=%04X IM=%d IFF1=%v IFF2=%v Halted=%v\n",
				c.AF(), c.BC(), c.DE(), c.HL(), c.IX, c.IY, c.SP, c.PC, c.IM, c.IFF1, c.IFF2, c.Halted)
		})

	case "s":
		dc.lock(func() { dc.m.StepInto() })
		fmt.Fprintf(os.Stdout, "PC=%04X\n", dc.m.CPU.PC)

	case "n": // step over CALL/RST
		dc.lock(func() { dc.m.StepOver(0) })
		fmt.Fprintf(os.Stdout, "PC=%04X\n", dc.m.CPU.PC)

	case "f": // finish: run to the matching RET
		dc.lock(func() { dc.m.StepOut(0) })
		fmt.Fprintf(os.Stdout, "PC=%04X\n", dc.m.CPU.PC)

	case "b":
		addr, ok := dc.parseAddr(fields)
		if !ok {
			return
		}
		dc.lock(func() { dc.m.Debugger().AddBreakpoint(machine.Breakpoint{Addr: addr}) })
		fmt.Fprintf(os.Stdout, "breakpoint set at %04X\n", addr)

	case "d":
		addr, ok := dc.parseAddr(fields)
		if !ok {
			return
		}
		dc.lock(func() { dc.m.Debugger().RemoveBreakpoint(addr) })
		fmt.Fprintf(os.Stdout, "breakpoint cleared at %04X\n", addr)

	case "m":
		if len(fields) < 3 {
			fmt.Fprintln(os.Stdout, "usage: m <hex addr> <len>")
			return
		}
		addr, ok := dc.parseAddr(fields)
		if !ok {
			return
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			fmt.Fprintf(os.Stdout, "bad length: %v\n", err)
			return
		}
		dc.lock(func() {
			for i := 0; i < n; i++ {
				fmt.Fprintf(os.Stdout, "%02X ", dc.m.Mem.Read8(addr+uint16(i)))
			}
		})
		fmt.Fprintln(os.Stdout)

	case "q":
		fmt.Fprintln(os.Stdout, "detaching debugger console (emulator keeps running)")
		dc.detached = true

	default:
		fmt.Fprintf(os.Stdout, "unknown command: %s\n", fields[0])
	}
}

func (dc *debugConsole) parseAddr(fields []string) (uint16, bool) {
	if len(fields) < 2 {
		fmt.Fprintln(os.Stdout, "usage: <cmd> <hex addr>")
		return 0, false
	}
	addr, err := strconv.ParseUint(fields[1], 16, 16)
	if err != nil {
		fmt.Fprintf(os.Stdout, "bad address: %v\n", err)
		return 0, false
	}
	return uint16(addr), true
}
