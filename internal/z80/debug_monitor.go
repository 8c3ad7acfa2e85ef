// debug_monitor.go - machine monitor core: freeze/resume and the
// scrollback the frontend drains.
//
// The CPC has exactly one CPU, so unlike the multi-processor
// monitors this grew out of, there is no CPU list, no focus
// switching, and no per-CPU bookkeeping: the monitor owns one
// DebuggableCPU and everything keys off it.

package z80

import (
	"fmt"
	"sync"
)

type MonitorState int

const (
	MonitorInactive MonitorState = iota
	MonitorActive
)

// OutputLine holds styled text for the monitor scrollback buffer.
type OutputLine struct {
	Text  string
	Color uint32 // RGBA packed
}

// Color constants (RGBA packed as 0xRRGGBBAA)
const (
	colorWhite  = 0xFFFFFFFF
	colorCyan   = 0x64C8FFFF
	colorYellow = 0xFFFF55FF
	colorRed    = 0xFF5555FF
	colorGreen  = 0x55FF55FF
	colorDim    = 0x5555FFFF
)

// MachineMonitor is the debugger state machine behind the monitor
// command surface.
type MachineMonitor struct {
	mu    sync.Mutex
	state MonitorState

	label string
	cpu   DebuggableCPU

	breakpointChan chan BreakpointEvent

	outputLines []OutputLine
	maxOutput   int
	history     []string

	wasRunning bool

	// audioMute, when set, lets the monitor silence PSG sample
	// generation from the fa/ta commands without this package
	// depending on the psg package.
	audioMute func(muted bool)

	prevRegs map[string]uint64 // for change highlighting

	// run-until bookkeeping: temp breakpoints to drop on hit, and
	// user conditions suspended while running to an address.
	tempBreakpoints map[uint64]bool
	savedConditions map[uint64]*BreakpointCondition

	// backstep ring: one snapshot pushed per single-step.
	stepHistory []*MachineSnapshot
	maxBackstep int
}

// NewMachineMonitor creates a monitor. audioMute may be nil when no
// sound chip is wired into this session (headless tests, `cpcore
// monitor`).
func NewMachineMonitor(audioMute func(bool)) *MachineMonitor {
	return &MachineMonitor{
		state:           MonitorInactive,
		breakpointChan:  make(chan BreakpointEvent, 1),
		maxOutput:       500,
		audioMute:       audioMute,
		prevRegs:        make(map[string]uint64),
		tempBreakpoints: make(map[uint64]bool),
		savedConditions: make(map[uint64]*BreakpointCondition),
		maxBackstep:     32,
	}
}

// RegisterCPU attaches the machine's CPU to the monitor. The return
// value is a vestigial ID kept for frontend compatibility; there is
// only ever slot 0.
func (m *MachineMonitor) RegisterCPU(label string, cpu DebuggableCPU) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.label = label
	m.cpu = cpu
	cpu.SetBreakpointChannel(m.breakpointChan, 0)
	return 0
}

// IsActive reports whether the monitor currently has the machine.
func (m *MachineMonitor) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == MonitorActive
}

// Activate freezes the CPU and enters the monitor.
func (m *MachineMonitor) Activate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == MonitorActive {
		return
	}
	m.state = MonitorActive

	m.wasRunning = false
	if m.cpu != nil && m.cpu.IsRunning() {
		m.wasRunning = true
		m.cpu.Freeze()
	}

	m.saveCurrentRegs()
	m.appendOutput("MACHINE MONITOR - type ? for help", colorCyan)
	m.showRegisters()
	m.showDisassemblyAtPC(8)
}

// Deactivate resumes the CPU if it was running and exits the monitor.
func (m *MachineMonitor) Deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == MonitorInactive {
		return
	}
	m.state = MonitorInactive
	if m.cpu != nil && m.wasRunning {
		m.cpu.Resume()
	}
}

// DrainOutput returns and clears the scrollback buffer, for hosts
// that print monitor output line-by-line (a terminal frontend)
// rather than drawing an overlay each frame.
func (m *MachineMonitor) DrainOutput() []OutputLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.outputLines
	m.outputLines = nil
	return out
}

func (m *MachineMonitor) appendOutput(text string, color uint32) {
	m.outputLines = append(m.outputLines, OutputLine{Text: text, Color: color})
	if len(m.outputLines) > m.maxOutput {
		m.outputLines = m.outputLines[len(m.outputLines)-m.maxOutput:]
	}
}

// saveCurrentRegs snapshots the register file so the next dump can
// highlight what changed.
func (m *MachineMonitor) saveCurrentRegs() {
	if m.cpu == nil {
		return
	}
	m.prevRegs = make(map[string]uint64)
	for _, r := range m.cpu.GetRegisters() {
		m.prevRegs[r.Name] = r.Value
	}
}

// StartBreakpointListener watches for breakpoint events and pulls
// the machine into the monitor when one fires.
func (m *MachineMonitor) StartBreakpointListener() {
	go func() {
		for ev := range m.breakpointChan {
			m.handleBreakpointHit(ev)
		}
	}()
}

func (m *MachineMonitor) handleBreakpointHit(ev BreakpointEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cpu == nil {
		return
	}

	// The trap loop publishes the event and then returns, so
	// IsRunning may still read true for a moment; Freeze waits for
	// the loop to end. Either way it was running, and Deactivate
	// should resume it.
	wasRunning := true
	if m.cpu.IsRunning() {
		m.cpu.Freeze()
	}

	// Run-until: drop the temp breakpoint, restore any user
	// condition it displaced.
	if m.tempBreakpoints[ev.Address] {
		m.cpu.ClearBreakpoint(ev.Address)
		delete(m.tempBreakpoints, ev.Address)
	}
	if cond, ok := m.savedConditions[ev.Address]; ok {
		if bp := m.cpu.GetConditionalBreakpoint(ev.Address); bp != nil {
			bp.Condition = cond
		}
		delete(m.savedConditions, ev.Address)
	}

	var msg string
	if ev.IsWatch {
		msg = fmt.Sprintf("WATCH &%04X: &%02X -> &%02X at PC=&%04X",
			ev.WatchAddr, ev.WatchOldValue, ev.WatchNewValue, ev.Address)
	} else {
		msg = fmt.Sprintf("BREAK at &%04X", ev.Address)
	}

	if m.state != MonitorActive {
		m.state = MonitorActive
		m.wasRunning = wasRunning
	}
	m.appendOutput(msg, colorRed)
	m.saveCurrentRegs()
	m.showRegisters()
	m.showDisassemblyAtPC(8)
}
