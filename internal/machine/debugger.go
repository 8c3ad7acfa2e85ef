// debugger.go - breakpoints, watchpoints and I/O breakpoints.
//
// internal/z80's DebuggableCPU (debug_interface.go, debug_cpu_z80.go)
// is a generic monitor adapter: it only sees CPU registers and a flat
// ReadMemory/WriteMemory pair, so it has no way to distinguish a
// memory write from an I/O write or to express a {port, mask,
// direction} breakpoint. This type lives at the Machine level instead,
// where Read/Write/In/Out are already being intercepted for every
// access; it reuses the BreakpointEvent-style hit reporting and
// conditional-breakpoint vocabulary without importing DebuggableCPU's
// single-CPU-register assumptions. See DESIGN.md.
package machine

// WatchDirection is which kind of access a Watchpoint fires on.
type WatchDirection int

const (
	WatchRead WatchDirection = iota
	WatchWrite
	WatchReadWrite
)

func (d WatchDirection) matches(access WatchDirection) bool {
	return d == WatchReadWrite || d == access
}

// IODirection is which kind of port access an IOBreakpoint fires on.
type IODirection int

const (
	IODirIn IODirection = iota
	IODirOut
	IODirBoth
)

func (d IODirection) matches(access IODirection) bool {
	return d == IODirBoth || d == access
}

// Breakpoint is a CPU-address trap. Ephemeral breakpoints are
// removed from the table the first time they fire (used for
// "run to cursor"-style single-shot stepping).
type Breakpoint struct {
	Addr      uint16
	Ephemeral bool
	Condition func() bool // nil = unconditional
}

// Watchpoint traps a memory access anywhere in [Addr, Addr+Length)
// in the given direction, with an optional condition evaluated
// against the old/new byte. Length 0 is treated as 1.
type Watchpoint struct {
	Addr      uint16
	Length    uint16
	Direction WatchDirection
	Condition func(oldValue, newValue byte) bool
}

// IOBreakpoint traps a port access matching port&Mask, in the given
// direction, with an optional condition evaluated against the value
// transferred.
type IOBreakpoint struct {
	Port      uint16
	Mask      uint16
	Direction IODirection
	Condition func(port uint16, value byte) bool
}

// Debugger holds every breakpoint/watchpoint/IO-breakpoint currently
// armed against a Machine. The zero value is usable (no traps set).
type Debugger struct {
	breakpoints   []Breakpoint
	watchpoints   []Watchpoint
	ioBreakpoints []IOBreakpoint

	pendingExit    ExitReason
	pendingExitSet bool
}

// NewDebugger returns an empty, disarmed debugger.
func NewDebugger() *Debugger { return &Debugger{} }

// AddBreakpoint arms a persistent or ephemeral address breakpoint.
func (d *Debugger) AddBreakpoint(bp Breakpoint) { d.breakpoints = append(d.breakpoints, bp) }

// RemoveBreakpoint clears every breakpoint at addr.
func (d *Debugger) RemoveBreakpoint(addr uint16) {
	out := d.breakpoints[:0]
	for _, bp := range d.breakpoints {
		if bp.Addr != addr {
			out = append(out, bp)
		}
	}
	d.breakpoints = out
}

// ClearBreakpoints removes every armed breakpoint.
func (d *Debugger) ClearBreakpoints() { d.breakpoints = nil }

// ListBreakpoints reports every currently armed breakpoint.
func (d *Debugger) ListBreakpoints() []Breakpoint {
	out := make([]Breakpoint, len(d.breakpoints))
	copy(out, d.breakpoints)
	return out
}

// AddWatchpoint arms a memory watchpoint.
func (d *Debugger) AddWatchpoint(w Watchpoint) { d.watchpoints = append(d.watchpoints, w) }

// ClearWatchpoints removes every armed watchpoint.
func (d *Debugger) ClearWatchpoints() { d.watchpoints = nil }

// AddIOBreakpoint arms a port breakpoint.
func (d *Debugger) AddIOBreakpoint(bp IOBreakpoint) { d.ioBreakpoints = append(d.ioBreakpoints, bp) }

// ClearIOBreakpoints removes every armed I/O breakpoint.
func (d *Debugger) ClearIOBreakpoints() { d.ioBreakpoints = nil }

// hit reports whether pc matches an armed breakpoint, removing any
// ephemeral one that fires.
func (d *Debugger) hit(pc uint16) bool {
	for i := 0; i < len(d.breakpoints); i++ {
		bp := d.breakpoints[i]
		if bp.Addr != pc {
			continue
		}
		if bp.Condition != nil && !bp.Condition() {
			continue
		}
		if bp.Ephemeral {
			d.breakpoints = append(d.breakpoints[:i], d.breakpoints[i+1:]...)
		}
		return true
	}
	return false
}

func (d *Debugger) checkWatchpoint(addr uint16, access WatchDirection, oldValue, newValue byte) {
	for _, w := range d.watchpoints {
		length := w.Length
		if length == 0 {
			length = 1
		}
		if addr < w.Addr || addr >= w.Addr+length || !w.Direction.matches(access) {
			continue
		}
		if w.Condition != nil && !w.Condition(oldValue, newValue) {
			continue
		}
		d.pendingExit, d.pendingExitSet = ExitWatchpoint, true
		return
	}
}

func (d *Debugger) checkIOBreakpoint(port uint16, value byte, access IODirection) {
	for _, bp := range d.ioBreakpoints {
		if port&bp.Mask != bp.Port&bp.Mask || !bp.Direction.matches(access) {
			continue
		}
		if bp.Condition != nil && !bp.Condition(port, value) {
			continue
		}
		d.pendingExit, d.pendingExitSet = ExitIOBreakpoint, true
		return
	}
}

// pendingBusExit reports and clears a watchpoint or I/O breakpoint
// hit recorded during the instruction that just finished executing;
// RunUntilFrameComplete polls this after every Step since bus
// accesses happen inside it, not at a point the run loop controls
// directly.
func (d *Debugger) pendingBusExit() (ExitReason, bool) {
	if !d.pendingExitSet {
		return 0, false
	}
	d.pendingExitSet = false
	return d.pendingExit, true
}
