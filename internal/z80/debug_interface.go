// debug_interface.go - the monitor's view of a debuggable CPU.
//
// DebuggableCPU is what MachineMonitor talks to instead of *CPU_Z80
// directly. The indirection earns its keep twice over: the monitor's
// commands can be tested against a scripted fake, and the trap-mode
// execution plumbing (breakpoint maps, the channel that yanks the
// machine into the monitor) stays in the adapter rather than
// cluttering the core. Addresses are uint64 throughout even though
// the Z80 is 16-bit, so hex parsed from user input flows through
// without truncation surprises.

package z80

// RegisterInfo describes one register for the monitor's display.
// Group steers layout: "general", "index", "status", "shadow", or
// "flags".
type RegisterInfo struct {
	Name     string
	BitWidth int
	Value    uint64
	Group    string
}

// DisassembledLine is one decoded instruction.
type DisassembledLine struct {
	Address      uint64
	HexBytes     string
	Mnemonic     string
	Size         int
	IsPC         bool
	IsBranch     bool
	BranchTarget uint64 // 0 when unknown or register-indirect
}

// BreakpointEvent is published when execution traps on a breakpoint
// or watchpoint.
type BreakpointEvent struct {
	CPUID   int
	Address uint64

	IsWatch       bool
	WatchAddr     uint64
	WatchOldValue byte
	WatchNewValue byte
}

// ConditionOp is the comparison in a breakpoint condition.
type ConditionOp int

const (
	CondOpEqual ConditionOp = iota
	CondOpNotEqual
	CondOpLess
	CondOpGreater
	CondOpLessEqual
	CondOpGreaterEqual
)

// ConditionSource is the left-hand side of a breakpoint condition.
type ConditionSource int

const (
	CondSourceRegister ConditionSource = iota
	CondSourceMemory
	CondSourceHitCount
)

type BreakpointCondition struct {
	Source  ConditionSource
	RegName string // for CondSourceRegister
	MemAddr uint64 // for CondSourceMemory
	Op      ConditionOp
	Value   uint64
}

// ConditionalBreakpoint is a breakpoint with hit accounting and an
// optional condition (nil = unconditional).
type ConditionalBreakpoint struct {
	Address   uint64
	Condition *BreakpointCondition
	HitCount  uint64
}

// Watchpoint traps writes by polling the watched byte after each
// step, so it catches any writer on the bus, not just the CPU.
type Watchpoint struct {
	Address   uint64
	LastValue byte
}

// DebuggableCPU is the adapter surface the monitor drives.
type DebuggableCPU interface {
	CPUName() string

	GetRegisters() []RegisterInfo
	GetRegister(name string) (uint64, bool)
	SetRegister(name string, value uint64) bool
	GetPC() uint64
	SetPC(addr uint64)

	IsRunning() bool
	Freeze()
	Resume()
	Step() int

	Disassemble(addr uint64, count int) []DisassembledLine

	SetBreakpoint(addr uint64) bool
	SetConditionalBreakpoint(addr uint64, cond *BreakpointCondition) bool
	ClearBreakpoint(addr uint64) bool
	ClearAllBreakpoints()
	ListBreakpoints() []uint64
	ListConditionalBreakpoints() []*ConditionalBreakpoint
	HasBreakpoint(addr uint64) bool
	GetConditionalBreakpoint(addr uint64) *ConditionalBreakpoint

	SetWatchpoint(addr uint64) bool
	ClearWatchpoint(addr uint64) bool
	ClearAllWatchpoints()
	ListWatchpoints() []uint64

	ReadMemory(addr uint64, size int) []byte
	WriteMemory(addr uint64, data []byte)

	SetBreakpointChannel(ch chan<- BreakpointEvent, cpuID int)
}
