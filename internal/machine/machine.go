// machine.go - wires every device package into one Z80Bus and owns
// the run loop.
//
// A single struct composes the CPU and every bus device behind
// Z80Bus, with port decode collapsed into one Out/In pair, plus
// runtime_ipc.go's "one struct, several owned goroutine-adjacent
// subsystems" pattern. See DESIGN.md for the few port ranges the
// CPC's own documentation leaves approximate.
package machine

import (
	"fmt"
	"os"

	"github.com/cpcdevtools/cpcore/internal/autotype"
	"github.com/cpcdevtools/cpcore/internal/config"
	"github.com/cpcdevtools/cpcore/internal/crtc"
	"github.com/cpcdevtools/cpcore/internal/dsk"
	"github.com/cpcdevtools/cpcore/internal/fdc"
	"github.com/cpcdevtools/cpcore/internal/gatearray"
	"github.com/cpcdevtools/cpcore/internal/iodispatch"
	"github.com/cpcdevtools/cpcore/internal/memmap"
	"github.com/cpcdevtools/cpcore/internal/must"
	"github.com/cpcdevtools/cpcore/internal/obs"
	"github.com/cpcdevtools/cpcore/internal/peripherals"
	"github.com/cpcdevtools/cpcore/internal/ppi"
	"github.com/cpcdevtools/cpcore/internal/psg"
	"github.com/cpcdevtools/cpcore/internal/silicondisc"
	"github.com/cpcdevtools/cpcore/internal/snapshot"
	"github.com/cpcdevtools/cpcore/internal/tape"
	"github.com/cpcdevtools/cpcore/internal/z80"
)

// ExitReason tells the frontend why RunUntilFrameComplete returned.
type ExitReason int

const (
	ExitFrameComplete ExitReason = iota
	ExitCycleLimit
	ExitBreakpoint
	ExitWatchpoint
	ExitIOBreakpoint
	ExitHalted
	ExitPaused
)

func (r ExitReason) String() string {
	switch r {
	case ExitFrameComplete:
		return "frame-complete"
	case ExitCycleLimit:
		return "cycle-limit"
	case ExitBreakpoint:
		return "breakpoint"
	case ExitWatchpoint:
		return "watchpoint"
	case ExitIOBreakpoint:
		return "io-breakpoint"
	case ExitHalted:
		return "halted"
	case ExitPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Machine composes every device package behind a single z80.Z80Bus
// and drives the cooperative single-threaded scheduler: the CPU
// suspends only at instruction boundaries, and CRTC/PSG/tape all get
// their cycles debited right after each Step.
type Machine struct {
	Log obs.Logger

	CPU       *z80.CPU_Z80
	Mem       *memmap.Map
	CRTC      *crtc.CRTC
	GateArray *gatearray.GateArray
	PPI       *ppi.PPI
	Matrix    *ppi.Matrix
	Engine    *psg.PSGEngine
	Chip      *psg.SoundChip
	psgAdapter *ppi.EngineAdapter
	FDC       *fdc.Controller
	driveA    *dsk.Drive
	driveB    *dsk.Drive
	Dispatch  *iodispatch.Table
	Autotype  *autotype.Queue
	Tape      *tape.Tape
	Silicon   *silicondisc.Disc

	AmDrum     *peripherals.AmDrum
	Phazer     *peripherals.Phazer
	SmartWatch *peripherals.SmartWatch
	Symbiface  *peripherals.Symbiface
	M4         *peripherals.M4
	Mouse      *peripherals.AMXMouse

	dbg *Debugger

	crtcTStateAcc int
	frameDone     bool
	printerLog    []byte
	paused        bool
}

// keyboardHookAdapter bridges ppi.KeyboardReadHooks (row, raw byte)
// to iodispatch.Table.FireKeyboardReadHooks(line int), whose
// signature predates the PPI package and never carried the raw
// value — the dispatch-table hooks only ever produce an AND-mask,
// so the raw byte has nothing to feed.
type keyboardHookAdapter struct{ table *iodispatch.Table }

func (a keyboardHookAdapter) FireKeyboardReadHooks(row byte, raw byte) byte {
	return a.table.FireKeyboardReadHooks(int(row))
}

// NewMachine builds a fully wired Machine from cfg. ROM and disc
// images named in cfg are loaded from disk; a missing lower ROM is
// not an error here (a headless test machine may supply its own
// memory contents directly); without one, slot 0 reads base RAM.
func NewMachine(cfg config.Config, log obs.Logger) (*Machine, error) {
	if log == nil {
		log = obs.Nop()
	}

	// Unknown ram_ext_mode values fall back to the standard 576 KiB
	// decode, which behaves as RAM_config 0 until software banks.
	extMode := memmap.RAMExtModeStandard
	if cfg.Machine.RAMExtMode == "yarek" {
		extMode = memmap.RAMExtModeYarek
	}

	m := &Machine{
		Log:      log,
		Mem:      memmap.NewMap(extMode),
		Matrix:   ppi.NewMatrix(),
		Dispatch: iodispatch.New(),
		Autotype: autotype.New(),
		Tape:     tape.New(),

		AmDrum:     peripherals.NewAmDrum(),
		Phazer:     peripherals.NewPhazer(),
		SmartWatch: peripherals.NewSmartWatch(),
		Symbiface:  peripherals.NewSymbiface(),
		M4:         peripherals.NewM4(),
		Mouse:      peripherals.NewAMXMouse(),
	}

	m.CRTC = crtc.New(crtc.Type(cfg.Machine.CRTCType))
	m.GateArray = gatearray.New(m.Mem, cfg.Machine.Is6128Plus)
	m.GateArray.SetIRQHandler(func() {})

	sampleRate := cfg.Audio.SampleRate
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	m.Chip = psg.NewSoundChip(sampleRate)
	m.Engine = psg.NewPSGEngine(m.Chip, sampleRate)
	m.Engine.SetClockHz(psg.PSG_CLOCK_CPC)
	m.psgAdapter = ppi.NewEngineAdapter(m.Engine)
	m.PPI = ppi.New(m.psgAdapter, m.Matrix)
	m.psgAdapter.SetPortARead(func() byte { return m.PPI.ReadSelectedRow() })
	m.PPI.SetKeyboardReadHooks(keyboardHookAdapter{table: m.Dispatch})
	m.PPI.SetKeyboardLineHook(func(row byte) {
		m.Dispatch.FireKeyboardLineHooks(int(row))
		m.Mouse.Notify(int(row))
	})
	m.PPI.SetTapeMotorHook(func(on bool) {
		m.Tape.SetPlayButton(on)
		m.Dispatch.FireTapeMotorHooks(on)
	})

	m.FDC = fdc.New()
	m.FDC.SetMotorHook(func(on bool) { m.Dispatch.FireFDCMotorHooks(on) })

	m.Dispatch.RegisterOut(0xFF, m.AmDrum)
	m.Dispatch.RegisterOut(0xFB, m.Phazer)
	m.Dispatch.RegisterIn(0xFD, m.Symbiface)
	m.Dispatch.RegisterOut(0xFD, m.Symbiface)
	m.Dispatch.RegisterIn(0xFE, m.M4)
	m.Dispatch.RegisterOut(0xFE, m.M4)
	m.Dispatch.RegisterKeyboardReadHook(m.Mouse)

	// The silicon disc occupies expansion banks 4-7: the second
	// 256 KiB of the expansion space.
	if disc, err := silicondisc.New(m.Mem.ExpansionRAM(), 4*memmap.ExpansionPageSize); err == nil {
		m.Silicon = disc
	}

	if err := m.loadROMs(cfg.Machine); err != nil {
		return nil, err
	}
	if err := m.loadDiscs(cfg.Discs); err != nil {
		return nil, err
	}

	m.CPU = z80.NewCPU_Z80(m)
	m.dbg = NewDebugger()
	m.registerMonitorViews()
	return m, nil
}

// registerMonitorViews exposes each port-mapped chip's register state
// to the machine monitor's `io` command, which cannot reach them by
// reading memory the way it inspects RAM.
func (m *Machine) registerMonitorViews() {
	z80.RegisterIOView("crtc", func() []string {
		lines := make([]string, 0, 19)
		for i := 0; i < 18; i++ {
			lines = append(lines, fmt.Sprintf("  R%-2d = $%02X [%d]", i, m.CRTC.Register(i), m.CRTC.Register(i)))
		}
		lines = append(lines, fmt.Sprintf("  selected = R%d, vsync = %v", m.CRTC.Selected(), m.CRTC.VSyncActive()))
		return lines
	})
	z80.RegisterIOView("gatearray", func() []string {
		s := m.GateArray.State()
		return []string{
			fmt.Sprintf("  pen = %d, mode = %d", s.Pen, s.Mode),
			fmt.Sprintf("  inks = % 02X", s.Inks),
			fmt.Sprintf("  lower ROM off = %v, upper ROM off = %v", s.LowerROMOff, s.UpperROMOff),
			fmt.Sprintf("  scanline counter = %d, IRQ pending = %v", s.ScanlineCounter, s.IRQPending),
		}
	})
	z80.RegisterIOView("ppi", func() []string {
		s := m.PPI.State()
		return []string{
			fmt.Sprintf("  port A = $%02X, port B = $%02X, port C = $%02X", s.PortA, s.PortB, s.PortC),
			fmt.Sprintf("  keyboard row = %d", s.PortC&0x0F),
		}
	})
	z80.RegisterIOView("psg", func() []string {
		regs := m.Engine.Registers()
		lines := make([]string, 0, len(regs)+1)
		for i, v := range regs {
			lines = append(lines, fmt.Sprintf("  R%-2d = $%02X [%d]", i, v, v))
		}
		lines = append(lines, fmt.Sprintf("  selected = R%d", m.psgAdapter.Selected()))
		return lines
	})
	z80.RegisterIOView("fdc", func() []string {
		return []string{
			fmt.Sprintf("  phase = %d, motor = %v", m.FDC.Phase(), m.FDC.MotorOn()),
		}
	})
}

func (m *Machine) loadROMs(mc config.MachineConfig) error {
	if mc.LowerROM != "" {
		data, err := os.ReadFile(mc.LowerROM)
		if err != nil {
			return fmt.Errorf("machine: load lower rom: %w", err)
		}
		m.Mem.LoadLowerROM(data)
	}
	for _, slot := range mc.UpperROMs {
		data, err := os.ReadFile(slot.Path)
		if err != nil {
			return fmt.Errorf("machine: load upper rom %d: %w", slot.Index, err)
		}
		m.Mem.LoadUpperROM(byte(slot.Index), data)
	}
	m.Mem.Reconfigure()
	return nil
}

func (m *Machine) loadDiscs(dc config.DiscConfig) error {
	if dc.DriveA != "" {
		d, err := dsk.LoadFile(dc.DriveA)
		if err != nil {
			return fmt.Errorf("machine: load drive A: %w", err)
		}
		m.driveA = d
		m.FDC.SetDrive(d)
	}
	if dc.DriveB != "" {
		// Only one drive is wired to the FDC in this core (see
		// internal/fdc's own doc comment); a drive_b path is
		// accepted so config files from two-drive setups still
		// parse, but it is never attached to the controller.
		d, err := dsk.LoadFile(dc.DriveB)
		if err != nil {
			return fmt.Errorf("machine: load drive B: %w", err)
		}
		m.driveB = d
		m.Log.Warnf("machine: drive B (%s) loaded but not wired — this core models a single internal drive", dc.DriveB)
	}
	return nil
}

// Reset restores the CPU to its power-on state and releases all
// keyboard and autotype state. Device register files are left
// alone: a real reset button doesn't rewrite the gate array or CRTC
// either.
func (m *Machine) Reset() {
	m.CPU.Reset()
	m.Matrix.ReleaseAll()
	m.Autotype.Clear()
	m.frameDone = false
}

// ---- z80.Z80Bus ----

func (m *Machine) Read(addr uint16) byte {
	v := m.Mem.Read8(addr)
	if addr < 0x4000 && m.SmartWatch.Enabled() {
		if nv, intercepted := m.SmartWatch.InterceptROMRead(addr, v); intercepted {
			v = nv
		}
	}
	m.dbg.checkWatchpoint(addr, WatchRead, v, v)
	return v
}

func (m *Machine) Write(addr uint16, value byte) {
	old := m.Mem.Read8(addr)
	m.Mem.Write8(addr, value)
	m.dbg.checkWatchpoint(addr, WatchWrite, old, value)
}

func (m *Machine) In(port uint16) byte {
	high := byte(port >> 8)
	val := byte(0xFF)

	if v, ok := m.portCRTC(port, 0, false); ok {
		val = v
	} else if high&0x08 == 0 {
		if v, ok := m.portPPI(port, 0, false); ok {
			val = v
		}
	} else if high == 0xFB {
		if port&1 == 0 {
			val = m.FDC.ReadStatus()
		} else {
			val = m.FDC.ReadData()
		}
	}

	val = m.Dispatch.DispatchIn(port, val)

	m.dbg.checkIOBreakpoint(port, val, IODirIn)
	return val
}

func (m *Machine) Out(port uint16, value byte) {
	high := byte(port >> 8)

	switch {
	case high&0xC0 == 0x40:
		m.GateArray.Out(port, value)
	case m.inCRTCRange(high):
		m.portCRTC(port, value, true)
	case high == 0xDF:
		m.Mem.UpperROMIndex = value
		m.Mem.Reconfigure()
	case high == 0xEF:
		m.printerLog = append(m.printerLog, value^0x80)
	case high&0x08 == 0:
		m.portPPI(port, value, true)
	case high == 0xFA:
		m.FDC.WriteMotor(value)
	case high == 0xFB:
		m.FDC.WriteData(value)
	case high == 0xFE:
		switch byte(port) {
		case 0xE8:
			m.Mem.SetMF2Active(true)
			m.Mem.Reconfigure()
		case 0xEA:
			m.Mem.SetMF2Active(false)
			m.Mem.Reconfigure()
		}
	}

	m.Dispatch.DispatchOut(port, value)
	m.dbg.checkIOBreakpoint(port, value, IODirOut)
}

func (m *Machine) inCRTCRange(high byte) bool { return high >= 0xBC && high <= 0xBF }

// portCRTC decodes the CRTC's 4-function port split. The select and
// write-data calls have no meaningful read value; ReadStatus and
// ReadData have no meaningful write effect.
func (m *Machine) portCRTC(port uint16, value byte, isWrite bool) (byte, bool) {
	high := byte(port >> 8)
	if !m.inCRTCRange(high) {
		return 0, false
	}
	switch high & 0x03 {
	case 0:
		if isWrite {
			m.CRTC.SelectRegister(value)
		}
		return 0, true
	case 1:
		if isWrite {
			m.CRTC.WriteData(value)
		}
		return 0, true
	case 2:
		if !isWrite {
			return m.CRTC.ReadStatus(), true
		}
		return 0, true
	default:
		if !isWrite {
			return m.CRTC.ReadData(), true
		}
		return 0, true
	}
}

// portPPI decodes the 8255's 4-register port split. Port B is
// input-only on the CPC wiring, so an OUT to it is accepted and
// discarded rather than rejected.
func (m *Machine) portPPI(port uint16, value byte, isWrite bool) (byte, bool) {
	high := byte(port >> 8)
	if high&0x08 != 0 {
		return 0, false
	}
	switch high & 0x03 {
	case 0:
		if isWrite {
			m.PPI.WriteA(value)
			return 0, true
		}
		return m.PPI.ReadA(), true
	case 1:
		if !isWrite {
			return m.PPI.ReadB(), true
		}
		return 0, true
	case 2:
		if isWrite {
			m.PPI.WriteC(value)
			return 0, true
		}
		return m.PPI.ReadC(), true
	default:
		if isWrite {
			m.PPI.WriteControl(value)
			return 0, true
		}
		return 0xFF, true
	}
}

// Tick debits cycles T-states of CPU time to every device that runs
// off the CPU clock: the CRTC at a quarter rate, the tape deck at
// full rate, and the gate array's IRQ handshake reacting to the
// edges the CRTC reports.
func (m *Machine) Tick(cycles int) {
	m.CPU.SetNMILine(false)

	if m.Tape.Tick(cycles) {
		m.PPI.SetTapeLevel(m.Tape.Level() == tape.LevelHigh)
	}

	m.crtcTStateAcc += cycles
	for m.crtcTStateAcc >= 4 {
		m.crtcTStateAcc -= 4
		edges := m.CRTC.Tick()
		if edges.NewLine {
			m.GateArray.OnHSync()
		}
		if edges.VSyncStart {
			m.GateArray.OnVSync()
		}
		m.PPI.SetVSync(m.CRTC.VSyncActive())
		if edges.FrameEnd {
			m.frameDone = true
		}
	}
}

// RunUntilFrameComplete steps the CPU until a full CRTC frame has
// elapsed, maxCycles T-states have been consumed (0 = unbounded),
// or the debugger interrupts the loop. It returns the exit reason
// and the number of T-states actually executed.
func (m *Machine) RunUntilFrameComplete(maxCycles int) (ExitReason, int) {
	must.Invariant(m.CPU != nil, "machine: RunUntilFrameComplete called before NewMachine finished")

	m.frameDone = false
	spent := 0

	for {
		if m.paused {
			return ExitPaused, spent
		}
		if m.dbg.hit(m.CPU.PC) {
			return ExitBreakpoint, spent
		}

		m.CPU.SetIRQLine(m.GateArray.IRQPending())

		before := m.CPU.Cycles
		m.CPU.Step()
		spent += int(m.CPU.Cycles - before)

		if m.CPU.IRQAcknowledged {
			m.GateArray.AckIRQ()
		}
		if reason, ok := m.dbg.pendingBusExit(); ok {
			return reason, spent
		}

		if m.frameDone {
			m.Autotype.Tick(m.applyAutotypeKey)
			return ExitFrameComplete, spent
		}
		if maxCycles > 0 && spent >= maxCycles {
			if m.CPU.Halted && !m.GateArray.IRQPending() {
				return ExitHalted, spent
			}
			return ExitCycleLimit, spent
		}
	}
}

// StepInto executes exactly one instruction (or one interrupt
// acceptance / HALT idle step) and returns the T-states consumed.
func (m *Machine) StepInto() int {
	m.CPU.SetIRQLine(m.GateArray.IRQPending())
	before := m.CPU.Cycles
	m.CPU.Step()
	if m.CPU.IRQAcknowledged {
		m.GateArray.AckIRQ()
	}
	return int(m.CPU.Cycles - before)
}

// callSize returns the byte length of the CALL/RST instruction op
// encodes, or 0 when op transfers control some other way (or not at
// all) and step-over should degrade to step-into.
func callSize(op byte) int {
	switch {
	case op == 0xCD, op&0xC7 == 0xC4: // CALL nn, CALL cc,nn
		return 3
	case op&0xC7 == 0xC7: // RST p
		return 1
	}
	return 0
}

// StepOver behaves like StepInto except across CALL/RST: it arms an
// ephemeral breakpoint on the following instruction and runs until
// it fires (or any other exit condition gets there first).
func (m *Machine) StepOver(maxCycles int) (ExitReason, int) {
	size := callSize(m.Mem.Read8(m.CPU.PC))
	if size == 0 {
		return ExitBreakpoint, m.StepInto()
	}
	m.dbg.AddBreakpoint(Breakpoint{Addr: m.CPU.PC + uint16(size), Ephemeral: true})
	return m.RunUntilFrameComplete(maxCycles)
}

// StepOut remembers SP at entry and runs until the matching RET has
// popped past it, landing on the return address currently on the
// stack.
func (m *Machine) StepOut(maxCycles int) (ExitReason, int) {
	entrySP := m.CPU.SP
	target := uint16(m.Mem.Read8(entrySP)) | uint16(m.Mem.Read8(entrySP+1))<<8
	m.dbg.AddBreakpoint(Breakpoint{
		Addr:      target,
		Ephemeral: true,
		Condition: func() bool { return m.CPU.SP > entrySP },
	})
	return m.RunUntilFrameComplete(maxCycles)
}

// Pause requests that RunUntilFrameComplete return at the next
// instruction boundary, via a host-pause flag checked each step.
func (m *Machine) Pause()  { m.paused = true }
func (m *Machine) Unpause() { m.paused = false }

// Debugger exposes the machine's breakpoint/watchpoint/IO-breakpoint
// controller to the frontend.
func (m *Machine) Debugger() *Debugger { return m.dbg }

// SnapshotNow captures the machine's entire persisted state.
func (m *Machine) SnapshotNow() *snapshot.Snapshot {
	snap := &snapshot.Snapshot{Version: 3}

	snap.CPU = snapshot.Z80State{
		AF: m.CPU.AF(), BC: m.CPU.BC(), DE: m.CPU.DE(), HL: m.CPU.HL(),
		AFx: m.CPU.AF2(), BCx: m.CPU.BC2(), DEx: m.CPU.DE2(), HLx: m.CPU.HL2(),
		IX: m.CPU.IX, IY: m.CPU.IY, SP: m.CPU.SP, PC: m.CPU.PC,
		I: m.CPU.I, R: m.CPU.R, IFF1: m.CPU.IFF1, IFF2: m.CPU.IFF2,
		IM: m.CPU.IM, Halted: m.CPU.Halted,
	}

	snap.CRTC = snapshot.CRTCState{Type: byte(m.CRTC.Type()), Selected: m.CRTC.Selected()}
	for i := range snap.CRTC.Registers {
		snap.CRTC.Registers[i] = m.CRTC.Register(i)
	}

	ga := m.GateArray.State()
	snap.GateArray = snapshot.GateArrayState{
		PenSelected: ga.Pen, Inks: ga.Inks, Mode: byte(ga.Mode),
		UpperROMEnabled: !ga.UpperROMOff, LowerROMEnabled: !ga.LowerROMOff,
		HSyncCounter: ga.ScanlineCounter, InterruptRequested: ga.IRQPending,
	}

	ppiState := m.PPI.State()
	snap.PPI = snapshot.PPIState{PortA: ppiState.PortA, PortB: ppiState.PortB, PortC: ppiState.PortC}

	regs := m.Engine.Registers()
	for i, v := range regs {
		snap.PSG.Registers[i] = v
	}
	snap.PSG.Selected = m.psgAdapter.Selected()

	snap.RAMConfig = snapshot.RAMConfigState{
		Config:   m.Mem.RAMConfig,
		UpperROM: m.Mem.UpperROMIndex,
		ExtMode:  byte(m.Mem.RAMExtMode),
	}

	mem := make([]byte, len(m.Mem.BaseRAM())+len(m.Mem.ExpansionRAM()))
	n := copy(mem, m.Mem.BaseRAM())
	copy(mem[n:], m.Mem.ExpansionRAM())
	snap.Memory = mem

	return snap
}

// Restore applies a previously captured snapshot, replacing CPU
// registers, CRTC registers and the full RAM contents.
func (m *Machine) Restore(snap *snapshot.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("machine: nil snapshot")
	}
	z := snap.CPU
	m.CPU.SetAF(z.AF)
	m.CPU.SetBC(z.BC)
	m.CPU.SetDE(z.DE)
	m.CPU.SetHL(z.HL)
	m.CPU.SetAF2(z.AFx)
	m.CPU.SetBC2(z.BCx)
	m.CPU.SetDE2(z.DEx)
	m.CPU.SetHL2(z.HLx)
	m.CPU.IX, m.CPU.IY, m.CPU.SP, m.CPU.PC = z.IX, z.IY, z.SP, z.PC
	m.CPU.I, m.CPU.R, m.CPU.IM = z.I, z.R, z.IM
	m.CPU.IFF1, m.CPU.IFF2, m.CPU.Halted = z.IFF1, z.IFF2, z.Halted

	for i, v := range snap.CRTC.Registers {
		m.CRTC.SetRegister(i, v)
	}
	m.CRTC.SelectRegister(snap.CRTC.Selected)

	m.GateArray.Restore(gatearray.State{
		Pen: snap.GateArray.PenSelected, Inks: snap.GateArray.Inks,
		Mode: gatearray.Mode(snap.GateArray.Mode),
		LowerROMOff: !snap.GateArray.LowerROMEnabled, UpperROMOff: !snap.GateArray.UpperROMEnabled,
		ScanlineCounter: snap.GateArray.HSyncCounter, IRQPending: snap.GateArray.InterruptRequested,
	})

	m.PPI.Restore(ppi.State{PortA: snap.PPI.PortA, PortB: snap.PPI.PortB, PortC: snap.PPI.PortC})

	var regs [psg.PSG_REG_COUNT]byte
	copy(regs[:], snap.PSG.Registers[:])
	m.Engine.LoadRegisters(regs)
	m.psgAdapter.SelectRegister(snap.PSG.Selected)

	m.Mem.RAMConfig = snap.RAMConfig.Config
	m.Mem.UpperROMIndex = snap.RAMConfig.UpperROM
	m.Mem.RAMExtMode = memmap.RAMExtMode(snap.RAMConfig.ExtMode)

	base := m.Mem.BaseRAM()
	n := copy(base, snap.Memory)
	copy(m.Mem.ExpansionRAM(), snap.Memory[n:])
	m.Mem.Reconfigure()

	return nil
}

// PrinterOutput returns every byte sent to the printer port since
// the machine was created (or last drained), bit 7 already inverted
// to match the printer-status port's polarity.
func (m *Machine) PrinterOutput() []byte {
	out := m.printerLog
	m.printerLog = nil
	return out
}
