// ppi.go - Intel 8255 Programmable Peripheral Interface.
//
// Port A is wired to the PSG's data bus, port B carries the tape
// input level, printer-busy, jumpers and CRTC VSYNC lines, and port
// C carries the keyboard-line selector plus the PSG control and
// tape-motor bits. The PPI itself knows nothing about the keyboard
// matrix's contents: it asks its KeyMatrix for the selected row and
// lets registered hooks AND a mask into the result, mirroring the
// core-hooks contract of the dispatch layer this package plugs into.

package ppi

// PSGPort is the register select/write/read front-end the PPI's port-A
// multiplexing needs; EngineAdapter (psg_adapter.go) implements it
// over a psg.PSGEngine.
type PSGPort interface {
	SelectRegister(index byte)
	WriteRegister(val byte)
	ReadRegister() byte
}

// KeyMatrix supplies the raw active-low byte for a keyboard row.
type KeyMatrix interface {
	ReadRow(row byte) byte
}

// PSG control states, port C bits 7 (BDIR) and 6 (BC1).
const (
	psgModeInactive = 0
	psgModeRead     = 1
	psgModeWrite    = 2
	psgModeSelect   = 3
)

// PPI is one Intel 8255.
type PPI struct {
	psg    PSGPort
	keys   KeyMatrix
	hooks  KeyboardReadHooks

	portA byte
	portB byte
	portC byte

	// control register bits split out for readability
	portAInput bool
	portCUpperInput bool

	vsync       bool
	tapeLevel   bool
	printerBusy bool
	jumpers     byte // bits 1-5

	lineHook func(row byte)
	motorHook func(on bool)
}

// KeyboardReadHooks composes an AND-mask over the PPI's raw row
// read, the same contract internal/iodispatch's core hooks use.
type KeyboardReadHooks interface {
	FireKeyboardReadHooks(row byte, raw byte) byte
}

// New builds a PPI wired to psg (port A mux target) and keys (the
// keyboard matrix selected by port C's low nibble).
func New(psgPort PSGPort, keys KeyMatrix) *PPI {
	return &PPI{psg: psgPort, keys: keys, jumpers: 0x3E}
}

// SetKeyboardReadHooks installs the hook-set consulted after the PPI
// composes a raw row value.
func (p *PPI) SetKeyboardReadHooks(h KeyboardReadHooks) { p.hooks = h }

// SetKeyboardLineHook fires whenever port C's low nibble (the
// selected keyboard row) changes.
func (p *PPI) SetKeyboardLineHook(fn func(row byte)) { p.lineHook = fn }

// SetTapeMotorHook fires whenever port C's upper nibble changes the
// tape-motor bit.
func (p *PPI) SetTapeMotorHook(fn func(on bool)) { p.motorHook = fn }

// SetTapeLevel feeds the tape input level into port B bit 7.
func (p *PPI) SetTapeLevel(level bool) { p.tapeLevel = level }

// SetPrinterBusy feeds the printer-busy line into port B bit 6.
func (p *PPI) SetPrinterBusy(busy bool) { p.printerBusy = busy }

// SetVSync feeds the CRTC's current VSYNC state into port B bit 0.
func (p *PPI) SetVSync(active bool) { p.vsync = active }

func (p *PPI) selectedRow() byte { return p.portC & 0x0F }

func (p *PPI) psgControlMode() byte { return (p.portC >> 6) & 0x03 }

// ReadA reads port A: either the raw latch, or (when the PSG is in
// data-read mode) the currently selected PSG register.
func (p *PPI) ReadA() byte {
	if p.psgControlMode() == psgModeRead {
		return p.psg.ReadRegister()
	}
	return p.portA
}

// WriteA writes port A, forwarding to the PSG when its control lines
// are in the select or data-write state.
func (p *PPI) WriteA(val byte) {
	p.portA = val
	p.applyPSGControl()
}

// applyPSGControl performs the PSG bus operation the current control
// state calls for, using the port A latch as the data value. Fired
// both on port A writes and on PSG control-bit changes, matching the
// chip's level-triggered BDIR/BC1 lines.
func (p *PPI) applyPSGControl() {
	switch p.psgControlMode() {
	case psgModeSelect:
		p.psg.SelectRegister(p.portA)
	case psgModeWrite:
		p.psg.WriteRegister(p.portA)
	}
}

// ReadB composes the tape/printer/jumpers/VSYNC byte.
func (p *PPI) ReadB() byte {
	var b byte
	if p.tapeLevel {
		b |= 1 << 7
	}
	if p.printerBusy {
		b |= 1 << 6
	}
	b |= p.jumpers & 0x3E
	if p.vsync {
		b |= 1 << 0
	}
	return b
}

// ReadC returns the port C latch as last written/reset.
func (p *PPI) ReadC() byte { return p.portC }

// WriteC writes the whole port C latch at once (an OUT to the port C
// address, or a snapshot restore); WriteControl's bit-set/clear path
// changes one bit at a time.
func (p *PPI) WriteC(val byte) {
	old := p.portC
	p.portC = val
	p.onPortCChanged(old, val)
}

// WriteControl handles the 8255 control-register write: bit 7 set
// resets all ports; otherwise the low nibble bit-sets or clears one
// bit of port C.
func (p *PPI) WriteControl(val byte) {
	if val&0x80 != 0 {
		p.portA, p.portB, p.portC = 0, 0, 0
		return
	}
	bit := (val >> 1) & 0x07
	old := p.portC
	if val&0x01 != 0 {
		p.portC |= 1 << bit
	} else {
		p.portC &^= 1 << bit
	}
	p.onPortCChanged(old, p.portC)
}

func (p *PPI) onPortCChanged(old, new byte) {
	if old&0x0F != new&0x0F {
		if p.lineHook != nil {
			p.lineHook(new & 0x0F)
		}
	}
	if old&0xF0 != new&0xF0 {
		if p.motorHook != nil && old&0x10 != new&0x10 {
			p.motorHook(new&0x10 != 0)
		}
		if old&0xC0 != new&0xC0 {
			p.applyPSGControl()
		}
	}
}

// State is the 8255's port latches, for save-state export. There is
// no separate persisted "control register" value: on real hardware
// the control register only ever drives bit-set/clear side effects
// on port C, which PortC already reflects.
type State struct {
	PortA, PortB, PortC byte
}

// State captures the PPI's current port latches.
func (p *PPI) State() State { return State{PortA: p.portA, PortB: p.portB, PortC: p.portC} }

// Restore replaces the PPI's port latches with s, firing the same
// line/motor hooks a live port C write would (so the keyboard matrix
// and tape motor state resynchronise to the restored selection).
func (p *PPI) Restore(s State) {
	p.portA, p.portB = s.PortA, s.PortB
	p.WriteC(s.PortC)
}

// ReadSelectedRow composes the active-low byte for the keyboard row
// port C currently selects, post-processed by any registered
// keyboard-read hooks.
func (p *PPI) ReadSelectedRow() byte {
	row := p.selectedRow()
	raw := p.keys.ReadRow(row)
	if p.hooks != nil {
		raw &= p.hooks.FireKeyboardReadHooks(row, raw)
	}
	return raw
}
