// stubs.go - Registration-only peripherals.
//
// These devices exist here only as dispatch-table registrants claiming their
// documented port ranges and returning neutral values, so software
// that probes for them sees "not present" rather than a bus error.
// Each stub's Enabled() defaults false — the host can flip it on to
// claim the port range without implementing the device behind it.
package peripherals

import "github.com/cpcdevtools/cpcore/internal/iodispatch"

// AmDrum is an 8-bit DAC sampler cartridge. Port 0xFFxx OUT latches
// the sample value; this stub just records it.
type AmDrum struct {
	enabled  bool
	DacValue byte
}

func NewAmDrum() *AmDrum { return &AmDrum{DacValue: 128} }

func (a *AmDrum) SetEnabled(on bool) { a.enabled = on }
func (a *AmDrum) Enabled() bool      { return a.enabled }
func (a *AmDrum) Name() string       { return "AmDrum" }

func (a *AmDrum) Out(port uint16, value byte) bool {
	a.DacValue = value
	return true
}

// Phazer is a light-gun peripheral (Amstrad Magnum Phaser / Trojan
// Light Phazer). Registers OUT on port 0xFB; when port low byte is
// 0xFE and the gun isn't currently pressed against the screen, real
// hardware free-runs CRTC register 17 as the beam sweeps past — this
// stub exposes that as an optional callback rather than reaching
// into a CRTC instance directly.
type Phazer struct {
	enabled  bool
	Pressed  bool
	OnUnpressedStrobe func()
}

func NewPhazer() *Phazer { return &Phazer{} }

func (p *Phazer) SetEnabled(on bool) { p.enabled = on }
func (p *Phazer) Enabled() bool      { return p.enabled }
func (p *Phazer) Name() string       { return "Magnum Phazer" }

func (p *Phazer) Out(port uint16, value byte) bool {
	if byte(port) != 0xFE {
		return false
	}
	if !p.Pressed && p.OnUnpressedStrobe != nil {
		p.OnUnpressedStrobe()
	}
	return true
}

// SmartWatch is a DS1216-pattern phantom RTC that intercepts lower-ROM
// reads (a magic 64-bit pattern written byte-by-byte over successive
// reads arms it, then subsequent reads return BCD time-of-day bits
// instead of ROM content). This stub claims no actual port — it is a
// phantom ROM-read intercept — and simply reports absent.
type SmartWatch struct {
	enabled bool
}

func NewSmartWatch() *SmartWatch { return &SmartWatch{} }

func (s *SmartWatch) SetEnabled(on bool) { s.enabled = on }
func (s *SmartWatch) Enabled() bool      { return s.enabled }

// InterceptROMRead returns (romByte, false) unmodified: this stub
// never arms the watch pattern, so lower ROM reads pass through as
// if the device weren't fitted.
func (s *SmartWatch) InterceptROMRead(addr uint16, romByte byte) (byte, bool) {
	return romByte, false
}

// Symbiface is an IDE/ATA + real-time-clock expansion at &FD00-&FD3F
// plus an auxiliary mouse/joystick pair at &FBEE/&FBEF. This stub
// claims the low 64-byte IDE register window and returns 0xFF (no
// drive present).
type Symbiface struct {
	enabled bool
}

func NewSymbiface() *Symbiface { return &Symbiface{} }

func (s *Symbiface) SetEnabled(on bool) { s.enabled = on }
func (s *Symbiface) Enabled() bool      { return s.enabled }
func (s *Symbiface) Name() string       { return "Symbiface" }

func (s *Symbiface) In(port uint16) (byte, bool) {
	low := byte(port)
	if low < 0x00 || low > 0x3F {
		return 0, false
	}
	return 0xFF, true
}

func (s *Symbiface) Out(port uint16, value byte) bool {
	low := byte(port)
	return low <= 0x3F
}

// M4 is the wifi/filesystem expansion board: command port &FE00,
// response/data port &FC00 carry a small RSX-callable protocol
// (C_OPEN, C_READ, C_WRITE, ...); this stub
// acknowledges every command with M4_ERROR (0xFF) so firmware that
// probes for the board concludes it isn't fitted.
type M4 struct {
	enabled bool
}

const m4ErrorStatus = 0xFF

func NewM4() *M4 { return &M4{} }

func (m *M4) SetEnabled(on bool) { m.enabled = on }
func (m *M4) Enabled() bool      { return m.enabled }
func (m *M4) Name() string       { return "M4 Board" }

func (m *M4) In(port uint16) (byte, bool) {
	return m4ErrorStatus, true
}

func (m *M4) Out(port uint16, value byte) bool {
	return true
}

var (
	_ iodispatch.OutHandler = (*AmDrum)(nil)
	_ iodispatch.OutHandler = (*Phazer)(nil)
	_ iodispatch.InHandler  = (*Symbiface)(nil)
	_ iodispatch.OutHandler = (*Symbiface)(nil)
	_ iodispatch.InHandler  = (*M4)(nil)
	_ iodispatch.OutHandler = (*M4)(nil)
)
