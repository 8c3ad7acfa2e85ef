// psg_adapter.go - Adapts psg.PSGEngine's register interface to the
// select-then-read/write contract port A's PSG mux actually uses on
// real hardware, including the AY-3-8912's I/O port A (register 14),
// which the CPC board wires to the keyboard matrix.

package ppi

import "github.com/cpcdevtools/cpcore/internal/psg"

const (
	regIOPortA = 14
	regMixer   = 7
)

// EngineAdapter wraps a *psg.PSGEngine as a PSGPort. Registers 0-13
// go to the engine; register 14 is the chip's I/O port A, read from
// the keyboard matrix when the mixer register configures it as input.
type EngineAdapter struct {
	engine   *psg.PSGEngine
	selected uint8
	ioLatchA byte

	portARead func() byte
}

// NewEngineAdapter returns a PSGPort backed by engine.
func NewEngineAdapter(engine *psg.PSGEngine) *EngineAdapter {
	return &EngineAdapter{engine: engine, ioLatchA: 0xFF}
}

// SetPortARead installs the external reader for I/O port A. On the
// CPC this is the PPI's selected keyboard row.
func (a *EngineAdapter) SetPortARead(fn func() byte) { a.portARead = fn }

// SelectRegister latches the register index for subsequent data
// reads/writes. The AY's address latch is 4 bits wide.
func (a *EngineAdapter) SelectRegister(index byte) { a.selected = index & 0x0F }

// Selected returns the currently latched register index, for
// save-state export.
func (a *EngineAdapter) Selected() byte { return a.selected }

// Engine exposes the wrapped PSGEngine so callers that need register
// access beyond the select-then-read/write contract (snapshotting,
// the regstream recorder) can reach it directly.
func (a *EngineAdapter) Engine() *psg.PSGEngine { return a.engine }

func (a *EngineAdapter) WriteRegister(val byte) {
	if a.selected == regIOPortA {
		a.ioLatchA = val
		return
	}
	a.engine.WriteRegister(a.selected, val)
}

func (a *EngineAdapter) ReadRegister() byte {
	switch {
	case a.selected == regIOPortA:
		// Mixer bit 6 sets port A to output; input mode reads the
		// external lines (the keyboard row on the CPC).
		output := a.engine.Registers()[regMixer]&0x40 != 0
		if !output && a.portARead != nil {
			return a.portARead()
		}
		return a.ioLatchA
	case a.selected > regIOPortA:
		// The 8912 has no I/O port B; its register reads float high.
		return 0xFF
	default:
		return byte(a.engine.HandleRead(psg.PSG_BASE + uint32(a.selected)))
	}
}
