// amxmouse.go - AMX/Kempston-style mouse wired onto keyboard row 9.
//
// Host motion accumulates in
// floating point so fractional pixels aren't lost, whole-pixel steps
// move signed "mickey" counters, and row 9 of the keyboard matrix
// reports direction/button bits from those counters instead of real
// keys. Selecting row 9 after having been on another row consumes
// one mickey per nonzero axis, the same edge-triggered read amx
// mice actually used to avoid reporting stale motion forever.
package peripherals

import "github.com/cpcdevtools/cpcore/internal/iodispatch"

const amxRow = 9

// AMXMouse implements iodispatch.KeyboardReadHook and
// iodispatch.NotifyHook (as a keyboard-line-select hook).
type AMXMouse struct {
	enabled bool

	accumX, accumY float64
	mickeyX, mickeyY int

	buttons byte // bit0 left, bit1 middle, bit2 right

	row9Selected     bool
	row9WasDeselected bool
}

// NewAMXMouse returns a disabled mouse; call SetEnabled(true) once
// the host config selects it as the active pointing device.
func NewAMXMouse() *AMXMouse { return &AMXMouse{} }

// SetEnabled toggles whether this device's hooks take effect.
func (m *AMXMouse) SetEnabled(on bool) { m.enabled = on }

// Enabled reports the hook-applicability flag (iodispatch contract).
func (m *AMXMouse) Enabled() bool { return m.enabled }

// Update feeds one host motion sample (sub-pixel dx/dy) and the
// current button mask into the accumulator.
func (m *AMXMouse) Update(dx, dy float64, buttons byte) {
	m.accumX += dx
	m.accumY += dy

	wholeX := int(m.accumX)
	wholeY := int(m.accumY)
	if wholeX != 0 {
		m.mickeyX += wholeX
		m.accumX -= float64(wholeX)
	}
	if wholeY != 0 {
		m.mickeyY += wholeY
		m.accumY -= float64(wholeY)
	}
	m.buttons = buttons
}

// Reset clears all accumulated motion, button, and row-select state.
func (m *AMXMouse) Reset() {
	m.accumX, m.accumY = 0, 0
	m.mickeyX, m.mickeyY = 0, 0
	m.buttons = 0
	m.row9Selected = false
	m.row9WasDeselected = false
}

// Notify implements iodispatch.NotifyHook for keyboard-line select.
func (m *AMXMouse) Notify(line int) {
	nowRow9 := line == amxRow
	if !nowRow9 && m.row9Selected {
		m.row9WasDeselected = true
	}
	if nowRow9 && m.row9WasDeselected {
		switch {
		case m.mickeyX > 0:
			m.mickeyX--
		case m.mickeyX < 0:
			m.mickeyX++
		}
		switch {
		case m.mickeyY > 0:
			m.mickeyY--
		case m.mickeyY < 0:
			m.mickeyY++
		}
		m.row9WasDeselected = false
	}
	m.row9Selected = nowRow9
}

func (m *AMXMouse) row9Value() byte {
	val := byte(0xFF)
	if m.mickeyY < 0 {
		val &^= 0x01 // up
	}
	if m.mickeyY > 0 {
		val &^= 0x02 // down
	}
	if m.mickeyX < 0 {
		val &^= 0x04 // left
	}
	if m.mickeyX > 0 {
		val &^= 0x08 // right
	}
	if m.buttons&0x01 != 0 {
		val &^= 0x10 // left -> fire2
	}
	if m.buttons&0x04 != 0 {
		val &^= 0x20 // right -> fire1
	}
	if m.buttons&0x02 != 0 {
		val &^= 0x40 // middle -> fire3
	}
	return val
}

// ReadMask implements iodispatch.KeyboardReadHook: row 9 reports
// motion/button state, every other row is left untouched.
func (m *AMXMouse) ReadMask(line int) byte {
	if line == amxRow {
		return m.row9Value()
	}
	return 0xFF
}

var (
	_ iodispatch.KeyboardReadHook = (*AMXMouse)(nil)
	_ iodispatch.NotifyHook       = (*AMXMouse)(nil)
)
