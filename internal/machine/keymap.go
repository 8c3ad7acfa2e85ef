// keymap.go - autotype.Key to keyboard-matrix (row, col) translation.
//
// autotype.Key's numeric ordinals are private to internal/autotype
// (declared via iota) and documented there as "arbitrary and stable
// only within this package; internal/machine's keyboard matrix owns
// the real row/column map and translates these via its own lookup."
// This file is that lookup.
//
// The row/col assignment below is this core's own invention, not a
// reproduction of the real CPC keyboard's physical wiring (the
// original loads its layout from external keymap files) — see
// DESIGN.md. Two constraints are honoured: row 9 belongs to the
// joystick port exclusively, and shifted letters reuse their base
// letter's matrix slot while additionally holding the shift key,
// since a real keyboard has one physical key per letter regardless
// of case.
package machine

import "github.com/cpcdevtools/cpcore/internal/autotype"

type matrixPos struct {
	row, col byte
}

// shiftLetterOffset is keyShiftA's ordinal minus keyA's (the 26-key
// keyA..keyZ run immediately precedes keyShiftA in keys.go's
// declaration order).
const shiftLetterOffset = 26

// keyLShiftOrdinal is keyLShift's ordinal in internal/autotype/keys.go.
const keyLShiftOrdinal = 8

// shiftLetterLow/High bound the keyShiftA..keyShiftZ ordinal range
// per keys.go's declaration order: 36 named keys, then keyA..keyZ
// (37-62), then keyShiftA..keyShiftZ.
const (
	shiftLetterLow  = 63
	shiftLetterHigh = 88
)

// joyLow/joyHigh bound the keyJ0Up..keyJ0Fire2 ordinal range, pinned
// to matrix row 9 (the joystick port).
const (
	joyLow     = 25
	joyHigh    = 30
	joyRow     = 9
	numMatrixRows = 16
)

// joyCol[ordinal-joyLow] is the row-9 column for each joystick line:
// up, down, left, right, fire1, fire2. Fire2 shares bit 4 with the
// AMX mouse's left button.
var joyCol = [6]byte{0, 1, 2, 3, 5, 4}

const maxKeyOrdinal = 128

var ordinalSlot [maxKeyOrdinal + 1]matrixPos

// nonShiftOrdinals lists every ordinal in keys.go's declaration
// order except the keyShiftA..keyShiftZ run (derived from the base
// letter at lookup time) and the joystick-0 run (pinned to row 9).
var nonShiftOrdinals = buildNonShiftOrdinals()

func buildNonShiftOrdinals() []int {
	var out []int
	for o := 1; o <= maxKeyOrdinal; o++ {
		if o >= shiftLetterLow && o <= shiftLetterHigh {
			continue
		}
		if o >= joyLow && o <= joyHigh {
			continue
		}
		out = append(out, o)
	}
	return out
}

func init() {
	slot := 0
	for _, o := range nonShiftOrdinals {
		row := byte(slot / 8)
		if row >= joyRow {
			row++ // row 9 is the joystick's
		}
		ordinalSlot[o] = matrixPos{row: row % numMatrixRows, col: byte(slot % 8)}
		slot++
	}
	for o := joyLow; o <= joyHigh; o++ {
		ordinalSlot[o] = matrixPos{row: joyRow, col: joyCol[o-joyLow]}
	}
}

// lookupKeyPos resolves key to the matrix slot it drives, and
// reports whether the press/release must also touch the Shift key
// (true for keyShiftA..keyShiftZ).
func lookupKeyPos(key autotype.Key) (pos matrixPos, withShift bool) {
	ord := int(key)
	if ord >= shiftLetterLow && ord <= shiftLetterHigh {
		return ordinalSlot[ord-shiftLetterOffset], true
	}
	if ord < 0 || ord > maxKeyOrdinal {
		return matrixPos{}, false
	}
	return ordinalSlot[ord], false
}

// applyAutotypeKey is the callback passed to autotype.Queue.Tick: it
// presses or releases the matrix slot for key, holding Shift open
// across the same span for a shifted letter.
func (m *Machine) applyAutotypeKey(key autotype.Key, pressed bool) {
	pos, withShift := lookupKeyPos(key)
	shiftPos := ordinalSlot[keyLShiftOrdinal]
	if pressed {
		if withShift {
			m.Matrix.Press(shiftPos.row, shiftPos.col)
		}
		m.Matrix.Press(pos.row, pos.col)
	} else {
		m.Matrix.Release(pos.row, pos.col)
		if withShift {
			m.Matrix.Release(shiftPos.row, shiftPos.col)
		}
	}
}
