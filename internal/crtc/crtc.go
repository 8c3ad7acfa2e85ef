// crtc.go - Motorola 6845-family CRT controller.
//
// CRTC models the 18-register scan state machine that drives the
// gate array's video and interrupt timing. It has no framebuffer of
// its own: Tick just advances char_count/raster_count/line_count and
// reports line-rollover/row-rollover/VSYNC edges for the caller
// (gatearray.GateArray) to act on.

package crtc

// Type identifies one of the four documented 6845-family variants.
// Register readability and a handful of sync-width defaults depend
// on it; it is a required configuration field and is never inferred
// at runtime, since the known readability table is incomplete for
// some types and guessing wrong would silently corrupt games that
// probe it to detect CRTC flavour.
type Type int

const (
	TypeHD6845S  Type = 0
	TypeUM6845R  Type = 1
	TypeMC6845   Type = 2
	TypeAMS40489 Type = 3 // ASIC inside the 6128+
)

const numRegisters = 18

// readable[t] has bit i set when register i is readable on type t.
// Unreadable registers return 0 on read.
var readable = [4]uint32{
	TypeHD6845S:  0x3F << 12, // R12-R17
	TypeUM6845R:  0x0F << 14, // R14-R17 only; R12/R13 write-only
	TypeMC6845:   0x0F << 14, // R14-R17
	TypeAMS40489: 0x3F << 12, // R12-R17
}

// CRTC is one Motorola 6845-family controller instance.
type CRTC struct {
	kind Type

	regs         [numRegisters]byte
	selected     byte // currently selected register index (port &BCxx)
	charCount    byte
	rasterCount  byte
	lineCount    byte
	r7match      bool // latch for R7 line-count match edge detection
	vsyncActive  bool
	vsyncLines   byte // lines of VSYNC left to assert
	vblankActive bool
	vtaPending   bool
	vtaCount     byte
}

// New builds a CRTC of the given type with all registers zeroed.
func New(kind Type) *CRTC {
	return &CRTC{kind: kind}
}

// Type reports the configured CRTC variant.
func (c *CRTC) Type() Type { return c.kind }

// SelectRegister latches the register index for the next data
// read/write (port &BCxx, the low 5 bits of the written value).
func (c *CRTC) SelectRegister(index byte) {
	c.selected = index & 0x1F
}

// WriteData writes val into the currently selected register (port &BDxx).
func (c *CRTC) WriteData(val byte) {
	if c.selected >= numRegisters {
		return
	}
	c.regs[c.selected] = val
}

// ReadData reads the currently selected register (port &BFxx),
// returning 0 if it is unreadable on this CRTC type.
func (c *CRTC) ReadData() byte {
	if c.selected >= numRegisters {
		if c.kind == TypeUM6845R && c.selected == 31 {
			return 0xFF
		}
		return 0
	}
	if readable[c.kind]&(1<<uint(c.selected)) == 0 {
		return 0
	}
	return c.regs[c.selected]
}

// ReadStatus services the type-1 status read on port &BExx: bit 5
// is vblank-active, bit 6 is the (always-clear) lightpen strobe. On
// every other type the status port reads 0xFF (UM6845R's behaviour
// for R31 generalised: only type 1 documents a real status byte).
func (c *CRTC) ReadStatus() byte {
	if c.kind != TypeUM6845R {
		return 0xFF
	}
	var s byte
	if c.vblankActive {
		s |= 1 << 5
	}
	return s
}

// Register returns register i's raw latched value regardless of
// readability, for snapshot save/restore and the debugger.
func (c *CRTC) Register(i int) byte {
	if i < 0 || i >= numRegisters {
		return 0
	}
	return c.regs[i]
}

// SetRegister force-loads register i, for snapshot restore.
func (c *CRTC) SetRegister(i int, val byte) {
	if i < 0 || i >= numRegisters {
		return
	}
	c.regs[i] = val
}

// Selected returns the currently addressed register index.
func (c *CRTC) Selected() byte { return c.selected }

// Edges reports the state transitions produced by one Tick call, so
// the gate array can react (interrupt scan-line counter, VSYNC
// delay, frame completion) without CRTC importing gatearray.
type Edges struct {
	NewLine      bool // flag_reschar: char_count wrapped at R0
	NewRow       bool // flag_resscan: raster_count wrapped at R9, line_count advanced
	VSyncStart   bool // line_count == R7, rising edge
	DisplayEnd   bool // line_count == R6
	FrameEnd     bool // vertical total (R4/R5) satisfied, frame restarts
}

// Tick advances the scan state machine by one character clock (1us).
func (c *CRTC) Tick() Edges {
	var e Edges

	r0, r4, r5, r6, r7, r9 := c.regs[0], c.regs[4], c.regs[5], c.regs[6], c.regs[7], c.regs[9]

	c.charCount++
	if c.charCount > r0 {
		c.charCount = 0
		e.NewLine = true
	}

	if e.NewLine {
		if c.vsyncActive {
			c.vsyncLines--
			if c.vsyncLines == 0 {
				c.vsyncActive = false
			}
		}

		if c.rasterCount >= r9 {
			c.rasterCount = 0
			c.lineCount++
			e.NewRow = true
		} else {
			c.rasterCount++
		}

		if c.lineCount == r6 {
			e.DisplayEnd = true
		}

		if c.lineCount == r7 {
			if !c.r7match {
				e.VSyncStart = true
				c.vsyncActive = true
				c.vsyncLines = c.vsyncWidth()
				c.vblankActive = true
			}
			c.r7match = true
		} else {
			c.r7match = false
		}

		if c.lineCount == r4 && c.rasterCount == r9 {
			if r5 > 0 {
				c.vtaPending = true
				c.vtaCount = 0
			} else {
				c.endFrame(&e)
			}
		}

		if c.vtaPending {
			c.vtaCount++
			if c.vtaCount >= r5 {
				c.vtaPending = false
				c.endFrame(&e)
			}
		}
	}

	return e
}

// vsyncWidth resolves R3's high nibble per CRTC type: types 1 and 2
// hard-wire 16 lines; on types 0 and 3 a zero nibble also means 16.
func (c *CRTC) vsyncWidth() byte {
	if c.kind == TypeUM6845R || c.kind == TypeMC6845 {
		return 16
	}
	w := c.regs[3] >> 4
	if w == 0 {
		return 16
	}
	return w
}

func (c *CRTC) endFrame(e *Edges) {
	c.lineCount = 0
	c.rasterCount = 0
	c.vsyncActive = false
	c.vsyncLines = 0
	c.vblankActive = false
	c.r7match = false
	e.FrameEnd = true
}

// VSyncActive reports whether the controller currently asserts VSYNC.
func (c *CRTC) VSyncActive() bool { return c.vsyncActive }

// VBlankActive reports whether the controller is within its vertical
// blanking interval (set at VSYNC start, cleared at frame end).
func (c *CRTC) VBlankActive() bool { return c.vblankActive }
