// Package compose renders the CPC's screen RAM into an RGBA buffer for
// cmd/cpcore/video. Palette rendering is explicitly outside the core's
// own scope (see internal/gatearray); this is the external GUI
// collaborator that consumes GateArray.Pen/Ink/Palette to build pixels.
//
// This is a fixed-geometry composer: it always reads from the
// conventional &C000 screen base at 80 bytes/line, ignoring CRTC
// R12/R13 (start address) and hardware split-screen/scroll tricks. A
// cycle-accurate composer would track the CRTC's own memory-address
// counter per character clock; that belongs to a full raster-accurate
// renderer, not this frontend's frame-at-a-time blit.
package compose

import (
	"github.com/cpcdevtools/cpcore/internal/gatearray"
	"github.com/cpcdevtools/cpcore/internal/memmap"
)

const (
	screenBase      = 0xC000
	bytesPerLine    = 80
	lineGroupStride = 0x0800
	lines           = 200

	// Width is the fixed composed frame width: mode 2's native
	// resolution, which modes 0 and 1 are pixel-doubled/quadrupled up
	// to, so every mode fills the same buffer size.
	Width  = 640
	Height = lines
)

// Frame renders one RGBA frame (4 bytes/pixel, row-major) from mem's
// screen RAM as the gate array's currently selected mode and palette
// would display it.
func Frame(mem *memmap.Map, ga *gatearray.GateArray) []byte {
	buf := make([]byte, Width*Height*4)
	palArr := ga.Palette()
	pal := palArr[:]
	mode := ga.ScreenMode()

	for row := 0; row < lines; row++ {
		base := screenBase + (row/8)*bytesPerLine + (row%8)*lineGroupStride
		for col := 0; col < bytesPerLine; col++ {
			b := mem.Read8(uint16(base + col))
			pens := decodePixels(mode, b)
			writePixels(buf, row, col, mode, pens, pal)
		}
	}
	return buf
}

// decodePixels splits one screen byte into the pen indices it encodes,
// per the gate array's documented per-mode bit interleave.
func decodePixels(mode gatearray.Mode, b byte) []byte {
	bit := func(n uint) byte { return (b >> n) & 1 }
	switch mode {
	case 0:
		return []byte{
			bit(7) | bit(3)<<1 | bit(5)<<2 | bit(1)<<3,
			bit(6) | bit(2)<<1 | bit(4)<<2 | bit(0)<<3,
		}
	case 1:
		return []byte{
			bit(7) | bit(3)<<1,
			bit(6) | bit(2)<<1,
			bit(5) | bit(1)<<1,
			bit(4) | bit(0)<<1,
		}
	default: // mode 2 and the undocumented mode 3 alias
		return []byte{bit(7), bit(6), bit(5), bit(4), bit(3), bit(2), bit(1), bit(0)}
	}
}

// writePixels expands one byte's decoded pens to full-width output
// pixels: mode 2 writes one pixel each, mode 1 doubles, mode 0
// quadruples, so every mode fills the same 640-wide row.
func writePixels(buf []byte, row, col int, mode gatearray.Mode, pens []byte, pal [][3]byte) {
	widthPerPen := Width / bytesPerLine / len(pens)
	x0 := col * (Width / bytesPerLine)
	for i, pen := range pens {
		rgb := pal[pen]
		for dx := 0; dx < widthPerPen; dx++ {
			x := x0 + i*widthPerPen + dx
			off := (row*Width + x) * 4
			buf[off+0] = rgb[0]
			buf[off+1] = rgb[1]
			buf[off+2] = rgb[2]
			buf[off+3] = 0xFF
		}
	}
}
