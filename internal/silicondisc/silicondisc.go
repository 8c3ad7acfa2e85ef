// silicondisc.go - battery-backed 256 KiB RAM disc: a flat buffer
// saved/loaded with a tiny fixed header. It is backed by the same
// expansion RAM banks 4-7 that RAM_config/RAM_ext can already select
// (memmap.Map.ExpansionRAM) rather than a second independent
// allocation, since the silicon disc occupies those banks rather
// than owning separate storage.
package silicondisc

import (
	"fmt"
	"os"
)

const (
	// Size is the fixed silicon-disc capacity: expansion banks 4-7,
	// 4 x 64 KiB.
	Size = 256 * 1024

	headerMagic   = "KSDX"
	headerVersion = 1
	headerSize    = 8
)

// Disc is a view onto the 256 KiB of expansion RAM the gate array's
// bankMapTable reaches via banks 4-7 (RAM_config values 2 and 4-7).
type Disc struct {
	backing []byte // caller-owned slice, len >= offset+Size
	offset  int
}

// New wraps the 256 KiB region of backing starting at offset. backing
// is typically memmap.Map.ExpansionRAM(); it is not copied.
func New(backing []byte, offset int) (*Disc, error) {
	if offset < 0 || offset+Size > len(backing) {
		return nil, fmt.Errorf("silicondisc: backing slice too small (need %d bytes at offset %d, have %d)", Size, offset, len(backing))
	}
	return &Disc{backing: backing, offset: offset}, nil
}

func (d *Disc) bytes() []byte { return d.backing[d.offset : d.offset+Size] }

// Clear zeroes the entire disc.
func (d *Disc) Clear() {
	b := d.bytes()
	for i := range b {
		b[i] = 0
	}
}

// Save writes the disc to path as "KSDX" + version byte + 3
// reserved bytes + the 256 KiB payload.
func (d *Disc) Save(path string) error {
	header := [headerSize]byte{'K', 'S', 'D', 'X', headerVersion, 0, 0, 0}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("silicondisc: create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(header[:]); err != nil {
		return fmt.Errorf("silicondisc: write header: %w", err)
	}
	if _, err := f.Write(d.bytes()); err != nil {
		return fmt.Errorf("silicondisc: write payload: %w", err)
	}
	return nil
}

// Load reads path into the disc. The header's magic is checked; the
// version byte is accepted but not otherwise interpreted, so newer
// writers remain readable.
func (d *Disc) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("silicondisc: read %s: %w", path, err)
	}
	if len(data) < headerSize+Size {
		return fmt.Errorf("silicondisc: %s too short (want %d bytes, have %d)", path, headerSize+Size, len(data))
	}
	if string(data[:4]) != headerMagic {
		return fmt.Errorf("silicondisc: %s: bad magic %q", path, data[:4])
	}
	copy(d.bytes(), data[headerSize:headerSize+Size])
	return nil
}
