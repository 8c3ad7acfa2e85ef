// dsk.go - CPCEMU/Extended DSK disc image store.
//
// A Drive owns one or two sides of up to 42 tracks, each a slice of
// Sectors identified by their CHRN. Load/Save round-trip both the
// standard "MV - CPCEMU Disk-File" format (one fixed track size) and
// the "EXTENDED CPC DSK File" format (one byte-size table entry per
// track, tolerating weak/copy-protected discs with non-uniform
// sector counts). Blank() lays down blank, correctly-skewed tracks
// for internal/cpm to write a directory onto, keeping "make blank
// media" and "write an empty CP/M directory onto it" as separate
// steps.

package dsk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrSectorNotFound is returned by SectorRead/SectorWrite when no
// sector on the given track/side carries the requested ID.
var ErrSectorNotFound = errors.New("dsk: sector not found")

const (
	stdSignature = "MV - CPCEMU Disk-File\r\nDisk-Info\r\n"
	extSignature = "EXTENDED CPC DSK File\r\nDisk-Info\r\n"

	diskInfoSize  = 256
	trackInfoSize = 256

	// DATA-format geometry.
	DataTracks           = 40
	DataSectorsPerTrack  = 9
	DataSectorSize       = 512
	DataFirstSectorID    = 0xC1

	creatorString = "cpcore"
)

// Sector is one physical sector: a 4-byte CHRN plus its payload.
// Size code N gives the natural payload length 128<<N, but Data may
// be shorter/longer for copy-protected images; callers that need the
// natural size should consult NaturalSize.
type Sector struct {
	C, H, R, N byte
	Data       []byte
}

// NaturalSize returns the sector's documented size from its N code.
func (s *Sector) NaturalSize() int { return 128 << s.N }

// Track is one physical track: an ordered set of sectors as laid
// out by the disc's format program (not necessarily ID order).
type Track struct {
	Sectors []Sector
}

// FindSector returns the sector whose R (sector ID) matches id, or
// nil if absent (a real FDC would report "sector ID not found").
func (t *Track) FindSector(id byte) *Sector {
	for i := range t.Sectors {
		if t.Sectors[i].R == id {
			return &t.Sectors[i]
		}
	}
	return nil
}

// Drive is one floppy drive: up to 2 sides of up to 42 tracks.
type Drive struct {
	Tracks  int
	Sides   int
	Track   [][2]Track // Track[cylinder][side]
	Altered bool        // set by any write; consulted before prompting to save
	Creator string
}

// Eject clears the drive to its empty state.
func (d *Drive) Eject() {
	*d = Drive{}
}

// Inserted reports whether a disc image is currently loaded.
func (d *Drive) Inserted() bool { return d.Tracks > 0 }

// SectorRead reads the full stored payload of the sector identified
// by (track, side, id), or an error if no such sector exists.
func (d *Drive) SectorRead(track, side int, id byte) ([]byte, error) {
	t, err := d.track(track, side)
	if err != nil {
		return nil, err
	}
	s := t.FindSector(id)
	if s == nil {
		return nil, fmt.Errorf("%w: %02X on track %d side %d", ErrSectorNotFound, id, track, side)
	}
	out := make([]byte, len(s.Data))
	copy(out, s.Data)
	return out, nil
}

// SectorWrite overwrites the sector identified by (track, side, id)
// with data. Shorter data is zero-padded to the sector's current
// stored length; longer data is stored whole, never truncated. Marks
// the drive altered on success.
func (d *Drive) SectorWrite(track, side int, id byte, data []byte) error {
	t, err := d.track(track, side)
	if err != nil {
		return err
	}
	s := t.FindSector(id)
	if s == nil {
		return fmt.Errorf("%w: %02X on track %d side %d", ErrSectorNotFound, id, track, side)
	}
	n := len(s.Data)
	if len(data) > n {
		n = len(data)
	}
	buf := make([]byte, n)
	copy(buf, data)
	s.Data = buf
	d.Altered = true
	return nil
}

func (d *Drive) track(track, side int) (*Track, error) {
	if track < 0 || track >= d.Tracks {
		return nil, fmt.Errorf("dsk: track %d out of range (0-%d)", track, d.Tracks-1)
	}
	if side < 0 || side >= d.Sides {
		return nil, fmt.Errorf("dsk: side %d out of range (0-%d)", side, d.Sides-1)
	}
	return &d.Track[track][side], nil
}

// Load parses a standard or Extended DSK image from data into d.
func Load(data []byte) (*Drive, error) {
	if len(data) < diskInfoSize {
		return nil, fmt.Errorf("dsk: image too short")
	}
	sig := string(data[:min(len(stdSignature), len(data))])
	extended := false
	switch {
	case strings.HasPrefix(sig, extSignature[:16]):
		extended = true
	case strings.HasPrefix(sig, stdSignature[:16]):
		extended = false
	default:
		return nil, fmt.Errorf("dsk: unrecognised signature")
	}

	tracks := int(data[0x30])
	sides := int(data[0x31])
	if tracks <= 0 || sides <= 0 || sides > 2 {
		return nil, fmt.Errorf("dsk: invalid geometry %d tracks x %d sides", tracks, sides)
	}

	creator := strings.TrimRight(string(data[0x22:0x30]), "\x00 ")

	if !extended {
		trackSize := int(binary.LittleEndian.Uint16(data[0x32:0x34]))
		return loadStandard(data, tracks, sides, trackSize, creator)
	}

	trackSizeTable := make([]int, tracks*sides)
	for i := range trackSizeTable {
		off := 0x34 + i
		if off >= diskInfoSize {
			return nil, fmt.Errorf("dsk: track size table overruns header")
		}
		trackSizeTable[i] = int(data[off]) * 256
	}

	d := &Drive{Tracks: tracks, Sides: sides, Creator: creator}
	d.Track = make([][2]Track, tracks)

	offset := diskInfoSize
	for t := 0; t < tracks; t++ {
		for s := 0; s < sides; s++ {
			size := trackSizeTable[t*sides+s]
			if size == 0 {
				continue // unformatted track
			}
			if offset+trackInfoSize > len(data) {
				return nil, fmt.Errorf("dsk: track %d side %d header overruns image", t, s)
			}
			hdr := data[offset : offset+trackInfoSize]
			numSectors := int(hdr[0x15])
			payload := data[offset+trackInfoSize:]
			if len(payload) > size-trackInfoSize {
				payload = payload[:size-trackInfoSize]
			}

			trk := Track{Sectors: make([]Sector, numSectors)}
			pos := 0
			for sec := 0; sec < numSectors; sec++ {
				entryOff := 0x18 + sec*8
				if entryOff+8 > len(hdr) {
					return nil, fmt.Errorf("dsk: sector table overruns track header")
				}
				c, h, r, n := hdr[entryOff], hdr[entryOff+1], hdr[entryOff+2], hdr[entryOff+3]
				actualLen := int(binary.LittleEndian.Uint16(hdr[entryOff+6 : entryOff+8]))
				if pos+actualLen > len(payload) {
					actualLen = len(payload) - pos
				}
				if actualLen < 0 {
					actualLen = 0
				}
				buf := make([]byte, actualLen)
				copy(buf, payload[pos:pos+actualLen])
				pos += actualLen
				trk.Sectors[sec] = Sector{C: c, H: h, R: r, N: n, Data: buf}
			}
			d.Track[t][s] = trk
			offset += size
		}
	}
	return d, nil
}

func loadStandard(data []byte, tracks, sides, trackSize int, creator string) (*Drive, error) {
	d := &Drive{Tracks: tracks, Sides: sides, Creator: creator}
	d.Track = make([][2]Track, tracks)
	offset := diskInfoSize
	for t := 0; t < tracks; t++ {
		for s := 0; s < sides; s++ {
			if offset+trackSize > len(data) {
				return nil, fmt.Errorf("dsk: track %d side %d overruns image", t, s)
			}
			hdr := data[offset : offset+trackInfoSize]
			payload := data[offset+trackInfoSize : offset+trackSize]
			numSectors := int(hdr[0x15])
			trk := Track{Sectors: make([]Sector, numSectors)}
			pos := 0
			for sec := 0; sec < numSectors; sec++ {
				entryOff := 0x18 + sec*8
				c, h, r, n := hdr[entryOff], hdr[entryOff+1], hdr[entryOff+2], hdr[entryOff+3]
				size := 128 << n
				if pos+size > len(payload) {
					size = len(payload) - pos
				}
				if size < 0 {
					size = 0
				}
				buf := make([]byte, size)
				copy(buf, payload[pos:pos+size])
				pos += size
				trk.Sectors[sec] = Sector{C: c, H: h, R: r, N: n, Data: buf}
			}
			d.Track[t][s] = trk
			offset += trackSize
		}
	}
	return d, nil
}

// Save always writes Extended format, with a creator string
// identifying this emulator.
func (d *Drive) Save() []byte {
	var buf bytes.Buffer

	header := make([]byte, diskInfoSize)
	copy(header, extSignature)
	copy(header[0x22:], padCreator(creatorString))
	header[0x30] = byte(d.Tracks)
	header[0x31] = byte(d.Sides)

	sizes := make([]int, d.Tracks*d.Sides)
	for t := 0; t < d.Tracks; t++ {
		for s := 0; s < d.Sides; s++ {
			trk := &d.Track[t][s]
			sz := trackInfoSize
			for i := range trk.Sectors {
				sz += len(trk.Sectors[i].Data)
			}
			// Extended DSK track sizes are in units of 256 bytes,
			// rounded up.
			units := (sz + 255) / 256
			sizes[t*d.Sides+s] = units
			if 0x34+t*d.Sides+s < diskInfoSize {
				header[0x34+t*d.Sides+s] = byte(units)
			}
		}
	}
	buf.Write(header)

	for t := 0; t < d.Tracks; t++ {
		for s := 0; s < d.Sides; s++ {
			trk := &d.Track[t][s]
			units := sizes[t*d.Sides+s]
			if units == 0 {
				continue
			}
			thdr := make([]byte, trackInfoSize)
			copy(thdr, "Track-Info\r\n")
			thdr[0x10] = byte(t)
			thdr[0x11] = byte(s)
			if len(trk.Sectors) > 0 {
				thdr[0x14] = trk.Sectors[0].N
			}
			thdr[0x15] = byte(len(trk.Sectors))
			thdr[0x16] = 0x4E // gap#3, informational only
			thdr[0x17] = 0xE5 // filler byte, informational only
			for i, sec := range trk.Sectors {
				off := 0x18 + i*8
				if off+8 > trackInfoSize {
					break
				}
				thdr[off+0] = sec.C
				thdr[off+1] = sec.H
				thdr[off+2] = sec.R
				thdr[off+3] = sec.N
				binary.LittleEndian.PutUint16(thdr[off+6:off+8], uint16(len(sec.Data)))
			}
			buf.Write(thdr)
			written := trackInfoSize
			for _, sec := range trk.Sectors {
				buf.Write(sec.Data)
				written += len(sec.Data)
			}
			pad := units*256 - written
			if pad > 0 {
				buf.Write(make([]byte, pad))
			}
		}
	}
	return buf.Bytes()
}

func padCreator(s string) []byte {
	out := make([]byte, 14)
	copy(out, s)
	return out
}

// LoadFile reads and parses path.
func LoadFile(path string) (*Drive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dsk: %w", err)
	}
	return Load(data)
}

// SaveFile writes d to path in Extended format.
func (d *Drive) SaveFile(path string) error {
	if err := os.WriteFile(path, d.Save(), 0o644); err != nil {
		return fmt.Errorf("dsk: %w", err)
	}
	d.Altered = false
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
