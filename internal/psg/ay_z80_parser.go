// ay_z80_parser.go - ZXAYEMUL parser, for .ay files that carry Z80
// player code instead of raw register frames.
//
// The format is a web of big-endian SELF-RELATIVE pointers: every
// 16-bit pointer is an offset from its own position in the file.
// ayRel resolves those in one place, so the structure walkers stay
// free of offset arithmetic.

package psg

import (
	"encoding/binary"
	"fmt"
)

const (
	ayZXHeaderSize = 20
	ayZXSongSize   = 4

	ayZXSystemSpectrum = 0
	ayZXSystemCPC      = 1
	ayZXSystemMSX      = 2
)

type AYZ80Header struct {
	FileVersion      uint16
	PlayerVersion    byte
	SpecialPlayer    byte
	Author           string
	Misc             string
	SongCount        byte
	FirstSongIndex   byte
	SongTablePointer int
}

type AYZ80Points struct {
	Stack     uint16
	Init      uint16
	Interrupt uint16
}

type AYZ80Block struct {
	Addr uint16
	Data []byte
}

type AYZ80SongData struct {
	ChannelMap   [4]byte
	LengthFrames uint16
	FadeFrames   uint16
	HiReg        byte
	LoReg        byte
	Points       *AYZ80Points
	Blocks       []AYZ80Block
	PlayerSystem byte
}

type AYZ80Song struct {
	Name string
	Data AYZ80SongData
}

type AYZ80File struct {
	Header AYZ80Header
	Songs  []AYZ80Song
}

// DefaultSongIndex returns the file's declared first-song index, the
// song a loader with no song-select UI should start from.
func (f *AYZ80File) DefaultSongIndex() (int, error) {
	idx := int(f.Header.FirstSongIndex)
	if idx < 0 || idx >= len(f.Songs) {
		return 0, fmt.Errorf("ay z80 default song out of range")
	}
	return idx, nil
}

// ayImage wraps the raw file with bounds-checked primitive reads.
// Out-of-range reads yield zero; structure walkers validate the
// offsets that matter before dereferencing.
type ayImage []byte

func (img ayImage) u8(off int) byte {
	if off < 0 || off >= len(img) {
		return 0
	}
	return img[off]
}

func (img ayImage) u16(off int) uint16 {
	if off < 0 || off+2 > len(img) {
		return 0
	}
	return binary.BigEndian.Uint16(img[off : off+2])
}

// rel resolves the self-relative pointer stored at off. ok is false
// for a null pointer; an out-of-file target is an error.
func (img ayImage) rel(off int) (int, bool, error) {
	delta := int16(img.u16(off))
	if delta == 0 {
		return 0, false, nil
	}
	target := off + int(delta)
	if target < 0 || target >= len(img) {
		return 0, false, fmt.Errorf("ay z80 pointer at %#x points outside the file", off)
	}
	return target, true, nil
}

// cstring reads the NUL-terminated string a pointer at off targets;
// a null pointer reads as "".
func (img ayImage) cstring(off int) (string, error) {
	start, ok, err := img.rel(off)
	if err != nil || !ok {
		return "", err
	}
	for end := start; end < len(img); end++ {
		if img[end] == 0 {
			return string(img[start:end]), nil
		}
	}
	return "", fmt.Errorf("ay z80 unterminated string")
}

// ParseAYZ80Data decodes a ZXAYEMUL image.
func ParseAYZ80Data(data []byte) (*AYZ80File, error) {
	if len(data) < ayZXHeaderSize {
		return nil, fmt.Errorf("ay z80 header too short")
	}
	if string(data[0:8]) != "ZXAYEMUL" {
		return nil, fmt.Errorf("ay z80 invalid signature")
	}
	img := ayImage(data)

	author, err := img.cstring(12)
	if err != nil {
		return nil, err
	}
	misc, err := img.cstring(14)
	if err != nil {
		return nil, err
	}
	songCount := int(img.u8(16)) + 1
	firstSong := img.u8(17)
	if int(firstSong) >= songCount {
		return nil, fmt.Errorf("ay z80 first song out of range")
	}
	songTable, ok, err := img.rel(18)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("ay z80 missing song table")
	}

	file := &AYZ80File{
		Header: AYZ80Header{
			FileVersion:      img.u16(8),
			PlayerVersion:    img.u8(10),
			SpecialPlayer:    img.u8(11),
			Author:           author,
			Misc:             misc,
			SongCount:        byte(songCount),
			FirstSongIndex:   firstSong,
			SongTablePointer: songTable,
		},
	}

	for i := 0; i < songCount; i++ {
		entry := songTable + i*ayZXSongSize
		if entry+ayZXSongSize > len(img) {
			return nil, fmt.Errorf("ay z80 song table truncated")
		}
		song, err := parseAYSong(img, entry, i)
		if err != nil {
			return nil, err
		}
		file.Songs = append(file.Songs, song)
	}
	return file, nil
}

func parseAYSong(img ayImage, entry, index int) (AYZ80Song, error) {
	name := fmt.Sprintf("Song %d", index+1)
	if parsed, err := img.cstring(entry); err == nil && parsed != "" {
		name = parsed
	}

	dataOff, ok, err := img.rel(entry + 2)
	if err != nil {
		return AYZ80Song{}, err
	}
	if !ok {
		return AYZ80Song{}, fmt.Errorf("ay z80 missing song data pointer")
	}
	data, err := parseAYSongData(img, dataOff)
	if err != nil {
		return AYZ80Song{}, err
	}
	return AYZ80Song{Name: name, Data: data}, nil
}

func parseAYSongData(img ayImage, off int) (AYZ80SongData, error) {
	if off+14 > len(img) {
		return AYZ80SongData{}, fmt.Errorf("ay z80 song data truncated")
	}
	data := AYZ80SongData{
		ChannelMap:   [4]byte{img.u8(off), img.u8(off + 1), img.u8(off + 2), img.u8(off + 3)},
		LengthFrames: img.u16(off + 4),
		FadeFrames:   img.u16(off + 6),
		HiReg:        img.u8(off + 8),
		LoReg:        img.u8(off + 9),
		PlayerSystem: ayZXSystemSpectrum,
	}

	if pointsOff, ok, err := img.rel(off + 10); err != nil {
		return AYZ80SongData{}, err
	} else if ok {
		if pointsOff+6 > len(img) {
			return AYZ80SongData{}, fmt.Errorf("ay z80 points truncated")
		}
		data.Points = &AYZ80Points{
			Stack:     img.u16(pointsOff),
			Init:      img.u16(pointsOff + 2),
			Interrupt: img.u16(pointsOff + 4),
		}
	}

	blocksOff, ok, err := img.rel(off + 12)
	if err != nil {
		return AYZ80SongData{}, err
	}
	if ok {
		data.Blocks, err = parseAYBlocks(img, blocksOff)
		if err != nil {
			return AYZ80SongData{}, err
		}
	}
	return data, nil
}

// parseAYBlocks walks the zero-terminated (addr, length, pointer)
// block table. Lengths are clamped both to the Z80 address space and
// to the bytes actually present in the file, the way forgiving
// players treat the many slightly-broken rips in circulation.
func parseAYBlocks(img ayImage, off int) ([]AYZ80Block, error) {
	var blocks []AYZ80Block
	for {
		if off+2 > len(img) {
			return nil, fmt.Errorf("ay z80 unterminated block table")
		}
		addr := img.u16(off)
		if addr == 0 {
			return blocks, nil
		}
		if off+6 > len(img) {
			return nil, fmt.Errorf("ay z80 block entry truncated")
		}
		length := int(img.u16(off + 2))
		dataOff, ok, err := img.rel(off + 4)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("ay z80 missing block pointer")
		}

		if max := 0x10000 - int(addr); length > max {
			length = max
		}
		if dataOff+length > len(img) {
			length = len(img) - dataOff
		}
		blocks = append(blocks, AYZ80Block{
			Addr: addr,
			Data: append([]byte(nil), img[dataOff:dataOff+length]...),
		})
		off += 6
	}
}
