// format.go - Disc format registry: a name lookup backing the
// create-new and format-drive operations. Built-in formats are "data" (CP/M DATA layout) and "vendor"
// (a differently-skewed sector-ID layout
// some vendor-distributed software expects). Both lay down 40 blank
// tracks; internal/cpm's CreateNew/FormatDrive build on Blank and then
// write an empty directory, addressing the DATA layout's sector IDs.

package dsk

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFormat is returned by FormatByName when name matches no
// built-in format, exactly or by prefix.
var ErrUnknownFormat = errors.New("dsk: unknown format")

// Format describes one named blank-disc layout.
type Format struct {
	Label          string
	Tracks         int
	Sides          int
	SectorsPerTrk  int
	SectorSizeCode byte
	FirstSectorID  byte
	Skew           int // physical-position step between consecutive sector IDs
}

var builtinFormats = []Format{
	{Label: "data", Tracks: DataTracks, Sides: 1, SectorsPerTrk: DataSectorsPerTrack, SectorSizeCode: 2, FirstSectorID: DataFirstSectorID, Skew: 1},
	{Label: "vendor", Tracks: DataTracks, Sides: 1, SectorsPerTrk: DataSectorsPerTrack, SectorSizeCode: 2, FirstSectorID: 0x41, Skew: 3},
}

// FormatByName resolves name against the built-in formats by exact
// (case-insensitive) short name, then falls back to a
// case-insensitive prefix match against each format's label, the
// same two-step lookup disk_format_index_by_name used.
func FormatByName(name string) (Format, error) {
	if name == "" {
		return Format{}, fmt.Errorf("dsk: empty format name")
	}
	lower := strings.ToLower(name)
	for _, f := range builtinFormats {
		if strings.ToLower(f.Label) == lower {
			return f, nil
		}
	}
	for _, f := range builtinFormats {
		if strings.HasPrefix(strings.ToLower(f.Label), lower) {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
}

// FormatNames lists the built-in format short names.
func FormatNames() []string {
	names := make([]string, len(builtinFormats))
	for i, f := range builtinFormats {
		names[i] = f.Label
	}
	return names
}

// Blank builds a freshly formatted, empty (all zero-filled) drive in
// the given layout, with no directory written yet.
func Blank(f Format) *Drive {
	d := &Drive{Tracks: f.Tracks, Sides: f.Sides, Creator: creatorString}
	d.Track = make([][2]Track, f.Tracks)
	size := 128 << f.SectorSizeCode
	for t := 0; t < f.Tracks; t++ {
		for s := 0; s < f.Sides; s++ {
			secs := make([]Sector, f.SectorsPerTrk)
			used := make([]bool, f.SectorsPerTrk)
			pos := 0
			for id := 0; id < f.SectorsPerTrk; id++ {
				// Step Skew positions per ID, sliding to the next free
				// position so every ID is laid down exactly once.
				for used[pos] {
					pos = (pos + 1) % f.SectorsPerTrk
				}
				used[pos] = true
				secs[pos] = Sector{
					C: byte(t), H: byte(s), R: f.FirstSectorID + byte(id), N: f.SectorSizeCode,
					Data: make([]byte, size),
				}
				pos = (pos + f.Skew) % f.SectorsPerTrk
			}
			d.Track[t][s] = Track{Sectors: secs}
		}
	}
	return d
}

// CreateNew formats a new blank disc of the named format and saves
// it to path. Callers that also want a
// CP/M directory written should call internal/cpm.CreateNew instead.
func CreateNew(path, formatName string) error {
	f, err := FormatByName(formatName)
	if err != nil {
		return err
	}
	d := Blank(f)
	return d.SaveFile(path)
}

// FormatDrive replaces drive's contents with a freshly formatted
// blank disc of the named format.
func FormatDrive(drive *Drive, formatName string) error {
	f, err := FormatByName(formatName)
	if err != nil {
		return err
	}
	*drive = *Blank(f)
	return nil
}
