// ay_z80_render.go - one-shot rendering of a ZXAYEMUL track into a
// PSGEvent stream.

package psg

import (
	"bytes"
	"fmt"
	"time"
)

// ayZ80DefaultLoopFrames bounds a zero-length (loop forever) song so
// a render without a limit still terminates.
const ayZ80DefaultLoopFrames = 15000

func isZXAYEMUL(data []byte) bool {
	return bytes.HasPrefix(data, []byte("ZXAYEMUL"))
}

func ayZ80SystemName(system byte) string {
	switch system {
	case ayZXSystemCPC:
		return "Amstrad CPC"
	case ayZXSystemMSX:
		return "MSX"
	default:
		return "ZX Spectrum"
	}
}

// ayZ80Render is the product of running a track's player code to
// completion: the event stream plus everything the engine needs to
// schedule it, and the step/wall-clock counts the CLI reports.
type ayZ80Render struct {
	Meta         PSGMetadata
	Events       []PSGEvent
	TotalSamples uint64
	ClockHz      uint32
	FrameRate    uint16
	Loop         bool
	LoopSample   uint64
	Steps        uint64
	ExecNanos    uint64
}

func renderAYZ80(data []byte, sampleRate int) (*ayZ80Render, error) {
	return renderAYZ80WithLimit(data, sampleRate, 0)
}

// renderAYZ80WithLimit renders at most maxFrames frames of a
// zero-length (looping) song; maxFrames 0 means the default bound.
func renderAYZ80WithLimit(data []byte, sampleRate, maxFrames int) (*ayZ80Render, error) {
	file, err := ParseAYZ80Data(data)
	if err != nil {
		return nil, err
	}
	songIndex, err := file.DefaultSongIndex()
	if err != nil {
		return nil, err
	}
	song := file.Songs[songIndex]

	const frameRate = uint16(50)
	player, err := newAYZ80Player(file, songIndex, sampleRate, Z80_CLOCK_ZX_SPECTRUM, frameRate, nil)
	if err != nil {
		return nil, err
	}

	frameCount := int(song.Data.LengthFrames)
	loop := false
	if frameCount == 0 {
		frameCount = ayZ80DefaultLoopFrames
		if maxFrames > 0 && frameCount > maxFrames {
			frameCount = maxFrames
		}
		loop = true
	}

	start := time.Now()
	events, totalSamples := player.RenderFrames(frameCount)
	if len(events) == 0 && totalSamples == 0 {
		return nil, fmt.Errorf("ay z80 player produced no output")
	}

	return &ayZ80Render{
		Meta: PSGMetadata{
			Title:  song.Name,
			Author: file.Header.Author,
			System: ayZ80SystemName(song.Data.PlayerSystem),
		},
		Events:       events,
		TotalSamples: totalSamples,
		ClockHz:      PSG_CLOCK_ZX_SPECTRUM,
		FrameRate:    frameRate,
		Loop:         loop,
		LoopSample:   0,
		Steps:        player.stepCount,
		ExecNanos:    uint64(time.Since(start).Nanoseconds()),
	}, nil
}
