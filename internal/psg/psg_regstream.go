// psg_regstream.go - AY register-stream loading and capture.
//
// PSGEvent is the timestamped register write both directions of this
// package's AY support produce: LoadAYFile/LoadAYData decode a .ay
// track (raw frame dump or ZXAYEMUL file with embedded Z80 player
// code, via ay_z80_render.go) into an event stream and hand it to a
// PSGEngine with SetEvents; Recorder runs the other way, tapping a
// live engine's register writes to build the same stream for export
// or for a headless regression test to diff against a re-load.
package psg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// PSGMetadata carries the descriptive fields an AY track's header
// provides, independent of which of the two loader paths produced it.
type PSGMetadata struct {
	Title  string
	Author string
	System string
}

// PSGEvent is one register write scheduled at a given output sample.
type PSGEvent struct {
	Sample uint64
	Reg    uint8
	Value  uint8
}

// AYFile is a decoded raw-frame AY dump: one full register file per
// 50 Hz frame, no player code. Most Spectrum .ay rips use this shape;
// the Recorder yields PSGEvents, not AYFile frames.
type AYFile struct {
	Frames    [][]uint8
	FrameRate uint16
	ClockHz   uint32
	Title     string
	Author    string
}

// ParseAYData decodes a raw-frame dump. ZXAYEMUL images take the
// player-code path in LoadAYData instead.
func ParseAYData(data []byte) (*AYFile, error) {
	if isZXAYEMUL(data) {
		return nil, fmt.Errorf("ay file uses Z80 player code; raw frames required")
	}
	if len(data) == 0 || len(data)%PSG_REG_COUNT != 0 {
		return nil, fmt.Errorf("ay raw frame data must be a multiple of %d bytes", PSG_REG_COUNT)
	}

	frames := make([][]uint8, 0, len(data)/PSG_REG_COUNT)
	for off := 0; off < len(data); off += PSG_REG_COUNT {
		frames = append(frames, append([]uint8(nil), data[off:off+PSG_REG_COUNT]...))
	}
	return &AYFile{Frames: frames, FrameRate: 50, ClockHz: PSG_CLOCK_ZX_SPECTRUM}, nil
}

// LoadAYFile reads path and loads it into engine via LoadAYData.
func LoadAYFile(path string, engine *PSGEngine) (PSGMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PSGMetadata{}, err
	}
	meta, err := LoadAYData(data, engine)
	if err != nil {
		return PSGMetadata{}, err
	}
	if meta.Title == "" {
		meta.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return meta, nil
}

// LoadAYData decodes a .ay track, either a raw 14-byte-register-frame
// dump or a ZXAYEMUL file carrying embedded Z80 player code, and
// schedules its register-write stream on engine. It returns the
// track's metadata.
func LoadAYData(data []byte, engine *PSGEngine) (PSGMetadata, error) {
	if engine == nil {
		return PSGMetadata{}, fmt.Errorf("psg engine not configured")
	}
	if len(data) == 0 {
		return PSGMetadata{}, fmt.Errorf("ay data empty")
	}

	if isZXAYEMUL(data) {
		render, err := renderAYZ80(data, engine.sampleRate)
		if err != nil {
			return PSGMetadata{}, err
		}
		engine.SetClockHz(render.ClockHz)
		engine.SetEvents(render.Events, render.TotalSamples, render.Loop, render.LoopSample)
		return render.Meta, nil
	}

	file, err := ParseAYData(data)
	if err != nil {
		return PSGMetadata{}, err
	}
	events, total, loop, loopSample, err := buildPSGEventsFromFrames(file.Frames, file.FrameRate, engine.sampleRate, 0)
	if err != nil {
		return PSGMetadata{}, err
	}
	engine.SetClockHz(file.ClockHz)
	engine.SetEvents(events, total, loop, loopSample)
	return PSGMetadata{Title: file.Title, Author: file.Author, System: "ZX Spectrum"}, nil
}

// buildPSGEventsFromFrames turns a raw-frame AY dump into a PSGEvent
// stream paced at frameRate against sampleRate, marking loopFrame (0
// disables looping) as the sample to resume from.
func buildPSGEventsFromFrames(frames [][]uint8, frameRate uint16, sampleRate int, loopFrame uint32) ([]PSGEvent, uint64, bool, uint64, error) {
	if frameRate == 0 {
		return nil, 0, false, 0, fmt.Errorf("invalid frame rate")
	}
	samplesPerFrameNum := uint64(sampleRate)
	samplesPerFrameDen := uint64(frameRate)
	acc := uint64(0)
	samplePos := uint64(0)

	events := make([]PSGEvent, 0, len(frames)*PSG_REG_COUNT)
	loopSample := uint64(0)
	for frameIndex, frame := range frames {
		if uint32(frameIndex) == loopFrame {
			loopSample = samplePos
		}
		for reg := 0; reg < PSG_REG_COUNT; reg++ {
			events = append(events, PSGEvent{
				Sample: samplePos,
				Reg:    uint8(reg),
				Value:  frame[reg],
			})
		}
		acc += samplesPerFrameNum
		step := acc / samplesPerFrameDen
		samplePos += step
		acc -= step * samplesPerFrameDen
	}

	loop := loopFrame > 0 && loopFrame < uint32(len(frames))
	return events, samplePos, loop, loopSample, nil
}

// Recorder captures every register write issued against it,
// timestamped by an externally driven sample clock, producing the
// same []PSGEvent shape PSGEngine.SetEvents consumes. A host places a
// Recorder ahead of a PPI adapter to build a golden capture of a live
// session for later regression replay through LoadAYData's event path.
type Recorder struct {
	mu     sync.Mutex
	sample uint64
	events []PSGEvent
}

// NewRecorder returns an empty Recorder with its sample clock at 0.
func NewRecorder() *Recorder { return &Recorder{} }

// WriteRegister records a register write at the current sample
// position. It satisfies the same one-register-at-a-time contract as
// PSGEngine.WriteRegister and ppi.EngineAdapter.WriteRegister.
func (r *Recorder) WriteRegister(reg, value uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, PSGEvent{Sample: r.sample, Reg: reg, Value: value})
}

// TickSample advances the recorder's sample clock by one, mirroring
// the SampleTicker contract a PSGHost drives an engine with.
func (r *Recorder) TickSample() {
	r.mu.Lock()
	r.sample++
	r.mu.Unlock()
}

// Events returns a copy of the captured register-write stream.
func (r *Recorder) Events() []PSGEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PSGEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Reset discards captured events and zeroes the sample clock.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.sample = 0
	r.mu.Unlock()
}
