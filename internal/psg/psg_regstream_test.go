// psg_regstream_test.go - Golden-file round trip for AY loading and
// register-stream capture.

package psg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAYDataRawFrames(t *testing.T) {
	frameA := make([]byte, PSG_REG_COUNT)
	frameA[8] = 0x0F
	frameB := make([]byte, PSG_REG_COUNT)
	frameB[8] = 0x00
	data := append(append([]byte{}, frameA...), frameB...)

	engine, _ := newTestPSGEngine(SAMPLE_RATE)
	meta, err := LoadAYData(data, engine)
	if err != nil {
		t.Fatalf("LoadAYData: %v", err)
	}
	if meta.System != "ZX Spectrum" {
		t.Fatalf("unexpected system: %+v", meta)
	}

	engine.TickSample()
	if engine.regs[8] != 0x0F {
		t.Fatalf("expected register 8 = 0x0F at first frame, got %#x", engine.regs[8])
	}
}

func TestLoadAYFileDerivesFilenameTitle(t *testing.T) {
	frame := make([]byte, PSG_REG_COUNT)
	data := append(frame, frame...)

	dir := t.TempDir()
	path := filepath.Join(dir, "chiptune.ay")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write ay: %v", err)
	}

	engine, _ := newTestPSGEngine(SAMPLE_RATE)
	meta, err := LoadAYFile(path, engine)
	if err != nil {
		t.Fatalf("LoadAYFile: %v", err)
	}
	if meta.Title != "chiptune" {
		t.Fatalf("expected filename-derived title, got %q", meta.Title)
	}
}

func TestLoadAYDataZXAYEMUL(t *testing.T) {
	data := buildAYZ80EmulData("LoadSong", 1)

	engine, _ := newTestPSGEngine(SAMPLE_RATE)
	meta, err := LoadAYData(data, engine)
	if err != nil {
		t.Fatalf("LoadAYData: %v", err)
	}
	if meta.Title != "LoadSong" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}

	for i := 0; i < SAMPLE_RATE && engine.IsPlaying(); i++ {
		engine.TickSample()
	}
	if engine.regs[7] != 0x55 {
		t.Fatalf("expected mixer register to latch 0x55, got %#x", engine.regs[7])
	}
}

func TestRecorderRoundTripsThroughSetEvents(t *testing.T) {
	rec := NewRecorder()
	rec.WriteRegister(8, 0x0F)
	rec.TickSample()
	rec.TickSample()
	rec.WriteRegister(8, 0x00)

	events := rec.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 recorded events, got %d", len(events))
	}
	if events[0].Sample != 0 || events[1].Sample != 2 {
		t.Fatalf("unexpected event timestamps: %+v", events)
	}

	replay, _ := newTestPSGEngine(SAMPLE_RATE)
	replay.SetEvents(events, events[1].Sample+1, false, 0)
	for i := uint64(0); i <= events[1].Sample; i++ {
		replay.TickSample()
	}
	if replay.regs[8] != 0x00 {
		t.Fatalf("expected replayed register 8 = 0x00, got %#x", replay.regs[8])
	}
}
