package tape

import "testing"

// buildImage assembles a TZX image from raw block bytes.
func buildImage(blocks ...[]byte) []byte {
	img := append([]byte(tzxHeaderMagic), 0x1A, 1, 20)
	for _, b := range blocks {
		img = append(img, b...)
	}
	return img
}

// stdBlock builds a standard-speed data block (0x10) with no pause.
func stdBlock(data ...byte) []byte {
	b := []byte{0x10, 0, 0, byte(len(data)), byte(len(data) >> 8)}
	return append(b, data...)
}

func TestSwitchLevelIsInvolution(t *testing.T) {
	tp := New()
	before := tp.Level()
	tp.SwitchLevel()
	if tp.Level() == before {
		t.Fatal("one SwitchLevel must change the level")
	}
	tp.SwitchLevel()
	if tp.Level() != before {
		t.Fatal("two SwitchLevel calls must restore the level")
	}
}

func TestCycleAdjustScalesSpectrumToCPC(t *testing.T) {
	// 3500000 Spectrum T-states are one second, which is 4000000 CPC
	// T-states; fixed-point truncation may undershoot slightly.
	got := CycleAdjust(3500000)
	if got < 3999900 || got > 4000000 {
		t.Fatalf("CycleAdjust(3500000) = %d, want ~4000000", got)
	}
	if MsToCycles(250) != 1000000 {
		t.Fatalf("MsToCycles(250) = %d, want 1000000", MsToCycles(250))
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	tp := New()
	if err := tp.Load([]byte("not a tape image at all")); err == nil {
		t.Fatal("expected an error for a non-TZX image")
	}
	if tp.Inserted() {
		t.Fatal("failed load must not leave an image inserted")
	}
}

func TestReadDataBitShiftsMSBFirst(t *testing.T) {
	tp := New()
	if err := tp.Load(buildImage(stdBlock(0xA5))); err != nil {
		t.Fatal(err)
	}

	want := []int{1, 0, 1, 0, 0, 1, 0, 1} // 0xA5
	for i, w := range want {
		if got := tp.ReadDataBit(); got != w {
			t.Fatalf("bit %d = %d, want %d", i, got, w)
		}
	}
	if got := tp.ReadDataBit(); got != 0 {
		t.Fatalf("exhausted block must read 0, got %d", got)
	}
}

func TestReadDataBitSetsPulseLengthPerBit(t *testing.T) {
	tp := New()
	if err := tp.Load(buildImage(stdBlock(0x80))); err != nil {
		t.Fatal(err)
	}

	tp.ReadDataBit() // MSB = 1
	if tp.PulseCycles() != CycleAdjust(onePulseCycles) {
		t.Fatalf("one-bit pulse = %d, want %d", tp.PulseCycles(), CycleAdjust(onePulseCycles))
	}
	tp.ReadDataBit() // next bit = 0
	if tp.PulseCycles() != CycleAdjust(zeroPulseCycles) {
		t.Fatalf("zero-bit pulse = %d, want %d", tp.PulseCycles(), CycleAdjust(zeroPulseCycles))
	}
}

func TestTickTogglesLevelAndStopsAtImageEnd(t *testing.T) {
	tp := New()
	if err := tp.Load(buildImage(stdBlock(0xFF))); err != nil {
		t.Fatal(err)
	}
	tp.SetPlayButton(true)

	var toggles int
	for i := 0; i < 1000 && tp.PlayButton(); i++ {
		if tp.Tick(1000) {
			toggles++
		}
	}
	if toggles == 0 {
		t.Fatal("expected at least one level toggle while playing")
	}
	if tp.PlayButton() {
		t.Fatal("expected the deck to stop at the end of the image")
	}
}

func TestNextBlockStepsThroughInformationalBlocks(t *testing.T) {
	desc := []byte{0x30, 3, 'A', 'B', 'C'}
	img := buildImage(stdBlock(0x01), desc, stdBlock(0x02))
	tp := New()
	if err := tp.Load(img); err != nil {
		t.Fatal(err)
	}

	// First block primes 8 bits of data.
	if tp.dataCount != 8 {
		t.Fatalf("dataCount = %d, want 8", tp.dataCount)
	}
	if !tp.NextBlock() {
		t.Fatal("expected a second block")
	}
	// The description block carries no playable data.
	if tp.dataCount != 0 {
		t.Fatalf("informational block dataCount = %d, want 0", tp.dataCount)
	}
	if !tp.NextBlock() {
		t.Fatal("expected the final data block")
	}
	if tp.dataCount != 8 {
		t.Fatalf("final block dataCount = %d, want 8", tp.dataCount)
	}
}

func TestParseBlockForwardCompatibleLengthPrefix(t *testing.T) {
	raw := []byte{0x51, 3, 0, 0, 0, 0xAA, 0xBB, 0xCC}
	blk, err := parseBlock(raw)
	if err != nil {
		t.Fatal(err)
	}
	if blk.TotalSize != len(raw) {
		t.Fatalf("TotalSize = %d, want %d", blk.TotalSize, len(raw))
	}
	if blk.Data != nil {
		t.Fatal("unknown block types carry no playable data")
	}
}
