package gatearray

import (
	"testing"

	"github.com/cpcdevtools/cpcore/internal/memmap"
)

func newGA() (*GateArray, *memmap.Map) {
	mem := memmap.NewMap(memmap.RAMExtModeStandard)
	return New(mem, false), mem
}

func TestOut_SelectPen(t *testing.T) {
	ga, _ := newGA()
	ga.Out(0x7F00, 0x05) // 00 command, pen 5
	if ga.Pen() != 5 {
		t.Fatalf("pen = %d, want 5", ga.Pen())
	}
	ga.Out(0x7F00, 0x10) // border
	if ga.Pen() != 16 {
		t.Fatalf("pen = %d, want border (16)", ga.Pen())
	}
}

func TestOut_SetColourLatchesCurrentPen(t *testing.T) {
	ga, _ := newGA()
	ga.Out(0x7F00, 0x03)       // select pen 3
	ga.Out(0x7F00, 0x40|0x14) // set colour: ink = 0x14
	if got := ga.Ink(3); got != 0x14 {
		t.Fatalf("ink[3] = 0x%02X, want 0x14", got)
	}
}

func TestOut_ModeAndROMConfigReconfiguresMemmap(t *testing.T) {
	ga, mem := newGA()
	mem.LoadLowerROM(make([]byte, memmap.ROMSize))
	ga.Out(0x7F00, 0x80|0x0A) // mode 2 (bits0-1), lower ROM stays on, upper ROM disabled (bit3)
	if ga.ScreenMode() != 2 {
		t.Fatalf("mode = %d, want 2", ga.ScreenMode())
	}
	if mem.UpperROMOff != true {
		t.Fatal("expected upper ROM disabled")
	}
}

func TestOut_RAMConfigLatchRequiresPortBit15Clear(t *testing.T) {
	ga, mem := newGA()
	ga.Out(0x7F00, 0xC4) // bit15 clear: RAM_config latch, low 3 bits = 4
	if mem.RAMConfig != 0x04 {
		t.Fatalf("RAMConfig = %d, want 4", mem.RAMConfig)
	}
}

func TestOut_RMR2IgnoredWithoutASICUnlock(t *testing.T) {
	mem := memmap.NewMap(memmap.RAMExtModeStandard)
	ga := New(mem, true)
	ga.Out(0x8000, 0xC8) // bit15 set, would-be RMR2, ASIC still locked
	if mem.LowerROMSlot != 0 {
		t.Fatal("RMR2 should not apply while ASIC is locked")
	}
	ga.SetASICUnlocked(true)
	ga.Out(0x8000, 0xC8)
	if mem.LowerROMSlot == 0 {
		t.Fatal("expected RMR2 to update LowerROMSlot once unlocked")
	}
}

func TestOnHSync_RaisesIRQAt52(t *testing.T) {
	ga, _ := newGA()
	var fired int
	ga.SetIRQHandler(func() { fired++ })
	for i := 0; i < 52; i++ {
		ga.OnHSync()
	}
	if fired != 1 {
		t.Fatalf("expected exactly one IRQ after 52 HSYNCs, got %d", fired)
	}
	if !ga.IRQPending() {
		t.Fatal("expected IRQPending to be true")
	}
}

func TestOnVSync_ResetsCounterAbove32WithoutIRQ(t *testing.T) {
	ga, _ := newGA()
	var fired int
	ga.SetIRQHandler(func() { fired++ })
	for i := 0; i < 40; i++ {
		ga.OnHSync()
	}
	ga.OnVSync()
	for i := 0; i < 11; i++ {
		ga.OnHSync()
	}
	if fired != 0 {
		t.Fatalf("expected no IRQ yet, counter should have reset at VSYNC, got %d fires", fired)
	}
}

func TestPalette_MeanInkIsAverageOfInk0And1(t *testing.T) {
	ga, _ := newGA()
	ga.Out(0x7F00, 0x00) // pen 0
	ga.Out(0x7F00, 0x40) // ink[0] = 0
	ga.Out(0x7F00, 0x01) // pen 1
	ga.Out(0x7F00, 0x40|26) // ink[1] = 26

	pal := ga.Palette()
	r0, g0, b0 := ga.RGB(0)
	r1, g1, b1 := ga.RGB(26)
	want := [3]byte{
		byte((int(r0) + int(r1)) / 2),
		byte((int(g0) + int(g1)) / 2),
		byte((int(b0) + int(b1)) / 2),
	}
	if pal[33] != want {
		t.Fatalf("mean ink = %v, want %v", pal[33], want)
	}
}

func TestOut_YarekRAMExtFromInvertedPortBits(t *testing.T) {
	mem := memmap.NewMap(memmap.RAMExtModeYarek)
	ga := New(mem, false)

	// High byte 0x7E: inverted low 6 bits select expansion page 1.
	ga.Out(0x7E00, 0xC2) // config 2: all four slots on the expansion page
	if mem.RAMExt != 0x01 {
		t.Fatalf("RAMExt = %d, want 1", mem.RAMExt)
	}

	mem.LowerROMOff = true
	mem.UpperROMOff = true
	mem.Reconfigure()
	want := mem.ExpansionRAM()[1*memmap.ExpansionPageSize : 1*memmap.ExpansionPageSize+memmap.SlotSize]
	want[0] = 0x77
	if got := mem.Slots()[0].Read[0]; got != 0x77 {
		t.Fatal("slot 0 does not alias the Yarek-selected expansion page")
	}
}
