// ay_z80_player.go - runs a ZXAYEMUL track's embedded Z80 player
// against the emulator's own CPU core and collects the AY writes it
// makes.
//
// The harness is the one the format documents: RAM primed per the
// player version, a small stub at 0 that calls INIT and then sits in
// an EI/HALT loop, and one interrupt delivered per 50 Hz frame. The
// interrupt is raised through the core's real INT line rather than
// by calling the routine directly, so a player that re-enables
// interrupts mid-routine misbehaves here exactly as it would on
// hardware.

package psg

import (
	"fmt"

	"github.com/cpcdevtools/cpcore/internal/z80"
)

type ayZ80Player struct {
	cpu  *z80.CPU_Z80
	bus  *ayZ80Bus
	song AYZ80Song

	clockHz        uint32
	frameRate      uint16
	sampleRate     int
	cyclesPerFrame uint64

	frameAcc      uint64
	currentSample uint64
	stepCount     uint64
}

func newAYZ80Player(file *AYZ80File, songIndex, sampleRate int, clockHz uint32, frameRate uint16, writer ayZ80PSGWriter) (*ayZ80Player, error) {
	switch {
	case file == nil:
		return nil, fmt.Errorf("ay z80 file is nil")
	case songIndex < 0 || songIndex >= len(file.Songs):
		return nil, fmt.Errorf("ay z80 song index out of range")
	case frameRate == 0 || clockHz == 0 || sampleRate <= 0:
		return nil, fmt.Errorf("ay z80 invalid timing parameters")
	}

	song := file.Songs[songIndex]
	if song.Data.Points == nil {
		return nil, fmt.Errorf("ay z80 song missing points")
	}

	ram := primeAYZ80RAM(file.Header.PlayerVersion, song.Data)
	bus := newAYZ80Bus(&ram, song.Data.PlayerSystem, writer)
	cpu := z80.NewCPU_Z80(bus)
	primeAYZ80CPU(cpu, song.Data)

	return &ayZ80Player{
		cpu:            cpu,
		bus:            bus,
		song:           song,
		clockHz:        clockHz,
		frameRate:      frameRate,
		sampleRate:     sampleRate,
		cyclesPerFrame: uint64(clockHz) / uint64(frameRate),
	}, nil
}

// RenderFrames runs frameCount interrupt frames and returns the AY
// writes they produced, timestamped in output samples, plus the new
// total sample position.
func (p *ayZ80Player) RenderFrames(frameCount int) ([]PSGEvent, uint64) {
	var events []PSGEvent

	for frame := 0; frame < frameCount; frame++ {
		frameStartCycle := p.bus.cycles
		firstWrite := len(p.bus.writes)
		p.runFrame()

		for _, write := range p.bus.writes[firstWrite:] {
			cycleDelta := write.Cycle - frameStartCycle
			events = append(events, PSGEvent{
				Sample: p.currentSample + cycleDelta*uint64(p.sampleRate)/uint64(p.clockHz),
				Reg:    write.Reg,
				Value:  write.Value,
			})
		}

		// Integer-accumulate sampleRate/frameRate so long renders
		// never drift.
		p.frameAcc += uint64(p.sampleRate)
		p.currentSample += p.frameAcc / uint64(p.frameRate)
		p.frameAcc %= uint64(p.frameRate)
	}
	return events, p.currentSample
}

// runFrame delivers one frame interrupt and executes until the
// player is back at its HALT idle point or the frame's cycle budget
// runs out (protection against players that never return).
func (p *ayZ80Player) runFrame() {
	idlePC := p.cpu.PC
	startCycles := p.bus.cycles
	irqAsserted := false
	irqServiced := false

	for p.bus.cycles-startCycles < p.cyclesPerFrame {
		if p.cpu.Halted && !irqAsserted {
			p.cpu.SetIRQLine(true)
			irqAsserted = true
		}

		hadIFF1 := p.cpu.IFF1
		p.cpu.Step()
		p.stepCount++

		// IFF1 dropping while the line is up is the acceptance
		// edge; release INT so the routine is not re-entered.
		if irqAsserted && hadIFF1 && !p.cpu.IFF1 && !irqServiced {
			irqServiced = true
			p.cpu.SetIRQLine(false)
		}
		if irqServiced && p.cpu.PC == idlePC {
			return
		}
	}
	if irqAsserted {
		p.cpu.SetIRQLine(false)
	}
}

// primeAYZ80RAM lays out the 64 KiB image the format specifies:
// version-dependent fill, the song's data blocks, and the init/idle
// stub at address 0.
func primeAYZ80RAM(playerVersion byte, song AYZ80SongData) [0x10000]byte {
	var ram [0x10000]byte

	if playerVersion == 0 {
		playerVersion = 3
	}
	switch {
	case playerVersion >= 3:
		for i := 0x0000; i < 0x0100; i++ {
			ram[i] = 0xC9 // RET
		}
		for i := 0x0100; i < 0x4000; i++ {
			ram[i] = 0xFF
		}
	case playerVersion == 2:
		for i := 0x0000; i < 0x0100; i++ {
			ram[i] = 0xC9
		}
	}
	ram[0x0038] = 0xFB // EI at the IM 1 vector
	// IM 2 players vector through (I:ack) = (&03:&00): point the word
	// at &0300 at &00FF, the last byte of the RET page.
	ram[0x0300] = 0xFF
	ram[0x0301] = 0x00

	for _, block := range song.Blocks {
		if block.Addr == 0 || len(block.Data) == 0 {
			continue
		}
		copy(ram[block.Addr:], block.Data)
	}

	initAddr := song.Points.Init
	if initAddr == 0 && len(song.Blocks) > 0 {
		initAddr = song.Blocks[0].Addr
	}
	stub := ayZ80Stub(initAddr, song.Points.Interrupt)
	copy(ram[:], stub)
	return ram
}

// ayZ80Stub assembles the driver loop at address 0: DI, CALL init,
// then IM x / EI / HALT (/ CALL interrupt) / JR back.
func ayZ80Stub(initAddr, interrupt uint16) []byte {
	var code []byte
	call := func(addr uint16) {
		code = append(code, 0xCD, byte(addr), byte(addr>>8))
	}

	code = append(code, 0xF3) // DI
	if initAddr != 0 {
		call(initAddr)
	}
	loop := len(code)
	if interrupt == 0 {
		code = append(code, 0xED, 0x5E) // IM 2: vector into the RET page
	} else {
		code = append(code, 0xED, 0x56) // IM 1: vector hits the EI at &38
	}
	code = append(code, 0xFB, 0x76) // EI / HALT
	if interrupt != 0 {
		call(interrupt)
	}
	code = append(code, 0x18, byte(int8(loop-(len(code)+2)))) // JR loop
	return code
}

// primeAYZ80CPU sets the register state the format mandates: every
// pair loaded from the song's HiReg/LoReg bytes, SP from the points
// block, interrupts off, and the INT acknowledge byte forced to zero
// so an IM 2 player vectors into the RET page.
func primeAYZ80CPU(cpu *z80.CPU_Z80, song AYZ80SongData) {
	seed := uint16(song.HiReg)<<8 | uint16(song.LoReg)
	cpu.SetAF(seed)
	cpu.SetBC(seed)
	cpu.SetDE(seed)
	cpu.SetHL(seed)
	cpu.SetAF2(seed)
	cpu.SetBC2(seed)
	cpu.SetDE2(seed)
	cpu.SetHL2(seed)

	cpu.SP = song.Points.Stack
	if cpu.SP == 0 {
		cpu.SP = 0xFFFF
	}
	cpu.I = 3
	cpu.IM = 0
	cpu.IFF1 = false
	cpu.IFF2 = false
	cpu.PC = 0x0000
	cpu.SetIRQVector(0x00)
}
