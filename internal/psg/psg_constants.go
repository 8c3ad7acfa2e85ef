package psg

const (
	// PSG_BASE..PSG_END is the flat register address window PSGEngine
	// and the AY playback buses speak internally; PSG_PLUS_CTRL sits
	// just past it and gates the extended-mixer mode.
	PSG_BASE      = 0xF0C00
	PSG_END       = 0xF0C0D
	PSG_PLUS_CTRL = 0xF0C0E

	// PSG_REG_COUNT covers the 14 sound registers R0-R13. The 8912's
	// I/O port (R14) is board wiring, not synthesizer state, and is
	// handled by the bus-facing adapters.
	PSG_REG_COUNT = 14

	PSG_CLOCK_CPC         = 1000000
	PSG_CLOCK_ZX_SPECTRUM = 1773400

	Z80_CLOCK_ZX_SPECTRUM = 3494400
)
