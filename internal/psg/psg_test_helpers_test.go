// psg_test_helpers_test.go - Test helpers for PSG behavior.

package psg

// testSoundChip is a minimal PSGHost used only by this package's own
// tests: it exposes the Channel state the engine writes to without
// pulling in a real audio backend.
type testSoundChip struct {
	channels  [4]*Channel
	ticker    SampleTicker
	psgPlusOn bool
}

func newTestSoundChip() *testSoundChip {
	chip := &testSoundChip{}
	waveTypes := [4]int{WAVE_SQUARE, WAVE_SQUARE, WAVE_SQUARE, WAVE_NOISE}
	for i := range chip.channels {
		chip.channels[i] = &Channel{
			waveType:  waveTypes[i],
			dutyCycle: 0.5,
			noiseMode: NOISE_MODE_PSG,
			noiseSR:   PSG_NOISE_LFSR_SEED,
		}
	}
	return chip
}

func (c *testSoundChip) SetSampleTicker(t SampleTicker) { c.ticker = t }
func (c *testSoundChip) SetPSGPlusEnabled(enabled bool) { c.psgPlusOn = enabled }

func (c *testSoundChip) HandleRegisterWrite(addr uint32, value uint32) {
	if addr < FLEX_CH_BASE {
		return
	}
	idx := (addr - FLEX_CH_BASE) / FLEX_CH_STRIDE
	if idx >= uint32(len(c.channels)) {
		return
	}
	offset := (addr - FLEX_CH_BASE) % FLEX_CH_STRIDE
	ch := c.channels[idx]

	switch offset {
	case FLEX_OFF_FREQ:
		ch.frequency = float32(value) / 256.0
	case FLEX_OFF_VOL:
		ch.volume = float32(value) / NORMALISE_8BIT
	case FLEX_OFF_CTRL:
		ch.enabled = value != 0
	case FLEX_OFF_DUTY:
		ch.dutyCycle = float32(value) / 255.0
	case FLEX_OFF_WAVE_TYPE:
		ch.waveType = int(value)
	case FLEX_OFF_NOISEMODE:
		ch.noiseMode = int(value)
	}
}

func newTestPSGEngine(sampleRate int) (*PSGEngine, *testSoundChip) {
	chip := newTestSoundChip()
	engine := NewPSGEngine(chip, sampleRate)
	return engine, chip
}
