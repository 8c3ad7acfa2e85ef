// sound_chip.go - PSGHost implementation driving the oto/v3 audio backend.
//
// SoundChip owns the four AY-3-8912 oscillators (tone A, B, C, shared
// noise) and mixes them on demand. Each call to ReadSampleFromRing
// advances the attached PSGEngine by one sample via SampleTicker,
// then mixes the resulting channel state into a single float32.

package psg

import "sync"

const NUM_CHANNELS = 4

const CHANNEL_MIX_LEVEL = 0.25 // 1/NUM_CHANNELS

type SoundChip struct {
	mutex      sync.Mutex
	channels   [NUM_CHANNELS]*Channel
	ticker     SampleTicker
	psgPlusOn  bool
	sampleRate int
}

func NewSoundChip(sampleRate int) *SoundChip {
	chip := &SoundChip{sampleRate: sampleRate}
	waveTypes := [NUM_CHANNELS]int{WAVE_SQUARE, WAVE_SQUARE, WAVE_SQUARE, WAVE_NOISE}
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

func (c *SoundChip) SetSampleTicker(t SampleTicker) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.ticker = t
}

func (c *SoundChip) SetPSGPlusEnabled(enabled bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.psgPlusOn = enabled
}

func (c *SoundChip) HandleRegisterWrite(addr uint32, value uint32) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

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

// ReadSampleFromRing drives the attached engine one sample forward and
// returns the mixed output. Named for the producer/consumer contract
// the oto/v3 backend expects of its audio source, though mixing here
// happens synchronously on the callback goroutine rather than through
// a buffered ring.
func (c *SoundChip) ReadSampleFromRing() float32 {
	c.mutex.Lock()
	ticker := c.ticker
	c.mutex.Unlock()

	if ticker != nil {
		ticker.TickSample()
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	var sum float32
	for _, ch := range c.channels {
		if !ch.enabled {
			continue
		}
		sum += ch.generateWaveSample(float32(c.sampleRate)) * ch.volume * CHANNEL_MIX_LEVEL
	}

	if sum > 1 {
		sum = 1
	} else if sum < -1 {
		sum = -1
	}
	return sum
}
