package dsp

import (
	"math"
	"math/cmplx"

	"github.com/handegar/aps2c/base"
	"github.com/handegar/aps2c/sequence"
	"github.com/handegar/aps2c/settings"
	"github.com/handegar/aps2c/utils"
)

// WaveformEncoder turns analog pulses into waveform memory and
// waveform-play words.
type WaveformEncoder struct {
	SampleRate float64
	// Fold phase and frequency offset into the samples. When FALSE they are
	// left for the modulation engine.
	Bake  bool
	Cache *WaveformCache
}

func NewWaveformEncoder() *WaveformEncoder {
	we := &WaveformEncoder{
		SampleRate: settings.SampleRate,
		Bake:       settings.BakeModulation,
	}
	if settings.WaveformCacheSize > 0 {
		we.Cache = NewWaveformCache(settings.WaveformCacheSize)
	}
	return we
}

// Samples returns the pulse at the DAC rate with amplitude (and, when
// baking, phase and frequency offset) applied. Nothing is quantized yet.
func (we *WaveformEncoder) Samples(p *sequence.Pulse) []complex128 {
	var shape []complex128
	if len(p.Shape) == 0 {
		n := utils.DurationToSamples(p.Duration, we.SampleRate)
		shape = make([]complex128, n)
		for i := range shape {
			shape[i] = 1.0
		}
	} else {
		shape = make([]complex128, len(p.Shape))
		copy(shape, p.Shape)
	}

	amp := complex(p.Amplitude, 0)
	for i := range shape {
		shape[i] *= amp
		if we.Bake && (p.Phase != 0 || p.FrequencyOffset != 0) {
			t := float64(i) / we.SampleRate
			shape[i] *= cmplx.Exp(complex(0, 2*math.Pi*p.FrequencyOffset*t+p.Phase))
		}
	}
	return shape
}

// Quantize scales 'samples' to the DAC range and clamps them.
func Quantize(samples []complex128, stats *EncoderStats) ([]int16, []int16) {
	is := make([]int16, len(samples))
	qs := make([]int16, len(samples))
	for k, s := range samples {
		var clampedI, clampedQ bool
		is[k], clampedI = utils.FloatToDAC(real(s))
		qs[k], clampedQ = utils.FloatToDAC(imag(s))
		if stats != nil {
			stats.registerSample(is[k], clampedI)
			stats.registerSample(qs[k], clampedQ)
		}
	}
	return is, qs
}

func isConstant(is []int16, qs []int16) bool {
	if len(is) == 0 {
		return true
	}
	for k := 1; k < len(is); k++ {
		if is[k] != is[0] || qs[k] != qs[0] {
			return false
		}
	}
	return true
}

// Encode appends the pulse to 'mem' and returns its record. Constant
// pulses are stored as a single quantum and flagged TA.
func (we *WaveformEncoder) Encode(p *sequence.Pulse, mem *Memory, stats *EncoderStats) (*WaveformRecord, error) {
	if stats == nil {
		stats = &EncoderStats{}
	}

	is, qs := Quantize(we.Samples(p), stats)
	numSamples := utils.PadToQuanta(len(is))
	rec := &WaveformRecord{
		ID:     p.ID,
		Length: uint32(numSamples / base.ADDRESS_UNIT),
		IsTA:   isConstant(is, qs),
		Write:  true,
	}
	if len(is) == 0 {
		stats.EmptyShapes += 1
	}

	var storeI, storeQ []int16
	if rec.IsTA {
		var vi, vq int16
		if len(is) > 0 {
			vi, vq = is[0], qs[0]
		}
		storeI = []int16{vi, vi, vi, vi}
		storeQ = []int16{vq, vq, vq, vq}
		rec.Count = 0
		stats.TAWaveforms += 1
	} else {
		storeI = make([]int16, numSamples)
		storeQ = make([]int16, numSamples)
		copy(storeI, is)
		copy(storeQ, qs)
		stats.PaddingSamples += numSamples - len(is)
		rec.Count = rec.Length - 1
	}

	var err error
	address, cached := uint32(0), false
	if we.Cache != nil {
		address, cached = we.Cache.Get(storeI, storeQ)
	}
	if cached {
		stats.CacheHits += 1
	} else {
		address, err = mem.Append(storeI, storeQ)
		if err != nil {
			return nil, err
		}
		if we.Cache != nil {
			we.Cache.Add(storeI, storeQ, address)
		}
	}
	rec.Address = address

	rec.Instr, err = base.Waveform(rec.Address, rec.Count, rec.IsTA, rec.Write)
	if err != nil {
		return nil, err
	}
	stats.Waveforms += 1
	return rec, nil
}
