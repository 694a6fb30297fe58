package dsp

import (
	"github.com/handegar/aps2c/base"
	"github.com/handegar/aps2c/sequence"
	"github.com/handegar/aps2c/settings"
	"github.com/handegar/aps2c/utils"
)

// Sub-quantum transition words, indexed by duration mod 4
var RisingTransitions = [base.ADDRESS_UNIT]uint8{0b1111, 0b0111, 0b0011, 0b0001}
var FallingTransitions = [base.ADDRESS_UNIT]uint8{0b0000, 0b1000, 0b1100, 0b1110}

type MarkerEncoder struct {
	SampleRate float64
}

func NewMarkerEncoder() *MarkerEncoder {
	return &MarkerEncoder{SampleRate: settings.SampleRate}
}

// Transition splits a duration (in samples) into whole quanta and the
// transition word for the remainder.
func Transition(numSamples int, state bool) (uint32, uint8) {
	quad := uint32(numSamples / base.ADDRESS_UNIT)
	rem := numSamples % base.ADDRESS_UNIT
	if state {
		return quad, RisingTransitions[rem]
	}
	return quad, FallingTransitions[rem]
}

// Encode builds the marker word for 'p' on marker engine 'sel' (1..4).
// Markers take no waveform memory.
func (me *MarkerEncoder) Encode(p *sequence.Pulse, sel int) (*MarkerRecord, error) {
	numSamples := utils.DurationToSamples(p.Duration, me.SampleRate)
	if numSamples < 0 {
		return nil, base.OutOfRange("marker pulse '%s' has negative duration", p.ElementName())
	}

	rec := &MarkerRecord{
		ID:     p.ID,
		Select: sel,
		State:  p.Amplitude != 0,
		Write:  true,
	}
	rec.QuadCount, rec.Transition = Transition(numSamples, rec.State)

	var err error
	rec.Instr, err = base.Marker(rec.Select, rec.State, rec.QuadCount, rec.Transition, rec.Write)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
