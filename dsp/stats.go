package dsp

import (
	"fmt"
)

// EncoderStats collects what happened while encoding the library.
type EncoderStats struct {
	Waveforms      int
	TAWaveforms    int
	Markers        int
	CacheHits      int
	ClampedSamples int
	PaddingSamples int
	MaxSampleValue int16
	MinSampleValue int16
	EmptyShapes    int
	RoundedMarkers int // Durations that were not a whole number of quanta
}

func (es *EncoderStats) registerSample(v int16, clamped bool) {
	if clamped {
		es.ClampedSamples += 1
	}
	if v > es.MaxSampleValue {
		es.MaxSampleValue = v
	}
	if v < es.MinSampleValue {
		es.MinSampleValue = v
	}
}

func (es *EncoderStats) Reset() {
	*es = EncoderStats{}
}

func (es *EncoderStats) Print() {
	fmt.Printf("EncoderStats:\n"+
		" Waveforms = %d (%d TA)\n"+
		" Markers = %d\n"+
		" CacheHits = %d\n"+
		" ClampedSamples = %d\n"+
		" PaddingSamples = %d\n"+
		" SampleRange = [%d, %d]\n"+
		" EmptyShapes = %d\n"+
		" RoundedMarkers = %d\n",
		es.Waveforms, es.TAWaveforms,
		es.Markers,
		es.CacheHits,
		es.ClampedSamples,
		es.PaddingSamples,
		es.MinSampleValue, es.MaxSampleValue,
		es.EmptyShapes,
		es.RoundedMarkers)
}
