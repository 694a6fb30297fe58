package utils

import (
	"fmt"
	"math"

	"github.com/handegar/aps2c/base"
)

func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("Assertion failed: "+format, args...))
	}
}

// Returns TRUE on second value if value were clamped
func ClampDAC(value int64) (int16, bool) {
	if value > base.MAX_WAVEFORM_VALUE {
		return base.MAX_WAVEFORM_VALUE, true
	} else if value < -base.MAX_WAVEFORM_VALUE {
		return -base.MAX_WAVEFORM_VALUE, true
	}
	return int16(value), false
}

// [-1.0, 1.0] -> 14 bit signed DAC value (round half away from zero)
func FloatToDAC(value float64) (int16, bool) {
	return ClampDAC(int64(math.Round(value * base.MAX_WAVEFORM_VALUE)))
}

func DACToFloat(value int16) float64 {
	return float64(value) / base.MAX_WAVEFORM_VALUE
}

// Sign-extend the lower 'bits' bits of 'value'
func SignExtend(value uint32, bits int) int32 {
	// Shift all the way to the left to make the sign-bit "stick", then
	// back again.
	shl := uint(32 - bits)
	return int32(value<<shl) >> shl
}

// Fraction of a full turn -> 'bits' bit signed fixed-point word. The
// fraction is wrapped into [0, 1) before scaling.
func CyclesToFixed(cycles float64, bits int) int32 {
	cycles = math.Mod(cycles, 1.0)
	if cycles < 0 {
		cycles += 1.0
	}
	scaled := int64(math.Round(cycles * float64(int64(1)<<bits)))
	return SignExtend(uint32(scaled&(int64(1)<<bits-1)), bits)
}

// Number of samples rounded up to a whole number of quanta
func PadToQuanta(numSamples int) int {
	if numSamples <= 0 {
		return base.ADDRESS_UNIT
	}
	rem := numSamples % base.ADDRESS_UNIT
	if rem == 0 {
		return numSamples
	}
	return numSamples + base.ADDRESS_UNIT - rem
}

// Seconds -> whole samples at 'rate'
func DurationToSamples(duration float64, rate float64) int {
	return int(math.Round(duration * rate))
}
