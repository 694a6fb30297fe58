package dsp

import (
	"math"

	"github.com/handegar/aps2c/base"
	"github.com/handegar/aps2c/settings"
	"github.com/handegar/aps2c/utils"
)

// ModulationEncoder builds the NCO words. One NCO serves every channel.
type ModulationEncoder struct {
	Clock float64
	NCO   uint8
}

func NewModulationEncoder() *ModulationEncoder {
	return &ModulationEncoder{Clock: settings.ModulationClock, NCO: base.NCO_DEFAULT}
}

// ResetPhase zeroes the phase and frame accumulators of all NCOs.
func (me *ModulationEncoder) ResetPhase() base.Instruction {
	instr, _ := base.Modulation(base.RESET_PHASE, base.NCO_ALL, 0)
	return instr
}

// Tuning word of 'freq' relative to the modulation clock. Frequencies are
// negated so a positive channel frequency shifts the carrier up.
func (me *ModulationEncoder) TuningWord(freq float64) (int32, error) {
	word := math.Round(-freq / me.Clock * float64(int64(1)<<base.PHASE_BITS))
	limit := float64(int64(1) << (base.PHASE_BITS - 1))
	if word < -limit || word >= limit {
		return 0, base.OutOfRange("frequency %g Hz outside +/- %g Hz", freq, me.Clock/2)
	}
	return int32(word), nil
}

func (me *ModulationEncoder) SetFreq(freq float64) (base.Instruction, error) {
	word, err := me.TuningWord(freq)
	if err != nil {
		return 0, err
	}
	return base.Modulation(base.SET_FREQ, me.NCO, word)
}

// Modulate advances the NCO alongside a waveform of 'quanta' quanta.
func (me *ModulationEncoder) Modulate(quanta uint32) (base.Instruction, error) {
	if quanta == 0 {
		return 0, base.OutOfRange("modulating zero quanta")
	}
	if quanta-1 > math.MaxInt32 {
		return 0, base.OutOfRange("modulation count %d exceeds %d", quanta-1, math.MaxInt32)
	}
	return base.Modulation(base.MODULATE, me.NCO, int32(quanta-1))
}

// Angle (radians) -> 28 bit signed fraction of a turn
func PhaseWord(angle float64) int32 {
	return utils.CyclesToFixed(angle/(2*math.Pi), base.PHASE_BITS)
}

// UpdateFrame is a zero-duration rotation of the channel frame.
func (me *ModulationEncoder) UpdateFrame(angle float64) (base.Instruction, error) {
	return base.Modulation(base.UPDATE_FRAME, me.NCO, PhaseWord(angle))
}

func (me *ModulationEncoder) SetPhase(angle float64) (base.Instruction, error) {
	return base.Modulation(base.SET_PHASE, me.NCO, PhaseWord(angle))
}
