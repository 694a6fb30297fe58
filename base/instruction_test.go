package base

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Header(t *testing.T) {
	instr := NewInstruction(MARKER, 0x2, true, 0)
	assert.Equal(t, uint8(0x1<<4|0x2<<2|0x1), instr.Header())
	assert.Equal(t, MARKER, instr.Opcode())
	assert.Equal(t, uint8(0x2), instr.Select())
	assert.True(t, instr.Write())
	assert.Equal(t, uint64(0), instr.Payload())

	// Payload never leaks into the header
	instr = NewInstruction(GOTO, 0, false, ^uint64(0))
	assert.Equal(t, GOTO, instr.Opcode())
	assert.False(t, instr.Write())
	assert.Equal(t, uint64(1)<<56-1, instr.Payload())
}

func Test_Waveform(t *testing.T) {
	t.Run("Play", func(t *testing.T) {
		instr, err := Waveform(12, 7, false, true)
		require.NoError(t, err)
		assert.Equal(t, WFM, instr.Opcode())
		assert.Equal(t, WAVEFORM_SELECT, instr.Select())
		assert.Equal(t, PLAY, instr.SubOp())
		assert.False(t, instr.IsTA())
		assert.Equal(t, uint32(7), instr.Count())
		assert.Equal(t, uint32(12), instr.Address())
		assert.True(t, instr.Write())
	})

	t.Run("TA", func(t *testing.T) {
		instr, err := Waveform(3, 0, true, true)
		require.NoError(t, err)
		assert.True(t, instr.IsTA())
		assert.Equal(t, uint32(0), instr.Count())
		assert.Equal(t, uint32(3), instr.Address())
	})

	t.Run("Limits", func(t *testing.T) {
		_, err := Waveform(MAX_WAVEFORM_ADDRESS, MAX_WAVEFORM_COUNT, false, true)
		assert.NoError(t, err)

		_, err = Waveform(MAX_WAVEFORM_ADDRESS+1, 0, false, true)
		assert.ErrorIs(t, err, ErrRangeViolation)

		_, err = Waveform(0, MAX_WAVEFORM_COUNT+1, false, true)
		assert.ErrorIs(t, err, ErrRangeViolation)
	})
}

func Test_Marker(t *testing.T) {
	instr, err := Marker(3, true, 25, 0b0111, true)
	require.NoError(t, err)
	assert.Equal(t, MARKER, instr.Opcode())
	assert.Equal(t, 3, instr.MarkerSelect())
	assert.True(t, instr.State())
	assert.Equal(t, uint32(25), instr.QuadCount())
	assert.Equal(t, uint8(0b0111), instr.Transition())

	_, err = Marker(5, false, 0, 0, true)
	assert.ErrorIs(t, err, ErrRangeViolation)

	_, err = Marker(1, false, MAX_MARKER_COUNT+1, 0, true)
	assert.ErrorIs(t, err, ErrRangeViolation)
}

func Test_ControlFlow(t *testing.T) {
	assert.Equal(t, WAIT, Wait().Opcode())
	assert.Equal(t, WAIT_TRIG, Wait().SubOp())
	assert.Equal(t, SYNC, Sync().Opcode())
	assert.Equal(t, WAIT_SYNC, Sync().SubOp())
	assert.Equal(t, RET, Return().Opcode())
	assert.Equal(t, LOADCMP, LoadCompare().Opcode())

	for _, target := range []uint32{0, 1, 4096, MAX_NUM_INSTRUCTIONS - 1} {
		instr, err := Goto(target)
		require.NoError(t, err)
		assert.Equal(t, GOTO, instr.Opcode())
		assert.Equal(t, target, instr.Target())
	}

	_, err := Goto(MAX_NUM_INSTRUCTIONS)
	assert.ErrorIs(t, err, ErrRangeViolation)

	instr, err := Call(77)
	require.NoError(t, err)
	assert.Equal(t, CALL, instr.Opcode())
	assert.Equal(t, uint32(77), instr.Target())

	instr, err = LoadRepeat(MAX_REPEAT_COUNT)
	require.NoError(t, err)
	assert.Equal(t, uint32(MAX_REPEAT_COUNT), instr.RepeatCount())
	_, err = LoadRepeat(MAX_REPEAT_COUNT + 1)
	assert.ErrorIs(t, err, ErrRangeViolation)

	instr, err = Compare(GREATERTHAN, 0x5a)
	require.NoError(t, err)
	assert.Equal(t, GREATERTHAN, instr.CompareOp())
	assert.Equal(t, uint8(0x5a), instr.CompareMask())
	_, err = Compare(0x7, 0)
	assert.ErrorIs(t, err, ErrUnsupportedConstruct)
}

func Test_Modulation(t *testing.T) {
	instr, err := Modulation(SET_FREQ, NCO_DEFAULT, -1234567)
	require.NoError(t, err)
	assert.Equal(t, MODULATION, instr.Opcode())
	assert.Equal(t, SET_FREQ, instr.ModulatorOp())
	assert.Equal(t, NCO_DEFAULT, instr.NCOSelect())
	assert.Equal(t, int32(-1234567), instr.Immediate())

	_, err = Modulation(0x5, NCO_DEFAULT, 0)
	assert.ErrorIs(t, err, ErrUnsupportedConstruct)
}

func Test_Kind(t *testing.T) {
	assert.Equal(t, ErrRangeViolation, Kind(OutOfRange("x=%d", 1)))
	assert.Equal(t, ErrUnsupportedConstruct, Kind(Unsupported("thing")))
	assert.Equal(t, ErrInvalidChannelMap, Kind(InvalidChannelMap("empty")))
	assert.Nil(t, Kind(nil))
}
