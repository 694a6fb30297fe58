package base

// Opcodes (upper 4 bits of the instruction header)
const (
	WFM        uint8 = 0x0
	MARKER     uint8 = 0x1
	WAIT       uint8 = 0x2
	LOAD       uint8 = 0x3 // Load repeat counter
	REPEAT     uint8 = 0x4 // Decrement repeat counter and branch
	CMP        uint8 = 0x5
	GOTO       uint8 = 0x6
	CALL       uint8 = 0x7
	RET        uint8 = 0x8
	SYNC       uint8 = 0x9
	MODULATION uint8 = 0xA
	LOADCMP    uint8 = 0xB
	PREFETCH   uint8 = 0xC
	NOP        uint8 = 0xF
)

// Header layout
const (
	OPCODE_OFFSET = 4 // Within the header byte
	SELECT_OFFSET = 2
	HEADER_OFFSET = 56
	PAYLOAD_BITS  = 56

	// Engine select used by waveform words
	WAVEFORM_SELECT uint8 = 0x3
)

// Waveform/marker sub-ops
const (
	PLAY         uint8 = 0x0
	WAIT_TRIG    uint8 = 0x1
	WAIT_SYNC    uint8 = 0x2
	WFM_PREFETCH uint8 = 0x3

	WFM_OP_OFFSET = 46
	TA_OFFSET     = 45
	COUNT_OFFSET  = 24
	COUNT_BITS    = 20
	ADDRESS_BITS  = 24
)

// Marker payload
const (
	TRANSITION_OFFSET = 33
	TRANSITION_BITS   = 4
	STATE_OFFSET      = 32
	QUAD_COUNT_BITS   = 28
)

// Modulation payload
const (
	MODULATOR_OP_OFFSET  = 44
	NCO_SELECT_OFFSET    = 40
	MODULATOR_VALUE_BITS = 32

	MODULATE     uint8 = 0x0
	RESET_PHASE  uint8 = 0x2
	TRIGGER      uint8 = 0x3
	SET_FREQ     uint8 = 0x6
	SET_PHASE    uint8 = 0xA
	UPDATE_FRAME uint8 = 0xE

	NCO_ALL     uint8 = 0x7
	NCO_DEFAULT uint8 = 0x1

	// Phase and frequency words carry 28 significant bits
	PHASE_BITS = 28
)

// Compare ops
const (
	EQUAL       uint8 = 0x0
	NOTEQUAL    uint8 = 0x1
	GREATERTHAN uint8 = 0x2
	LESSTHAN    uint8 = 0x3
)

// Hardware limits
const (
	ADDRESS_UNIT         = 4
	TARGET_BITS          = 26
	MAX_WAVEFORM_PTS     = 1 << 28
	MAX_WAVEFORM_VALUE   = 1<<13 - 1
	MAX_NUM_INSTRUCTIONS = 1 << 26
	MAX_REPEAT_COUNT     = 1<<16 - 1
	MAX_MARKER_COUNT     = 1<<28 - 1
	MAX_WAVEFORM_COUNT   = 1<<COUNT_BITS - 1
	MAX_WAVEFORM_ADDRESS = 1<<ADDRESS_BITS - 1
	NUM_MARKERS          = 4
)

var OpcodeNames = map[uint8]string{
	WFM:        "WFM",
	MARKER:     "MARKER",
	WAIT:       "WAIT",
	LOAD:       "LOAD",
	REPEAT:     "REPEAT",
	CMP:        "CMP",
	GOTO:       "GOTO",
	CALL:       "CALL",
	RET:        "RETURN",
	SYNC:       "SYNC",
	MODULATION: "MODULATION",
	LOADCMP:    "LOADCMP",
	PREFETCH:   "PREFETCH",
	NOP:        "NOP",
}

var ModulatorOpNames = map[uint8]string{
	MODULATE:     "MODULATE",
	RESET_PHASE:  "RESET_PHASE",
	TRIGGER:      "TRIGGER",
	SET_FREQ:     "SET_FREQ",
	SET_PHASE:    "SET_PHASE",
	UPDATE_FRAME: "UPDATE_FRAME",
}

var CompareOpNames = map[uint8]string{
	EQUAL:       "==",
	NOTEQUAL:    "!=",
	GREATERTHAN: ">",
	LESSTHAN:    "<",
}
