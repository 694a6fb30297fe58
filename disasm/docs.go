package disasm

import (
	"github.com/handegar/aps2c/base"
)

type OpDoc struct {
	Short    string
	Long     string
	Formulae string
}

var OpDocs = map[string]OpDoc{
	"WFM": {Short: "Play waveform",
		Long: "WFM plays COUNT+1 quanta of waveform memory starting at ADDR. " +
			"With the TA bit set the four samples at ADDR are held for the " +
			"duration given by the preceding MODULATE.",
		Formulae: "play mem[ADDR*4 .. (ADDR+COUNT+1)*4]",
	},
	"MARKER": {Short: "Drive marker output",
		Long: "MARKER holds the selected marker at STATE for QUADS quanta and " +
			"then applies the 4-bit TRANSITION pattern within the last quantum.",
		Formulae: "m[SEL] = STATE for QUADS*4 samples",
	},
	"WAIT": {Short: "Wait for trigger",
		Long: "WAIT halts every engine until the next external trigger.",
	},
	"SYNC": {Short: "Synchronize engines",
		Long: "SYNC halts the sequencer until all engine queues have drained.",
	},
	"GOTO": {Short: "Jump",
		Long:     "GOTO continues execution at the absolute instruction index TARGET.",
		Formulae: "IP = TARGET",
	},
	"CALL": {Short: "Subroutine call",
		Long:     "CALL pushes the next instruction index on the stack and jumps to TARGET.",
		Formulae: "push(IP+1); IP = TARGET",
	},
	"RETURN": {Short: "Subroutine return",
		Long:     "RETURN pops an instruction index from the stack and continues there.",
		Formulae: "IP = pop()",
	},
	"LOAD": {Short: "Load repeat counter",
		Long:     "LOAD sets the repeat counter used by REPEAT.",
		Formulae: "RPT = COUNT",
	},
	"REPEAT": {Short: "Loop",
		Long: "REPEAT decrements the repeat counter and jumps to TARGET while " +
			"it has not run out.",
		Formulae: "if RPT > 0 { RPT -= 1; IP = TARGET }",
	},
	"CMP": {Short: "Compare",
		Long: "CMP compares the masked compare register with MASK and sets the " +
			"condition flag used by the next conditional branch.",
		Formulae: "FLAG = (CMP & MASK) OP MASK",
	},
	"LOADCMP": {Short: "Load compare register",
		Long: "LOADCMP loads the compare register from the next value of the " +
			"external message queue.",
	},
	"PREFETCH": {Short: "Prefetch waveforms",
		Long: "PREFETCH loads the waveform cache page starting at ADDR ahead " +
			"of playback.",
	},
	"MODULATE": {Short: "Modulate for a duration",
		Long: "MODULATE runs the selected NCO for COUNT+1 quanta alongside the " +
			"waveform word that follows.",
		Formulae: "quanta = COUNT + 1",
	},
	"RESET_PHASE": {Short: "Reset NCO phase",
		Long: "RESET_PHASE zeroes phase and frame of the selected NCOs.",
	},
	"SET_FREQ": {Short: "Set NCO frequency",
		Long: "SET_FREQ loads the phase increment of the selected NCO. The " +
			"value is a 28-bit fraction of a turn per modulation clock cycle.",
		Formulae: "INC = round(-f / clock * 2^28)",
	},
	"SET_PHASE": {Short: "Set NCO phase",
		Long:     "SET_PHASE sets the phase offset of the selected NCO.",
		Formulae: "PHASE = angle / 2pi * 2^28",
	},
	"UPDATE_FRAME": {Short: "Rotate frame",
		Long: "UPDATE_FRAME adds to the frame of the selected NCO. Used for " +
			"virtual Z rotations.",
		Formulae: "FRAME += angle / 2pi * 2^28",
	},
	"TRIGGER": {Short: "Trigger modulator",
		Long: "TRIGGER releases a queued modulation op.",
	},
	"NOP": {Short: "No-Operation",
		Long: "NOP does nothing.",
	},
}

// DocFor finds the documentation entry for 'op'. Sub-op suffixes such as
// "WFM TA" are looked up by their base name.
func DocFor(op Op) OpDoc {
	if doc, found := OpDocs[op.Name]; found {
		return doc
	}
	if doc, found := OpDocs[op.RawValue.Name()]; found {
		return doc
	}
	return OpDoc{Short: "Unknown"}
}

// BranchTarget returns the instruction index 'op' may jump to.
func BranchTarget(op Op) (int, bool) {
	switch op.RawValue.Opcode() {
	case base.GOTO, base.CALL, base.REPEAT:
		return int(op.RawValue.Target()), true
	}
	return 0, false
}
