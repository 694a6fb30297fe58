package disasm

import (
	"fmt"

	"github.com/handegar/aps2c/base"
)

type OpArg struct {
	Name  string
	Value int64
	Len   int // Length of the field (in bits)
}

// Op is a decoded instruction word.
type Op struct {
	Name     string
	Args     []OpArg
	RawValue base.Instruction
}

func (op Op) Arg(name string) (int64, bool) {
	for _, a := range op.Args {
		if a.Name == name {
			return a.Value, true
		}
	}
	return 0, false
}

var subOpNames = map[uint8]string{
	base.PLAY:         "",
	base.WAIT_TRIG:    " WAIT_TRIG",
	base.WAIT_SYNC:    " WAIT_SYNC",
	base.WFM_PREFETCH: " PREFETCH",
}

func DecodeOp(instr base.Instruction) Op {
	op := Op{Name: instr.Name(), RawValue: instr}

	switch instr.Opcode() {
	case base.WFM:
		op.Name += subOpNames[instr.SubOp()]
		if instr.IsTA() {
			op.Name += " TA"
		}
		op.Args = []OpArg{
			{"addr", int64(instr.Address()), base.ADDRESS_BITS},
			{"count", int64(instr.Count()), base.COUNT_BITS},
		}
		if instr.Write() {
			op.Args = append(op.Args, OpArg{"write", 1, 1})
		}
	case base.MARKER:
		op.Name += subOpNames[instr.SubOp()]
		state := int64(0)
		if instr.State() {
			state = 1
		}
		op.Args = []OpArg{
			{"sel", int64(instr.MarkerSelect()), 2},
			{"state", state, 1},
			{"quads", int64(instr.QuadCount()), base.QUAD_COUNT_BITS},
			{"transition", int64(instr.Transition()), base.TRANSITION_BITS},
		}
	case base.GOTO, base.CALL, base.REPEAT:
		op.Args = []OpArg{{"target", int64(instr.Target()), base.TARGET_BITS}}
	case base.PREFETCH:
		op.Args = []OpArg{{"addr", int64(instr.Target()), base.TARGET_BITS}}
	case base.LOAD:
		op.Args = []OpArg{{"count", int64(instr.RepeatCount()), 16}}
	case base.CMP:
		op.Args = []OpArg{
			{"op", int64(instr.CompareOp()), 2},
			{"mask", int64(instr.CompareMask()), 8},
		}
	case base.MODULATION:
		name, found := base.ModulatorOpNames[instr.ModulatorOp()]
		if !found {
			name = fmt.Sprintf("MODULATION<0x%x>", instr.ModulatorOp())
		}
		op.Name = name
		op.Args = []OpArg{
			{"nco", int64(instr.NCOSelect()), 4},
			{"value", int64(instr.Immediate()), base.MODULATOR_VALUE_BITS},
		}
	}

	return op
}

func DecodeOps(buffer []base.Instruction) []Op {
	var ret []Op
	for _, b := range buffer {
		ret = append(ret, DecodeOp(b))
	}
	return ret
}

// Targets returns the instruction indices jumped to by any op.
func Targets(ops []Op) map[int]bool {
	ret := make(map[int]bool)
	for _, op := range ops {
		if target, ok := BranchTarget(op); ok {
			ret[target] = true
		}
	}
	return ret
}
