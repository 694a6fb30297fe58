package disasm

import (
	"fmt"
	"math"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/handegar/aps2c/base"
	"github.com/handegar/aps2c/settings"
)

func PrintCodeListing(ops []Op) {
	fmt.Print(CodeListing(ops))
}

func CodeListing(ops []Op) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n;;\n;; Disassembly (%d instructions)\n;;\n", len(ops))

	targets := Targets(ops)
	for pos, op := range ops {
		if targets[pos] {
			fmt.Fprintf(&sb, "addr_%d:\n", pos)
		}
		sb.WriteString(OpCodeToString(op, true))
	}
	sb.WriteString("\n")
	return sb.String()
}

func OpCodeToString(op Op, showParamData bool) string {
	ret := "  "

	switch op.RawValue.Opcode() {
	case base.WFM:
		ret += WFM_ToString(op)
	case base.MARKER:
		ret += MARKER_ToString(op)
	case base.GOTO, base.CALL, base.REPEAT:
		ret += fmt.Sprintf("%-12s addr_%d", op.Name, op.RawValue.Target())
	case base.PREFETCH:
		ret += fmt.Sprintf("%-12s %d", op.Name, op.RawValue.Target())
	case base.LOAD:
		ret += fmt.Sprintf("%-12s %d", op.Name, op.RawValue.RepeatCount())
	case base.CMP:
		ret += CMP_ToString(op)
	case base.MODULATION:
		ret += MODULATION_ToString(op)
	default:
		ret += op.Name
	}

	if showParamData {
		diff := 40 - len(ret)
		if diff > 1 {
			ret += strings.Repeat(" ", diff)
		}

		ret += "\t;;"
		if settings.PrintDebug {
			ret += fmt.Sprintf(" [0x%016x] ", uint64(op.RawValue))
		}
		for _, a := range op.Args {
			ret += fmt.Sprintf(" %s=0x%x (%dbit)", a.Name, uint64(a.Value)&fieldMask(a.Len), a.Len)
		}
	}

	return ret + "\n"
}

func fieldMask(bits int) uint64 {
	if bits >= 64 {
		return math.MaxUint64
	}
	return uint64(1)<<bits - 1
}

func WFM_ToString(op Op) string {
	instr := op.RawValue
	return fmt.Sprintf("%-12s addr=%d, count=%d", op.Name, instr.Address(), instr.Count())
}

func MARKER_ToString(op Op) string {
	instr := op.RawValue
	state := "off"
	if instr.State() {
		state = "on"
	}
	return fmt.Sprintf("%-12s m%d, %s, quads=%d, transition=%%%04b",
		op.Name, instr.MarkerSelect(), state, instr.QuadCount(), instr.Transition())
}

func CMP_ToString(op Op) string {
	instr := op.RawValue
	return fmt.Sprintf("%-12s %s 0x%02x", op.Name,
		base.CompareOpNames[instr.CompareOp()], instr.CompareMask())
}

func MODULATION_ToString(op Op) string {
	instr := op.RawValue
	value := instr.Immediate()
	switch instr.ModulatorOp() {
	case base.SET_FREQ:
		freq := -float64(value) / float64(int64(1)<<base.PHASE_BITS) * settings.ModulationClock
		return fmt.Sprintf("%-12s nco%d, %d (%.6g Hz)", op.Name, instr.NCOSelect(), value, freq)
	case base.UPDATE_FRAME, base.SET_PHASE:
		angle := float64(value) / float64(int64(1)<<base.PHASE_BITS) * 2 * math.Pi
		return fmt.Sprintf("%-12s nco%d, %d (%.4f rad)", op.Name, instr.NCOSelect(), value, angle)
	case base.MODULATE:
		return fmt.Sprintf("%-12s nco%d, count=%d", op.Name, instr.NCOSelect(), value)
	}
	return fmt.Sprintf("%-12s nco%d", op.Name, instr.NCOSelect())
}

// Table renders the ops as a table.
func Table(ops []Op) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Instructions (%d)", len(ops)))
	t.AppendHeader(table.Row{"#", "Word", "Op", "Arguments", "Doc"})

	targets := Targets(ops)
	for pos, op := range ops {
		var args []string
		for _, a := range op.Args {
			args = append(args, fmt.Sprintf("%s=%d", a.Name, a.Value))
		}
		index := fmt.Sprintf("%d", pos)
		if targets[pos] {
			index += " *"
		}
		t.AppendRow(table.Row{
			index,
			fmt.Sprintf("0x%016x", uint64(op.RawValue)),
			op.Name,
			strings.Join(args, ", "),
			DocFor(op).Short,
		})
	}
	return t.Render()
}
