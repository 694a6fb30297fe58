package disasm

import (
	"fmt"

	"github.com/eiannone/keyboard"
	"github.com/fatih/color"
)

const stepPrompt = "< (N)ext op | (F)ollow branch | (D)oc | (P)rint op | (Q)uit >"

// StepListing walks the listing one op at a time. Returns when the end
// is reached or the user quits.
func StepListing(ops []Op) error {
	if err := keyboard.Open(); err != nil {
		return err
	}
	defer func() {
		_ = keyboard.Close()
	}()

	for ip := 0; ip < len(ops); {
		op := ops[ip]
		color.Blue("IP=%d (of %d), WORD=0x%016x", ip, len(ops), uint64(op.RawValue))
		color.Cyan(OpCodeToString(op, true))

		next := ip + 1
		color.Yellow(stepPrompt)
	prompt:
		for {
			char, _, err := keyboard.GetKey()
			if err != nil {
				return err
			}

			switch char {
			case 'q':
				return nil
			case 'p':
				color.Cyan(OpCodeToString(op, true))
				color.Yellow(stepPrompt)
			case 'd':
				doc := DocFor(op)
				color.White("%s: %s", op.Name, doc.Short)
				fmt.Println(doc.Long)
				if doc.Formulae != "" {
					color.Green("  %s", doc.Formulae)
				}
				color.Yellow(stepPrompt)
			case 'f':
				if target, ok := BranchTarget(op); ok {
					color.Red("Following branch to %d", target)
					next = target
				}
				break prompt
			case 'n':
				break prompt
			}
		}

		ip = next
	}

	color.Green("End of program")
	return nil
}
