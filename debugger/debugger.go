package debugger

import (
	"fmt"
	"strings"

	termui "github.com/gizak/termui/v3"
	ui "github.com/gizak/termui/v3"
	widgets "github.com/gizak/termui/v3/widgets"

	"github.com/handegar/aps2c/base"
	"github.com/handegar/aps2c/disasm"
	"github.com/handegar/aps2c/settings"
)

const (
	MainScreen int = iota
	MemoryScreen
	HelpScreen
)

type UIState struct {
	terminalWidth  int
	terminalHeight int
	centerLine     int

	currentScreen int
	cursor        int // Instruction under inspection
	memoryCursor  int // Sample index
}

var uiState UIState

var boxTitleStyle = termui.NewStyle(termui.ColorRed, termui.ColorBlue)

func Init() {
	width, height := termui.TerminalDimensions()
	uiState = UIState{}
	uiState.terminalHeight = height
	uiState.terminalWidth = width
	uiState.centerLine = max(width/2, 53)
}

// Run opens an interactive view of 'c' and returns when the user quits.
func Run(c *base.Container) error {
	if err := ui.Init(); err != nil {
		return err
	}
	defer ui.Close()

	Init()
	ops := disasm.DecodeOps(c.Instructions)

	for {
		UpdateScreen(c, ops)
		if WaitForInput(c, ops) == "quit" {
			return nil
		}
	}
}

/*
Handles events until one requires a redraw or exit. Returns "quit" or
"redraw".
*/
func WaitForInput(c *base.Container, ops []disasm.Op) string {
	for e := range ui.PollEvents() {
		switch e.ID {
		case "q", "<C-c>", "<Escape>":
			if uiState.currentScreen != MainScreen {
				uiState.currentScreen = MainScreen
				return "redraw"
			}
			return "quit"
		case "n", "<Down>":
			moveCursor(1, len(ops))
			return "redraw"
		case "p", "<Up>":
			moveCursor(-1, len(ops))
			return "redraw"
		case "<PageDown>":
			moveCursor(uiState.terminalHeight/2, len(ops))
			return "redraw"
		case "<PageUp>":
			moveCursor(-uiState.terminalHeight/2, len(ops))
			return "redraw"
		case "j", "<Enter>":
			if len(ops) > 0 {
				if target, ok := disasm.BranchTarget(ops[uiState.cursor]); ok && target < len(ops) {
					uiState.cursor = target
				}
			}
			return "redraw"
		case "w":
			// Jump the memory map to the waveform of the current op
			if len(ops) > 0 && ops[uiState.cursor].RawValue.Opcode() == base.WFM {
				uiState.memoryCursor = int(ops[uiState.cursor].RawValue.Address()) * base.ADDRESS_UNIT
				uiState.currentScreen = MemoryScreen
			}
			return "redraw"
		case "6":
			moveMemoryCursor(base.ADDRESS_UNIT, len(c.WaveformsI))
			return "redraw"
		case "4":
			moveMemoryCursor(-base.ADDRESS_UNIT, len(c.WaveformsI))
			return "redraw"
		case "2":
			moveMemoryCursor(base.ADDRESS_UNIT*128, len(c.WaveformsI))
			return "redraw"
		case "8":
			moveMemoryCursor(-base.ADDRESS_UNIT*128, len(c.WaveformsI))
			return "redraw"
		case "h", "<F1>", "?":
			if uiState.currentScreen == HelpScreen {
				uiState.currentScreen = MainScreen
			} else {
				uiState.currentScreen = HelpScreen
			}
			return "redraw"
		case "m", "<F2>":
			if uiState.currentScreen == MemoryScreen {
				uiState.currentScreen = MainScreen
			} else {
				uiState.currentScreen = MemoryScreen
			}
			return "redraw"
		case "<Resize>":
			width, height := termui.TerminalDimensions()
			uiState.terminalHeight = height
			uiState.terminalWidth = width
			uiState.centerLine = max(width/2, 53)
			return "redraw"
		}
	}

	return "quit"
}

func moveCursor(delta int, numOps int) {
	uiState.cursor = clampIndex(uiState.cursor+delta, numOps)
}

func moveMemoryCursor(delta int, numSamples int) {
	uiState.memoryCursor = clampIndex(uiState.memoryCursor+delta, numSamples)
}

func clampIndex(i int, length int) int {
	if i >= length {
		i = length - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func UpdateScreen(c *base.Container, ops []disasm.Op) {
	ui.Clear()
	switch uiState.currentScreen {
	case HelpScreen:
		renderHelpScreen()
	case MemoryScreen:
		renderMemoryMap(c, uiState.memoryCursor)
	default:
		renderMainScreen(c, ops)
	}
}

func renderMainScreen(c *base.Container, ops []disasm.Op) {
	updateCodeView(ops)
	updateContainerView(c)
	updateFieldsView(ops)
	updateMetaInfoView(ops)
	updateHelpLineView()
}

func updateHelpLineView() {
	helpLine := widgets.NewParagraph()
	helpLine.Text =
		"[ESC/q:](fg:black) Quit [|](fg:white,bg:black) " +
			"[F1/h/?:](fg:black) Help [|](fg:white,bg:black) " +
			"[m/F2:](fg:black) Memory [|](fg:white,bg:black) " +
			"[j:](fg:black) Follow branch [|](fg:white,bg:black) " +
			"[n/Down:](fg:black) Next op "

	helpLine.Border = false
	helpLine.TextStyle = boxTitleStyle
	helpLine.SetRect(0, uiState.terminalHeight-1, uiState.terminalWidth, uiState.terminalHeight)

	ui.Render(helpLine)
}

func renderHelpScreen() {
	width, height := uiState.terminalWidth, uiState.terminalHeight
	ypos := 0

	frame := widgets.NewParagraph()
	frame.Title = "  Help / Keys / Keywords  "
	frame.TitleStyle = boxTitleStyle
	frame.SetRect(0, 0, width, height)
	ypos += 1

	keys := widgets.NewList()
	keys.Border = false
	keys.TextStyle = termui.NewStyle(termui.ColorYellow)

	keys.Rows = append(keys.Rows, "Keys:")
	keys.Rows = append(keys.Rows, " h, F1, ?:          [This help-page](fg:white)")
	keys.Rows = append(keys.Rows, " ESC, q, CTRL-C:    [Quit / exit help](fg:white)")
	keys.Rows = append(keys.Rows, " n, DownKey:        [Next instruction](fg:white)")
	keys.Rows = append(keys.Rows, " p, UpKey:          [Previous instruction](fg:white)")
	keys.Rows = append(keys.Rows, " PgDn, PgUp:        [Skip half a screen](fg:white)")
	keys.Rows = append(keys.Rows, " j, Enter:          [Follow GOTO/CALL/REPEAT target](fg:white)")
	keys.Rows = append(keys.Rows, " w:                 [Show waveform of the current WFM](fg:white)")
	keys.Rows = append(keys.Rows, " m, F2:             [Show waveform memory map](fg:white)")
	keys.Rows = append(keys.Rows, " 6 / 4:             [Memory map: Next / prev quantum](fg:white)")
	keys.Rows = append(keys.Rows, " 2 / 8:             [Memory map: Skip 128 quanta](fg:white)")

	keys.SetRect(1, ypos, width-1, ypos+len(keys.Rows)+2)
	ypos += len(keys.Rows) + 1

	help := widgets.NewParagraph()
	help.Border = false
	help.Text = "[Keywords:](fg:cyan)\n" +
		" [Quantum](fg:yellow):   Four samples. Addresses and counts are in quanta.\n" +
		" [TA](fg:yellow):        Time-amplitude. Four stored samples held for the\n" +
		"            duration of the preceding MODULATE.\n" +
		" [NCO](fg:yellow):       Numerically controlled oscillator of the modulator.\n" +
		" [Transition](fg:yellow): 4-bit marker pattern played in the last quantum.\n"

	help.SetRect(1, ypos, width-1, height-1)

	ui.Render(frame)
	ui.Render(keys)
	ui.Render(help)
}

// Prints the code with a highlighted current-op
func updateCodeView(ops []disasm.Op) {
	code := widgets.NewParagraph()
	code.Title = fmt.Sprintf("  Instructions (%d) ", len(ops))
	code.TitleStyle = boxTitleStyle

	height := uiState.terminalHeight - 6
	code.Text = strings.Join(generateCodeListing(ops, uiState.cursor, height-2), "\n")
	code.SetRect(0, 0, uiState.centerLine, height)

	ui.Render(code)
}

// Lines of the listing around 'cursor', with labels for branch targets
func generateCodeListing(ops []disasm.Op, cursor int, screenHeight int) []string {
	var lines []string
	targets := disasm.Targets(ops)

	lineNo := 0
	if cursor > screenHeight/2 {
		lineNo = cursor - screenHeight/2
	}

	for i := lineNo; i < len(ops) && len(lines) < screenHeight; i++ {
		if targets[i] {
			lines = append(lines, fmt.Sprintf("[addr_%d:](fg:cyan)", i))
		}

		codeColor := "fg:white"
		numColor := "fg:yellow"
		if i == cursor {
			codeColor = "fg:red,bg:white,mod:bold"
			numColor = "fg:black,bg:white,mod:bold"
		}

		str := strings.TrimRight(disasm.OpCodeToString(ops[i], false), "\n")
		lines = append(lines, fmt.Sprintf("[%5d](%s)[ %s ](%s)", i, numColor, str, codeColor))
	}
	return lines
}

func containerSummary(c *base.Container) string {
	channels := []string{}
	for _, ch := range c.ChannelDataFor {
		channels = append(channels, fmt.Sprintf("%d", ch))
	}
	return fmt.Sprintf(" [Target:](fg:yellow) %s, [Version:](fg:yellow) %.1f, [Min firmware:](fg:yellow) %.1f\n"+
		" [Channels:](fg:yellow) %s\n"+
		" [Instructions:](fg:yellow) %d, [Samples:](fg:yellow) %d (%d quanta)\n",
		c.TargetHardware, c.Version, c.MinFirmwareVersion,
		strings.Join(channels, ", "),
		len(c.Instructions), len(c.WaveformsI), len(c.WaveformsI)/base.ADDRESS_UNIT)
}

func updateContainerView(c *base.Container) {
	p := widgets.NewParagraph()
	p.Title = "  Container  "
	p.TitleStyle = boxTitleStyle
	p.BorderStyle = termui.NewStyle(termui.ColorGreen)
	p.Text = containerSummary(c)
	p.SetRect(uiState.centerLine-1, 0, uiState.terminalWidth, 5)

	ui.Render(p)
}

// Decoded fields of the current instruction
func fieldsText(op disasm.Op) string {
	instr := op.RawValue
	write := 0
	if instr.Write() {
		write = 1
	}

	ret := fmt.Sprintf(" [Word:](fg:yellow,mod:bold) 0x%016x\n", uint64(instr))
	ret += fmt.Sprintf(" [Header:](fg:yellow) 0x%02x  [Opcode:](fg:cyan) 0x%x (%s)  "+
		"[Select:](fg:cyan) %d  [Write:](fg:cyan) %d\n",
		instr.Header(), instr.Opcode(), instr.Name(), instr.Select(), write)
	ret += fmt.Sprintf(" [Payload:](fg:yellow) 0x%014x\n", instr.Payload())
	for _, a := range op.Args {
		ret += fmt.Sprintf(" [%s:](fg:cyan) %d [(%d bit)](fg:gray)\n", a.Name, a.Value, a.Len)
	}
	return ret
}

func updateFieldsView(ops []disasm.Op) {
	p := widgets.NewParagraph()
	p.Title = fmt.Sprintf("  Fields (#%d)  ", uiState.cursor)
	p.TitleStyle = boxTitleStyle
	p.BorderStyle = termui.NewStyle(termui.ColorGreen)
	if len(ops) > 0 {
		p.Text = fieldsText(ops[uiState.cursor])
	}
	p.SetRect(uiState.centerLine-1, 5, uiState.terminalWidth, uiState.terminalHeight-6)

	ui.Render(p)
}

// Prints the docs for the current op
func updateMetaInfoView(ops []disasm.Op) {
	twidth, theight := uiState.terminalWidth, uiState.terminalHeight-1

	infoP := widgets.NewParagraph()
	infoP.Title = "  Info  "
	infoP.TitleStyle = boxTitleStyle
	if len(ops) > 0 {
		op := ops[uiState.cursor]
		opDoc := disasm.DocFor(op)
		infoP.Text = fmt.Sprintf("[%s](fg:red): [%s](fg:yellow) (%s)\n[%s](fg:cyan)",
			op.Name, opDoc.Short, opDoc.Formulae, opDoc.Long)
	}
	infoP.SetRect(0, theight-5, twidth, theight)

	versionP := widgets.NewParagraph()
	versionP.Border = false
	versionP.PaddingBottom = 0
	versionP.PaddingTop = 0
	versionP.PaddingLeft = 0
	versionP.PaddingRight = 0
	versionP.Text = fmt.Sprintf("[v%s](fg:blue)", settings.Version)
	versionP.SetRect(twidth-len(settings.Version)-6, theight-1, twidth-3, theight)

	ui.Render(infoP)
	ui.Render(versionP)
}
