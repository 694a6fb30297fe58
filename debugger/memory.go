package debugger

import (
	"fmt"

	termui "github.com/gizak/termui/v3"
	ui "github.com/gizak/termui/v3"
	widgets "github.com/gizak/termui/v3/widgets"

	"github.com/handegar/aps2c/base"
	"github.com/handegar/aps2c/utils"
)

const VALUE_TABLE_ROWS = 2
const VALUE_COLOR = "(fg:red)"

func renderMemoryMap(c *base.Container, cursorPosition int) {
	width, height := termui.TerminalDimensions()
	ypos := 0

	valuesPerChar := calculateMemoryValuesPerChar(len(c.WaveformsI), width, height)

	memMap := widgets.NewParagraph()
	memMap.Title = fmt.Sprintf("  '▓': 3/3 set | '▒': 2/3 set | '░': 1/3 set | '.': Zero  "+
		"(%d samples)  ", len(c.WaveformsI))
	memMap.TitleStyle = termui.NewStyle(termui.ColorYellow, termui.ColorBlue)
	memMapTxt := buildMemMapText(c.WaveformsI, c.WaveformsQ, width-1, valuesPerChar, cursorPosition)
	memMap.Text = colorMemoryMap(memMapTxt)
	memMap.BorderStyle = termui.NewStyle(termui.ColorGreen)
	memMap.SetRect(0, 0, width, height-(VALUE_TABLE_ROWS+3))
	ypos += height - (VALUE_TABLE_ROWS + 3)

	infoP := widgets.NewParagraph()
	infoP.Border = false
	infoP.PaddingBottom = 0
	infoP.PaddingTop = 0
	infoP.PaddingLeft = 0
	infoP.PaddingRight = 0
	txt := fmt.Sprintf("'C': Cursor | One character is %d samples", valuesPerChar)
	infoP.Text = fmt.Sprintf("[%s](fg:blue)", txt)
	infoP.SetRect(width-len(txt)-4, ypos-1, width-2, ypos)

	zoomTable := buildZoomTable(c, cursorPosition)
	zoomTable.SetRect(0, ypos, width, ypos+VALUE_TABLE_ROWS+3)

	ui.Render(memMap)
	ui.Render(infoP)
	ui.Render(zoomTable)
}

// Shows the I and Q values of the quantum under the cursor
func buildZoomTable(c *base.Container, cursorPosition int) *widgets.Table {
	table := widgets.NewTable()
	table.RowSeparator = false

	start := (cursorPosition / base.ADDRESS_UNIT) * base.ADDRESS_UNIT

	header := []string{fmt.Sprintf("addr %d", start/base.ADDRESS_UNIT)}
	is := []string{"I"}
	qs := []string{"Q"}
	for i := start; i < start+base.ADDRESS_UNIT*2; i++ {
		header = append(header, fmt.Sprintf("%d", i))
		if i < len(c.WaveformsI) {
			is = append(is, fmt.Sprintf("%f", utils.DACToFloat(c.WaveformsI[i])))
			qs = append(qs, fmt.Sprintf("%f", utils.DACToFloat(c.WaveformsQ[i])))
		} else {
			is = append(is, "-")
			qs = append(qs, "-")
		}
	}
	table.Rows = [][]string{header, is, qs}
	table.RowStyles[0] = ui.NewStyle(ui.ColorYellow)
	table.RowStyles[1] = ui.NewStyle(ui.ColorWhite, ui.ColorBlack, ui.ModifierBold)
	table.RowStyles[2] = ui.NewStyle(ui.ColorWhite, ui.ColorBlack, ui.ModifierBold)

	return table
}

func calculateMemoryValuesPerChar(numSamples int, width int, height int) int {
	rows := height - ((VALUE_TABLE_ROWS + 3) + 3)
	if width <= 1 || rows <= 0 {
		return base.ADDRESS_UNIT
	}

	ret := numSamples / ((width - 1) * rows)
	// Whole quanta only
	ret = ((ret + base.ADDRESS_UNIT - 1) / base.ADDRESS_UNIT) * base.ADDRESS_UNIT
	if ret < base.ADDRESS_UNIT {
		return base.ADDRESS_UNIT
	}
	return ret
}

func densityChar(numNonNull int, valuesPerChar int) string {
	f := float64(numNonNull) / float64(valuesPerChar)
	if f == 0 {
		return "."
	} else if f < 1.0/3.0 {
		return "░"
	} else if f < 2.0/3.0 {
		return "▒"
	}
	return "▓"
}

// One character per 'valuesPerChar' samples. A sample counts as set when
// either I or Q is non-zero.
func buildMemMapText(is []int16, qs []int16, width int, valuesPerChar int, cursorPosition int) string {
	if width < 1 {
		width = 1
	}

	ret := ""
	col := 0
	for c := 0; c < len(is); c += valuesPerChar {
		if cursorPosition >= c && cursorPosition < c+valuesPerChar {
			ret += "C"
		} else {
			numNonNull := 0
			for k := c; k < c+valuesPerChar && k < len(is); k++ {
				if is[k] != 0 || qs[k] != 0 {
					numNonNull += 1
				}
			}
			ret += densityChar(numNonNull, valuesPerChar)
		}

		col += 1
		if col == width {
			ret += "\n"
			col = 0
		}
	}
	if col != 0 {
		ret += "\n"
	}

	return ret
}

// Wraps runs of non-zero characters in termui color markup
func colorMemoryMap(mem string) string {
	ret := ""
	coloring := false

	for _, r := range mem {
		nonZero := r != '.' && r != '\n' && r != 'C'
		if nonZero && !coloring {
			ret += "["
			coloring = true
		} else if !nonZero && coloring {
			ret += "]" + VALUE_COLOR
			coloring = false
		}
		ret += string(r)
	}

	if coloring {
		ret += "]" + VALUE_COLOR
	}

	return ret
}
