package cmd

import (
	"strings"
	"unicode/utf8"

	"github.com/pterm/pterm"
)

// printTableNoPad renders tabular data like pterm.DefaultTable but without
// trailing padding after the last column, which matters when that column
// holds long window titles or URLs a user may copy. Cells are truncated to
// the terminal width; the first column (usually an ID) is never truncated.
func printTableNoPad(data pterm.TableData, hasHeader bool) {
	if len(data) == 0 || len(data[0]) == 0 {
		return
	}

	termWidth := pterm.GetTerminalWidth()
	if termWidth <= 0 {
		termWidth = 80
	}
	data = fitTableData(data, termWidth)
	numCols := len(data[0])

	// Column widths over all rows, except the last column which is
	// printed unpadded.
	widths := make([]int, numCols)
	for _, row := range data {
		for col := 0; col < numCols-1 && col < len(row); col++ {
			if w := utf8.RuneCountInString(row[col]); w > widths[col] {
				widths[col] = w
			}
		}
	}

	var b strings.Builder
	sep := pterm.ThemeDefault.TableSeparatorStyle.Sprint(pterm.DefaultTable.Separator)
	for rowIdx, row := range data {
		parts := make([]string, 0, numCols)
		for col := 0; col < numCols; col++ {
			var cell string
			if col < len(row) {
				cell = row[col]
			}
			if col < numCols-1 {
				cell += strings.Repeat(" ", widths[col]-utf8.RuneCountInString(cell))
			}
			parts = append(parts, cell)
		}
		line := strings.Join(parts, sep)
		if hasHeader && rowIdx == 0 {
			line = pterm.ThemeDefault.TableHeaderStyle.Sprint(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	pterm.Print(b.String())
}

// fitTableData truncates cells so each row fits within termWidth. Overflow
// is taken out of the widest non-first columns.
func fitTableData(data pterm.TableData, termWidth int) pterm.TableData {
	numCols := len(data[0])
	available := termWidth - (numCols-1)*3 - 2

	natural := make([]int, numCols)
	for _, row := range data {
		for col, cell := range row {
			if w := utf8.RuneCountInString(cell); w > natural[col] {
				natural[col] = w
			}
		}
	}
	total := 0
	for _, w := range natural {
		total += w
	}
	if total <= available {
		return data
	}

	// The first column keeps its natural width; the rest share what's left
	// proportionally, with a floor so columns stay legible.
	budgets := make([]int, numCols)
	budgets[0] = natural[0]
	rest := available - natural[0]
	restNatural := total - natural[0]
	for col := 1; col < numCols; col++ {
		w := natural[col]
		if restNatural > 0 {
			w = natural[col] * rest / restNatural
		}
		if w < 8 {
			w = 8
		}
		budgets[col] = w
	}

	out := make(pterm.TableData, len(data))
	for i, row := range data {
		out[i] = make([]string, len(row))
		for col, cell := range row {
			out[i][col] = truncateCell(cell, budgets[col])
		}
	}
	return out
}

func truncateCell(cell string, maxRunes int) string {
	runes := []rune(cell)
	if len(runes) <= maxRunes {
		return cell
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
