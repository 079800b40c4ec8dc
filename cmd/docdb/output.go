package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

var (
	headerStyle  = color.New(color.FgCyan, color.Bold)
	warningStyle = color.New(color.FgYellow, color.Bold)
	errorStyle   = color.New(color.FgRed, color.Bold)
	successStyle = color.New(color.FgGreen)
	borderStyle  = color.New(color.FgWhite, color.Faint)
	mutedStyle   = color.New(color.FgHiBlack)
)

const (
	boxHorizontal = "─"
	arrow         = "→"
	checkmark     = "✓"
	xmark         = "✗"
)

// stripANSI removes ANSI escape sequences so that styled text can be measured
func stripANSI(text string) string {
	var sb strings.Builder
	inEscape := false
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\x1b' && i+1 < len(runes) && runes[i+1] == '[' {
			inEscape = true
			i++
			continue
		}
		if inEscape {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
			}
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// displayWidth returns the terminal width of text, accounting for wide
// characters and ignoring color codes
func displayWidth(text string) int {
	return runewidth.StringWidth(stripANSI(text))
}

func padRight(text string, width int) string {
	if w := displayWidth(text); w < width {
		return text + strings.Repeat(" ", width-w)
	}
	return text
}

// truncate shortens text to at most width cells, marking the cut with an
// ellipsis
func truncate(text string, width int) string {
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}

// table renders rows of plain cells in aligned columns
type table struct {
	headers  []string
	rows     [][]string
	maxWidth int
}

func newTable(headers ...string) *table {
	return &table{headers: headers, maxWidth: 60}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = displayWidth(h)
	}
	for _, row := range t.rows {
		for i := range widths {
			if i < len(row) {
				widths[i] = max(widths[i], min(displayWidth(row[i]), t.maxWidth))
			}
		}
	}

	var header []string
	var rule []string
	for i, h := range t.headers {
		header = append(header, headerStyle.Sprint(padRight(h, widths[i])))
		rule = append(rule, strings.Repeat(boxHorizontal, widths[i]))
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(header, "  "), " "))
	fmt.Fprintln(w, borderStyle.Sprint(strings.Join(rule, "  ")))

	for _, row := range t.rows {
		var cells []string
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = truncate(row[i], t.maxWidth)
			}
			cells = append(cells, padRight(cell, widths[i]))
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}
