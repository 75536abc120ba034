package logquery

import (
	"fmt"
	"strings"
)

// Limits keep token usage of rendered tables under control.
const (
	maxColumns   = 12
	maxRows      = 50
	maxCellChars = 200
)

func renderTable(columns []string, rows [][]string) string {
	if len(rows) == 0 {
		return "(no rows)"
	}

	shown := columns
	if len(shown) > maxColumns {
		shown = shown[:maxColumns]
	}

	lines := []string{
		strings.Join(shown, " | "),
		strings.Join(separators(len(shown)), " | "),
	}

	rowCount := 0
	for _, row := range rows {
		if rowCount >= maxRows {
			break
		}

		trimmed := make([]string, len(shown))
		for i := range shown {
			cell := row[i]
			if runes := []rune(cell); len(runes) > maxCellChars {
				cell = string(runes[:maxCellChars]) + "…"
			}
			trimmed[i] = cell
		}

		lines = append(lines, strings.Join(trimmed, " | "))
		rowCount++
	}

	var notices []string
	if len(columns) > maxColumns {
		notices = append(notices, fmt.Sprintf("columns %d more hidden", len(columns)-maxColumns))
	}
	if len(rows) > maxRows {
		notices = append(notices, fmt.Sprintf("rows %d more hidden", len(rows)-maxRows))
	}
	if len(notices) > 0 {
		lines = append(lines, "", fmt.Sprintf("(truncated: %s)", strings.Join(notices, "; ")))
	}

	return strings.Join(lines, "\n")
}

func separators(count int) []string {
	out := make([]string, count)
	for i := range out {
		out[i] = "---"
	}

	return out
}
