package sqlquery

import "strings"

const maxTableChars = 4000

// renderTable formats a result set as a markdown pipe table, capped at
// maxTableChars with an explicit truncation marker.
func renderTable(columns []string, rows [][]string) string {
	if len(rows) == 0 {
		return "(no rows)"
	}

	lines := []string{
		strings.Join(columns, " | "),
		strings.Join(repeat("---", len(columns)), " | "),
	}

	total := len(lines[0]) + len(lines[1])
	for _, row := range rows {
		line := strings.Join(row, " | ")
		lines = append(lines, line)
		total += len(line)

		if total > maxTableChars {
			lines = append(lines, "... (truncated) ...")
			break
		}
	}

	return strings.Join(lines, "\n")
}

func repeat(value string, count int) []string {
	out := make([]string, count)
	for i := range out {
		out[i] = value
	}

	return out
}
