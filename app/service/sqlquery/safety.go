package sqlquery

import "strings"

// forbiddenKeywords block every mutating statement form. Matching is plain
// substring search on the lowercased text, so a column literally named
// "last_updated" would trip it; the gate prefers false positives over
// letting a write through.
var forbiddenKeywords = []string{
	"update", "delete", "insert", "merge", "drop", "alter", "create", "truncate",
}

// allowedTables is the closed set of tables generated SQL may read.
var allowedTables = map[string]struct{}{
	"virtual_machines":   {},
	"network_interfaces": {},
	"installed_software": {},
}

// IsSafeSQL is a conservative textual check, not a SQL parser. It rejects any
// statement containing a mutating keyword and any statement whose FROM/JOIN
// target is not allow-listed. Callers must substitute a known-safe query on
// rejection instead of executing the input.
func IsSafeSQL(sql string) bool {
	lowered := strings.Join(strings.Fields(strings.ToLower(sql)), " ")

	for _, keyword := range forbiddenKeywords {
		if strings.Contains(lowered, keyword) {
			return false
		}
	}

	for _, token := range []string{" from ", " join "} {
		parts := strings.Split(lowered, token)
		for _, segment := range parts[1:] {
			fields := strings.Fields(segment)
			if len(fields) == 0 {
				continue
			}

			ident := strings.Trim(fields[0], "[];,()")
			ident = trimSchemaPrefix(ident)
			if ident == "" {
				continue
			}

			if _, ok := allowedTables[ident]; !ok {
				return false
			}
		}
	}

	return true
}

func trimSchemaPrefix(ident string) string {
	if i := strings.LastIndex(ident, "."); i >= 0 {
		return ident[i+1:]
	}

	return ident
}
