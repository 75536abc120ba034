package chat

import "strings"

// Structured commands ride inside the last chat message as ;;PREFIX;;
// sentinels. They are a pre-authored control channel for the front end, not
// free text: a matching message bypasses condensation and tool selection and
// goes straight to a single adapter. This parser is the only place that knows
// the sentinels.
const (
	prefixSQL        = ";;SQL;;"
	prefixExecute    = ";;EXECUTE;;"
	prefixVMPassword = ";;VM_PASSWORD;;"

	argSeparator = "|||"
)

type commandKind int

const (
	commandNone commandKind = iota
	// list the allow-listed tables (interactive flow, opening step)
	commandSelectable
	// list the columns of the named tables (interactive flow, first step)
	commandColumns
	// run a generated query constrained to chosen columns (second step)
	commandExecute
	// inspect installed packages on the managed VM
	commandVMPackages
)

type command struct {
	kind commandKind

	tables        []string
	wantedColumns string
	password      string
	query         string
}

func parseCommand(text string) command {
	upper := strings.ToUpper(text)

	switch {
	case strings.HasPrefix(upper, prefixSQL):
		payload := strings.TrimSpace(text[len(prefixSQL):])
		if payload == "" {
			return command{kind: commandSelectable}
		}

		return command{
			kind:   commandColumns,
			tables: strings.Split(payload, ","),
		}

	case strings.HasPrefix(upper, prefixExecute):
		payload := text[len(prefixExecute):]
		columns, query, _ := strings.Cut(payload, argSeparator)

		return command{
			kind:          commandExecute,
			wantedColumns: strings.TrimSpace(columns),
			query:         strings.TrimSpace(query),
		}

	case strings.HasPrefix(upper, prefixVMPassword):
		payload := text[len(prefixVMPassword):]
		password, query, _ := strings.Cut(payload, argSeparator)

		return command{
			kind:     commandVMPackages,
			password: password,
			query:    strings.TrimSpace(query),
		}

	default:
		return command{kind: commandNone}
	}
}
