package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/elliotchance/pie/v2"
)

const (
	historyWindow    = 20
	transcriptBudget = 5000
	// a rewrite longer than this is the model answering, not rewriting
	maxCondensedLines = 3
)

// condense collapses recent history into one standalone query. It never
// fails: any problem with the rewrite call falls back to the last user
// message unchanged.
func (s *Service) condense(ctx context.Context, history []Message) (condensed, lastUserQuery string) {
	if len(history) == 0 {
		return "", ""
	}

	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}

	lastUserQuery = recent[len(recent)-1].Content
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Role == RoleUser {
			lastUserQuery = recent[i].Content
			break
		}
	}

	transcript := buildTranscript(recent)

	prompt := fmt.Sprintf(
		"You are a system that rewrites the latest user query into a standalone question. "+
			"Incorporate necessary context from earlier turns (entities, references like 'that server', 'the previous incident'). "+
			"Do NOT answer the question. Only output the rewritten query. If the last user query is already standalone, return it unchanged.\n\n"+
			"Conversation (most recent last):\n%s\n\nRewritten standalone query:", transcript)

	condensed, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		slog.Warn("Query condensation failed, falling back to last user query", "error", err)
		return lastUserQuery, lastUserQuery
	}

	if strings.Count(condensed, "\n")+1 > maxCondensedLines {
		return lastUserQuery, lastUserQuery
	}

	return condensed, lastUserQuery
}

// buildTranscript keeps only user/assistant turns and the most recent
// transcriptBudget characters.
func buildTranscript(recent []Message) string {
	dialog := pie.Filter(recent, func(m Message) bool {
		return m.Role == RoleUser || m.Role == RoleAssistant
	})

	lines := pie.Map(dialog, func(m Message) string {
		return strings.ToUpper(m.Role) + ": " + m.Content
	})

	transcript := strings.Join(lines, "\n")
	if runes := []rune(transcript); len(runes) > transcriptBudget {
		transcript = string(runes[len(runes)-transcriptBudget:])
	}

	return transcript
}
