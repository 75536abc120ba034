package chat

import (
	"context"
	"fmt"
	"strings"

	_ "embed"

	"infrachat/app/service/retrieval"

	"github.com/elliotchance/pie/v2"
)

//go:embed system_prompt.txt
var systemPromptTemplate string

const sourcesBudget = 16000

// compose renders the grounding prompt from the question and the aggregated
// evidence, asks the model for the answer body and attaches the references
// suffix plus citations mirroring the evidence order.
func (s *Service) compose(ctx context.Context, question string, evidence []retrieval.Evidence) (*Answer, error) {
	blocks := pie.Map(evidence, func(e retrieval.Evidence) string {
		return e.Title + ":\n" + e.Content
	})

	sources := strings.Join(blocks, "\n\n")
	if runes := []rune(sources); len(runes) > sourcesBudget {
		sources = string(runes[:sourcesBudget]) + "\n... (sources truncated) ..."
	}

	prompt := strings.ReplaceAll(s.promptTemplate, "{query}", question)
	prompt = strings.ReplaceAll(prompt, "{sources}", sources)

	content, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to compose answer: %w", err)
	}

	if len(evidence) > 0 {
		var refs strings.Builder
		for i := range evidence {
			refs.WriteString(fmt.Sprintf("[doc%d]", i+1))
		}
		content += "\n\nReferences: " + refs.String()
	}

	return &Answer{
		Content:   content,
		Citations: evidence,
	}, nil
}
