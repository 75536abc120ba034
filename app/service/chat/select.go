package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"infrachat/app/client/llm"
	"infrachat/app/service/retrieval"
)

type toolSelection struct {
	Rag          *bool `json:"rag"`
	SQLQuery     *bool `json:"sql_query"`
	LogAnalytics *bool `json:"log_analytics"`
}

// selectTools asks the model which retrieval tools to run. Every failure mode
// degrades to all tools: over-retrieval beats silently dropping a source.
func (s *Service) selectTools(ctx context.Context, query string) retrieval.Selection {
	prompt := fmt.Sprintf(
		"Decide which tool should be searched to answer the user's request.\n"+
			"Tools: 'rag' (documents of ownership/contact/server metadata and incidents), "+
			"'sql_query' (infrastructure inventory database to overview the whole service or numbers), "+
			"'log_analytics' (query the monitoring log store).\n"+
			"Return ONLY JSON like {\"rag\": true, \"sql_query\": false, \"log_analytics\": false}. If unsure, set a field to true.\n"+
			"Query: %s", query)

	text, err := s.llm.CompleteJSON(ctx, prompt)
	if err != nil {
		slog.Warn("Tool selection failed, defaulting to all tools", "error", err)
		return retrieval.AllTools()
	}

	var selection toolSelection
	if err = json.Unmarshal([]byte(llm.CleanJSON(text)), &selection); err != nil {
		slog.Warn("Tool selection returned malformed JSON, defaulting to all tools", "error", err)
		return retrieval.AllTools()
	}

	return retrieval.Selection{
		DocSearch:    boolOrTrue(selection.Rag),
		SQLQuery:     boolOrTrue(selection.SQLQuery),
		LogAnalytics: boolOrTrue(selection.LogAnalytics),
	}
}

func boolOrTrue(value *bool) bool {
	if value == nil {
		return true
	}

	return *value
}
