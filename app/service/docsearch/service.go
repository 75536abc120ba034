package docsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"infrachat/app/client/docindex"
	"infrachat/app/client/llm"
	"infrachat/app/config"
	"infrachat/app/service/retrieval"

	"github.com/samber/do"
)

const (
	inventoriesTop = 1
	incidentsTop   = 3
)

type searcher interface {
	Search(ctx context.Context, index, query string, top int) ([]string, error)
}

type jsonCompleter interface {
	CompleteJSON(ctx context.Context, prompt string) (string, error)
}

var _ retrieval.Source = (*Service)(nil)

// Service retrieves evidence from the document search indexes. The
// inventories index holds one authoritative ownership record per server, so
// only its best match is taken; incidents accumulate over time, so several
// are kept.
type Service struct {
	llm              jsonCompleter
	index            searcher
	inventoriesIndex string
	incidentsIndex   string
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Service{
		llm:              do.MustInvoke[*llm.Client](di),
		index:            do.MustInvoke[*docindex.Client](di),
		inventoriesIndex: cfg.Search.InventoriesIndex,
		incidentsIndex:   cfg.Search.IncidentsIndex,
	}, nil
}

type indexSelection struct {
	Inventories *bool `json:"inventories"`
	Incidents   *bool `json:"incidents"`
}

func (s *Service) Fetch(ctx context.Context, query string) ([]retrieval.Evidence, error) {
	searchInventories, searchIncidents := s.selectIndexes(ctx, query)

	var evidence []retrieval.Evidence

	if searchInventories {
		contents, err := s.index.Search(ctx, s.inventoriesIndex, query, inventoriesTop)
		if err != nil {
			slog.Error("Search query failed for inventories index", "error", err)
		} else {
			evidence = append(evidence, toEvidence("Inventories", contents)...)
		}
	}

	if searchIncidents {
		contents, err := s.index.Search(ctx, s.incidentsIndex, query, incidentsTop)
		if err != nil {
			slog.Error("Search query failed for incidents index", "error", err)
		} else {
			evidence = append(evidence, toEvidence("Incident", contents)...)
		}
	}

	return evidence, nil
}

// selectIndexes asks the model which indexes are relevant. Any failure or a
// missing field degrades to searching that index.
func (s *Service) selectIndexes(ctx context.Context, query string) (bool, bool) {
	prompt := fmt.Sprintf(
		"Decide which indexes should be searched to answer the user's request.\n"+
			"Indexes: 'inventories' (ownership/contact/server metadata), 'incidents' (past incident info).\n"+
			"Return ONLY JSON like {\"inventories\": true, \"incidents\": false}. If unsure, set a field to true.\n"+
			"Query: %s", query)

	text, err := s.llm.CompleteJSON(ctx, prompt)
	if err != nil {
		slog.Warn("Index selection failed, defaulting to all indexes", "error", err)
		return true, true
	}

	var selection indexSelection
	if err = json.Unmarshal([]byte(llm.CleanJSON(text)), &selection); err != nil {
		slog.Warn("Index selection returned malformed JSON, defaulting to all indexes", "error", err)
		return true, true
	}

	return boolOrTrue(selection.Inventories), boolOrTrue(selection.Incidents)
}

func toEvidence(title string, contents []string) []retrieval.Evidence {
	evidence := make([]retrieval.Evidence, 0, len(contents))
	for _, content := range contents {
		evidence = append(evidence, retrieval.Evidence{
			Title:   title,
			Content: content,
		})
	}

	return evidence
}

func boolOrTrue(value *bool) bool {
	if value == nil {
		return true
	}

	return *value
}
