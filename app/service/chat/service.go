package chat

import (
	"context"
	"fmt"
	"log/slog"

	"infrachat/app/client/llm"
	"infrachat/app/config"
	"infrachat/app/service/docsearch"
	"infrachat/app/service/logquery"
	"infrachat/app/service/retrieval"
	"infrachat/app/service/sqlquery"
	"infrachat/app/service/vmexec"

	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

type completionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteJSON(ctx context.Context, prompt string) (string, error)
}

type relationalSource interface {
	retrieval.Source
	FetchWithColumns(ctx context.Context, wantedColumns, query string) ([]retrieval.Evidence, error)
	IntrospectColumns(ctx context.Context, tables []string) ([]retrieval.Evidence, error)
	Selectable() []retrieval.Evidence
}

type vmSource interface {
	Fetch(ctx context.Context, password, query string) ([]retrieval.Evidence, error)
}

// Service is the decision-and-orchestration core: it condenses the
// conversation, selects retrieval tools, gathers evidence tolerating partial
// failure and composes the final grounded answer. Everything it touches is
// request-scoped; one Service handles any number of concurrent requests.
type Service struct {
	llm       completionClient
	docSearch retrieval.Source
	sqlQuery  relationalSource
	logQuery  retrieval.Source
	vmExec    vmSource

	promptTemplate string
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	promptTemplate := cfg.Prompt.System
	if promptTemplate == "" {
		promptTemplate = systemPromptTemplate
	}

	return &Service{
		llm:            do.MustInvoke[*llm.Client](di),
		docSearch:      do.MustInvoke[*docsearch.Service](di),
		sqlQuery:       do.MustInvoke[*sqlquery.Service](di),
		logQuery:       do.MustInvoke[*logquery.Service](di),
		vmExec:         do.MustInvoke[*vmexec.Service](di),
		promptTemplate: promptTemplate,
	}, nil
}

// Answer runs the full pipeline for one conversation: structured-command
// short circuit, condense, select, retrieve, compose.
func (s *Service) Answer(ctx context.Context, history []Message) (*Answer, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("conversation history is empty")
	}

	last := history[len(history)-1].Content
	if cmd := parseCommand(last); cmd.kind != commandNone {
		return s.answerCommand(ctx, cmd, last)
	}

	condensed, lastUserQuery := s.condense(ctx, history)

	effectiveQuery := condensed
	if effectiveQuery == "" {
		effectiveQuery = lastUserQuery
	}

	selection := s.selectTools(ctx, effectiveQuery)
	evidence := s.aggregate(ctx, selection, effectiveQuery)

	question := lastUserQuery
	if question == "" {
		question = effectiveQuery
	}

	return s.compose(ctx, question, evidence)
}

// answerCommand handles the structured command channel: a single adapter
// runs, with no condensation and no tool selection.
func (s *Service) answerCommand(ctx context.Context, cmd command, raw string) (*Answer, error) {
	var (
		evidence []retrieval.Evidence
		err      error
	)

	switch cmd.kind {
	case commandSelectable:
		evidence = s.sqlQuery.Selectable()
	case commandColumns:
		evidence, err = s.sqlQuery.IntrospectColumns(ctx, cmd.tables)
	case commandExecute:
		evidence, err = s.sqlQuery.FetchWithColumns(ctx, cmd.wantedColumns, cmd.query)
	case commandVMPackages:
		evidence, err = s.vmExec.Fetch(ctx, cmd.password, cmd.query)
	default:
		return nil, fmt.Errorf("unknown command")
	}
	if err != nil {
		slog.Error("Structured command failed", "error", err)
		evidence = nil
	}

	question := cmd.query
	if question == "" {
		question = raw
	}

	return s.compose(ctx, question, evidence)
}

// aggregate fans the selected adapters out concurrently and merges their
// evidence in fixed priority order (document search, relational, log
// analytics) regardless of completion order, since citation numbering
// depends on it. A failing adapter contributes zero evidence and never
// aborts its siblings.
func (s *Service) aggregate(ctx context.Context, selection retrieval.Selection, query string) []retrieval.Evidence {
	sources := []struct {
		tool   retrieval.Tool
		source retrieval.Source
	}{
		{retrieval.ToolDocSearch, s.docSearch},
		{retrieval.ToolSQLQuery, s.sqlQuery},
		{retrieval.ToolLogAnalytics, s.logQuery},
	}

	results := make([][]retrieval.Evidence, len(sources))

	var group errgroup.Group
	for i, entry := range sources {
		i, entry := i, entry
		if !selection.Enabled(entry.tool) {
			continue
		}

		group.Go(func() error {
			evidence, err := entry.source.Fetch(ctx, query)
			if err != nil {
				slog.Error("Search query failed", "tool", entry.tool.String(), "error", err)
				return nil
			}

			results[i] = evidence
			return nil
		})
	}
	_ = group.Wait()

	var merged []retrieval.Evidence
	for _, evidence := range results {
		merged = append(merged, evidence...)
	}

	return merged
}
