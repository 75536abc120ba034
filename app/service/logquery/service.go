package logquery

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"infrachat/app/client/llm"
	"infrachat/app/config"
	"infrachat/app/service/retrieval"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/samber/do"
	"github.com/sashabaranov/go-openai"
)

type toolCompleter interface {
	CompleteWithTools(ctx context.Context, system, user string, tools []openai.Tool) ([]string, error)
}

var _ retrieval.Source = (*Service)(nil)

// Service retrieves evidence from the log-analytics store. A function-calling
// round picks which log table categories are relevant; each chosen category
// runs its fixed anomaly query and renders the rows as a bounded table.
type Service struct {
	llm toolCompleter
	db  *sql.DB
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	db := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{cfg.ClickHouse.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.ClickHouse.Database,
			Username: cfg.ClickHouse.User,
			Password: cfg.ClickHouse.Pass,
		},
	})

	return &Service{
		llm: do.MustInvoke[*llm.Client](di),
		db:  db,
	}, nil
}

func (s *Service) Fetch(ctx context.Context, query string) ([]retrieval.Evidence, error) {
	names, err := s.llm.CompleteWithTools(ctx, "Select the single best tool.", query, toolDefinitions())
	if err != nil {
		return nil, fmt.Errorf("log category selection failed: %w", err)
	}

	var evidence []retrieval.Evidence
	for _, name := range names {
		cat, ok := categoryByName[name]
		if !ok {
			slog.Warn("Model requested unknown log category", "name", name)
			continue
		}

		table, err := s.runQuery(ctx, cat.query)
		if err != nil {
			slog.Error("Search query failed for log analytics", "category", cat.name, "error", err)
			continue
		}

		evidence = append(evidence, retrieval.Evidence{
			Title:   cat.title,
			Content: fmt.Sprintf("## %s:\n%s\n", cat.heading, table),
		})
	}

	return evidence, nil
}

func (s *Service) runQuery(ctx context.Context, query string) (string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("log query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("failed to read columns: %w", err)
	}

	var result [][]string
	for rows.Next() {
		values := make([]any, len(columns))
		for i := range values {
			values[i] = new(any)
		}

		if err = rows.Scan(values...); err != nil {
			return "", fmt.Errorf("failed to scan row: %w", err)
		}

		row := make([]string, len(columns))
		for i, value := range values {
			row[i] = stringify(*value.(*any))
		}
		result = append(result, row)
	}
	if err = rows.Err(); err != nil {
		return "", fmt.Errorf("failed to read rows: %w", err)
	}

	return renderTable(columns, result), nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
