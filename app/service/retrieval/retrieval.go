package retrieval

import "context"

// Tool identifies one of the retrieval backends. The set is closed: model
// output is only ever mapped onto these values through explicit lookup, never
// dispatched by name.
type Tool int

const (
	ToolDocSearch Tool = iota
	ToolSQLQuery
	ToolLogAnalytics
)

func (t Tool) String() string {
	switch t {
	case ToolDocSearch:
		return "rag"
	case ToolSQLQuery:
		return "sql_query"
	case ToolLogAnalytics:
		return "log_analytics"
	default:
		return "unknown"
	}
}

// Selection reports which tools should run for a query.
type Selection struct {
	DocSearch    bool
	SQLQuery     bool
	LogAnalytics bool
}

// AllTools is the fail-open selection: when the decision step cannot be
// trusted, retrieving from everything beats silently dropping a source.
func AllTools() Selection {
	return Selection{DocSearch: true, SQLQuery: true, LogAnalytics: true}
}

func (s Selection) Enabled(t Tool) bool {
	switch t {
	case ToolDocSearch:
		return s.DocSearch
	case ToolSQLQuery:
		return s.SQLQuery
	case ToolLogAnalytics:
		return s.LogAnalytics
	default:
		return false
	}
}

// Evidence is a titled text snippet retrieved from a backing store. Its
// position in the aggregated list determines its [docN] citation number.
type Evidence struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Source wraps one backing store behind a uniform fetch operation. Ordinary
// retrieval failures surface as an error and degrade to zero evidence at the
// call site; they never abort sibling sources.
type Source interface {
	Fetch(ctx context.Context, query string) ([]Evidence, error)
}
