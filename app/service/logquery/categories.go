package logquery

import "github.com/sashabaranov/go-openai"

// category binds one log table to the fixed anomaly query run against it.
// Every query is hardcoded and bounded to the last day; the model only ever
// picks WHICH categories run, never what they execute.
type category struct {
	name        string
	description string
	title       string
	heading     string
	query       string
}

var categories = []category{
	{
		name:        "query_audit_logs_errors",
		description: "Search the log store (audit_logs: entries generated when publishing users log on via one of the deployment protocols).",
		title:       "Log Analytics (audit_logs)",
		heading:     "Errors",
		query: "SELECT * FROM audit_logs " +
			"WHERE (status >= 500 OR multiSearchAnyCaseInsensitive(result_description, ['fail', 'error', 'exception', 'critical']) = 1) " +
			"AND timestamp >= now() - INTERVAL 1 DAY ORDER BY timestamp DESC",
	},
	{
		name:        "query_console_logs_errors",
		description: "Search the log store (console_logs: console output generated by the application or container).",
		title:       "Log Analytics (console_logs)",
		heading:     "Errors",
		query: "SELECT * FROM console_logs " +
			"WHERE (level IN ('Error', 'Critical', 'Fatal') OR multiSearchAnyCaseInsensitive(message, ['error', 'exception', 'critical', 'fail']) = 1) " +
			"AND timestamp >= now() - INTERVAL 1 DAY ORDER BY timestamp DESC",
	},
	{
		name:        "query_http_logs_errors",
		description: "Search the log store (http_logs: incoming HTTP requests. Use these logs to monitor application health, performance and usage patterns).",
		title:       "Log Analytics (http_logs)",
		heading:     "Errors",
		query: "SELECT * FROM http_logs " +
			"WHERE status >= 500 AND timestamp >= now() - INTERVAL 1 DAY ORDER BY timestamp DESC",
	},
	{
		name:        "query_platform_logs_errors",
		description: "Search the log store (platform_logs: entries generated by the hosting platform for the application).",
		title:       "Log Analytics (platform_logs)",
		heading:     "Errors",
		query: "SELECT * FROM platform_logs " +
			"WHERE (level IN ('Error', 'Critical', 'Fatal') OR status >= 500 OR multiSearchAnyCaseInsensitive(result_description, ['fail', 'error', 'exception', 'critical']) = 1) " +
			"AND timestamp >= now() - INTERVAL 1 DAY ORDER BY timestamp DESC",
	},
	{
		name:        "query_diagnostics_llm",
		description: "Search the log store for the language model gateway (diagnostics: diagnostic entries emitted by backing services describing their operation).",
		title:       "Log Analytics (diagnostics)",
		heading:     "Logs",
		query: "SELECT * FROM diagnostics " +
			"WHERE service = 'llm-gateway' AND timestamp >= now() - INTERVAL 1 DAY ORDER BY timestamp DESC",
	},
	{
		name:        "query_diagnostics_search",
		description: "Search the log store for the document search service (diagnostics: diagnostic entries emitted by backing services describing their operation).",
		title:       "Log Analytics (diagnostics)",
		heading:     "Logs",
		query: "SELECT * FROM diagnostics " +
			"WHERE service = 'search' AND timestamp >= now() - INTERVAL 1 DAY ORDER BY timestamp DESC",
	},
	{
		name:        "query_diagnostics_database",
		description: "Search the log store for the relational database (diagnostics: diagnostic entries emitted by backing services describing their operation).",
		title:       "Log Analytics (diagnostics)",
		heading:     "Logs",
		query: "SELECT * FROM diagnostics " +
			"WHERE service = 'database' AND timestamp >= now() - INTERVAL 1 DAY ORDER BY timestamp DESC",
	},
	{
		name:        "query_metrics",
		description: "Search the log store (metrics: metric data emitted by backing services measuring their health and performance).",
		title:       "Log Analytics (metrics)",
		heading:     "Logs",
		query: "SELECT * FROM metrics " +
			"WHERE timestamp >= now() - INTERVAL 1 DAY ORDER BY timestamp DESC",
	},
	{
		name:        "query_usage",
		description: "Search the log store (usage: hourly usage data for each table in the workspace).",
		title:       "Log Analytics (usage)",
		heading:     "Logs",
		query: "SELECT * FROM usage " +
			"WHERE timestamp >= now() - INTERVAL 1 DAY ORDER BY timestamp DESC",
	},
}

// categoryByName is the closed lookup table mapping tool-call names back to
// categories; unknown names are dropped.
var categoryByName = func() map[string]category {
	m := make(map[string]category, len(categories))
	for _, c := range categories {
		m[c.name] = c
	}
	return m
}()

func toolDefinitions() []openai.Tool {
	tools := make([]openai.Tool, 0, len(categories))
	for _, c := range categories {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        c.name,
				Description: c.description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": map[string]any{},
					"required":   []string{},
				},
			},
		})
	}

	return tools
}
