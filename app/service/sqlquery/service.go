package sqlquery

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"infrachat/app/client/llm"
	"infrachat/app/config"
	"infrachat/app/service/retrieval"

	_ "github.com/lib/pq"
	"github.com/samber/do"
)

const defaultRowLimit = 50

const fallbackQuery = "SELECT name, location, vm_size, power_state FROM virtual_machines ORDER BY name LIMIT 50;"

const tableInfo = `TABLE virtual_machines (
    resource_id           VARCHAR(512) NOT NULL PRIMARY KEY, -- virtual machine identifier
    name                  VARCHAR(128), -- virtual machine name
    subscription_id       UUID NULL, -- subscription identifier
    resource_group        VARCHAR(128), -- resource group name
    location              VARCHAR(64), -- cloud region
    vm_size               VARCHAR(64), -- VM size
    os_type               VARCHAR(32), -- OS type
    os_name               VARCHAR(128), -- OS name
    os_version            VARCHAR(64), -- OS version
    provisioning_state    VARCHAR(32), -- provisioning state
    priority              VARCHAR(32), -- priority
    time_created          TIMESTAMP, -- time created
    power_state           VARCHAR(64), -- power state
    admin_username        VARCHAR(64), -- admin username
    server_type_tag       VARCHAR(128), -- server type tag
    tags_json             TEXT, -- tags JSON
    identity_principal_id UUID NULL -- identity principal ID
);

TABLE network_interfaces (
    resource_id        VARCHAR(512) NOT NULL PRIMARY KEY, -- network interface identifier
    name               VARCHAR(128), -- network interface name
    subscription_id    UUID NULL, -- subscription identifier
    resource_group     VARCHAR(128), -- resource group name
    location           VARCHAR(64), -- cloud region
    mac_address        VARCHAR(32), -- MAC address
    private_ip         VARCHAR(64), -- private IP address
    allocation_method  VARCHAR(32), -- allocation method
    accelerated        BOOLEAN, -- accelerated networking
    primary_flag       BOOLEAN, -- primary network interface flag
    vm_resource_id     VARCHAR(512) NULL REFERENCES virtual_machines(resource_id) -- virtual machine identifier
);

TABLE installed_software (
    id              SERIAL PRIMARY KEY, -- software installation identifier
    computer_name   VARCHAR(256) NOT NULL, -- name of the computer
    software_name   VARCHAR(512) NOT NULL, -- name of the installed software
    current_version VARCHAR(256), -- current version of the software
    publisher       VARCHAR(512) -- publisher of the software
);`

type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var _ retrieval.Source = (*Service)(nil)

// Service turns a natural-language question into a read-only SQL statement
// over the infrastructure inventory database, executes it behind the safety
// gate and renders the result set as evidence.
type Service struct {
	llm completer
	db  *sql.DB
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		cfg.DB.User, cfg.DB.Pass, cfg.DB.Host, cfg.DB.Database)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Service{
		llm: do.MustInvoke[*llm.Client](di),
		db:  db,
	}, nil
}

func (s *Service) Fetch(ctx context.Context, query string) ([]retrieval.Evidence, error) {
	sqlText, err := s.generateSQL(ctx, query, nil)
	if err != nil {
		slog.Warn("SQL generation failed, using fallback query", "error", err)
		sqlText = fallbackQuery
	}

	return s.runGated(ctx, sqlText)
}

// FetchWithColumns is the second step of the interactive flow: the caller has
// already picked the columns it wants and the generated SELECT is constrained
// to them.
func (s *Service) FetchWithColumns(ctx context.Context, wantedColumns, query string) ([]retrieval.Evidence, error) {
	sqlText, err := s.generateSQL(ctx, query, strings.Split(wantedColumns, ","))
	if err != nil {
		slog.Warn("SQL generation failed, using fallback query", "error", err)
		sqlText = fallbackQuery
	}

	return s.runGated(ctx, sqlText)
}

// IntrospectColumns is the first step of the interactive flow: list the
// columns of the named tables so the caller can choose among them.
func (s *Service) IntrospectColumns(ctx context.Context, tables []string) ([]retrieval.Evidence, error) {
	names := make([]any, 0, len(tables))
	placeholders := make([]string, 0, len(tables))
	for _, table := range tables {
		name := trimSchemaPrefix(strings.TrimSpace(table))
		if name == "" {
			continue
		}

		names = append(names, name)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(names)))
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no table names given")
	}

	introspection := fmt.Sprintf(
		"SELECT table_name, column_name FROM information_schema.columns "+
			"WHERE table_name IN (%s) ORDER BY table_name, ordinal_position",
		strings.Join(placeholders, ","))

	columns, rows, err := s.executeSQL(ctx, introspection, names...)
	if err != nil {
		return nil, err
	}

	return []retrieval.Evidence{{
		Title:   "COLUMNS",
		Content: ";;COLUMNS;;" + renderTable(columns, rows),
	}}, nil
}

// Selectable lists the allow-listed tables for the interactive flow's opening
// exchange.
func (s *Service) Selectable() []retrieval.Evidence {
	tables := make([]string, 0, len(allowedTables))
	for table := range allowedTables {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	return []retrieval.Evidence{{
		Title:   "SELECTABLE",
		Content: ";;SELECTABLE;;" + strings.Join(tables, ","),
	}}
}

func (s *Service) runGated(ctx context.Context, sqlText string) ([]retrieval.Evidence, error) {
	if !IsSafeSQL(sqlText) {
		slog.Warn("Unsafe SQL blocked", "sql", sqlText)
		sqlText = fallbackQuery
	}

	columns, rows, err := s.executeSQL(ctx, sqlText)
	if err != nil {
		return nil, err
	}

	return []retrieval.Evidence{{
		Title:   "SQL Query",
		Content: fmt.Sprintf("SQL Query:\n%s\n\nResults:\n%s", sqlText, renderTable(columns, rows)),
	}}, nil
}

func (s *Service) generateSQL(ctx context.Context, query string, wantedColumns []string) (string, error) {
	var columnsLine string
	if len(wantedColumns) > 0 {
		columnsLine = fmt.Sprintf("Required Columns: %s\n", strings.Join(wantedColumns, ", "))
	}

	prompt := fmt.Sprintf(
		"You are an expert SQL query generator for infrastructure inventory data. Generate a read-only PostgreSQL query based on the user's requirements.\n\n"+
			"User Query: %s\n%s\n"+
			"INSTRUCTIONS:\n"+
			"1. Analyze the user query to determine the logical order of columns in the SELECT clause\n"+
			"2. Use LEFT OUTER JOIN to ensure all columns appear in results, even when related data doesn't exist\n"+
			"3. Determine an appropriate ORDER BY clause based on the user query context\n"+
			"4. Use table aliases for readability (vm for virtual_machines, ni for network_interfaces, sw for installed_software)\n"+
			"5. Only use SELECT statements - no mutating statements of any kind\n"+
			"6. Join tables appropriately: vm.resource_id = ni.vm_resource_id for the VM-NIC relationship\n"+
			"7. Always bound the result with LIMIT %d\n"+
			"Available Tables and Schema:\n%s\n\n"+
			"EXAMPLE OUTPUT FORMAT:\n"+
			"SELECT vm.resource_group, vm.name AS resource_name, ni.name AS network_interface_name\n"+
			"FROM virtual_machines AS vm\n"+
			"LEFT OUTER JOIN network_interfaces AS ni ON vm.resource_id = ni.vm_resource_id\n"+
			"ORDER BY vm.resource_group, vm.name\nLIMIT %d;\n\n"+
			"Generate ONLY the SQL query without any explanation or markdown formatting:",
		query, columnsLine, defaultRowLimit, tableInfo, defaultRowLimit)

	text, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate SQL: %w", err)
	}

	return stripCodeFence(text), nil
}

func (s *Service) executeSQL(ctx context.Context, sqlText string, args ...any) ([]string, [][]string, error) {
	slog.Info("Executing SQL query", "sql", sqlText)

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("SQL execution error: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var result [][]string
	for rows.Next() {
		values := make([]any, len(columns))
		for i := range values {
			values[i] = new(any)
		}

		if err = rows.Scan(values...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make([]string, len(columns))
		for i, value := range values {
			row[i] = stringify(*value.(*any))
		}
		result = append(result, row)
	}
	if err = rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return columns, result, nil
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

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.Trim(text, "`\n")
	if strings.HasPrefix(strings.ToLower(text), "sql") {
		lines := strings.Split(text, "\n")
		text = strings.Join(lines[1:], "\n")
	}

	return strings.TrimSpace(text)
}
