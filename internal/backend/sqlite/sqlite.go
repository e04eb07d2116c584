// Package sqlite is the substitute backend: an in-memory SQLite database
// seeded with fixed fixtures, answering the same tool set as the real
// backend with deterministic, non-networked responses.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pgmcp/pgmcp/internal/backend"
	"github.com/pgmcp/pgmcp/internal/mcp"
)

// Fixture data lives in a single in-memory connection; a second
// connection would see an empty database, so the pool is pinned to one.
var seedStatements = []string{
	`CREATE TABLE assets (
		asset_id     INTEGER PRIMARY KEY,
		symbol       TEXT NOT NULL UNIQUE,
		name         TEXT NOT NULL,
		asset_class  TEXT NOT NULL
	)`,
	`CREATE TABLE holdings (
		holding_id   INTEGER PRIMARY KEY,
		portfolio_id INTEGER NOT NULL,
		asset_id     INTEGER NOT NULL REFERENCES assets(asset_id),
		quantity     REAL NOT NULL,
		market_value REAL NOT NULL
	)`,
	`INSERT INTO assets (asset_id, symbol, name, asset_class) VALUES
		(1, 'AAA', 'Alpha Holdings', 'equity'),
		(2, 'BBB', 'Beta Industries', 'equity'),
		(3, 'CCC', 'Gamma Bond Fund', 'fixed_income')`,
	`INSERT INTO holdings (holding_id, portfolio_id, asset_id, quantity, market_value) VALUES
		(1, 1, 1, 100, 12500.0),
		(2, 1, 2, 50, 4200.5),
		(3, 2, 3, 200, 20000.0)`,
}

type Service struct {
	db *sql.DB
}

// New opens and seeds the in-memory database. Seeding failures are
// configuration errors and surface immediately.
func New() (*Service, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open substitute database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range seedStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("seed substitute database: %w", err)
		}
	}
	return &Service{db: db}, nil
}

func (s *Service) Name() string {
	return "sqlite"
}

func (s *Service) Close() error {
	return s.db.Close()
}

func (s *Service) HealthProbe(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Service) Invoke(ctx context.Context, tool string, args mcp.M) (*mcp.ToolsCallResponse, error) {
	var text string
	var err error
	switch tool {
	case backend.ToolConnectionTest:
		text, err = s.connectionTest(ctx)
	case backend.ToolQuery:
		text, err = s.runQuery(ctx, args)
	case backend.ToolQueryAnalyze:
		text, err = s.analyzeQuery(ctx, args)
	case backend.ToolSchema:
		text, err = s.schemaInfo(ctx)
	case backend.ToolTableInfo:
		text, err = s.tableInfo(ctx, args)
	case backend.ToolTableStats:
		text, err = s.tableStats(ctx)
	case backend.ToolSlowQueries:
		text = "Query statistics are not collected by the substitute backend\n0 tracked statement(s)\n"
	case backend.ToolOptimizeTable:
		text, err = s.optimizeTable(ctx, args)
	case backend.ToolLocks:
		text = "0 lock(s) held by other sessions\n"
	case backend.ToolCreateIndex:
		text, err = s.createIndex(ctx, args)
	case backend.ToolBackupTable:
		text, err = s.backupTable(ctx, args)
	default:
		return nil, fmt.Errorf("sqlite: unknown tool %q", tool)
	}
	if err != nil {
		return nil, err
	}
	return mcp.TextResult(text), nil
}

func (s *Service) connectionTest(ctx context.Context) (string, error) {
	var version string
	if err := s.db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Connection successful (substitute backend)\n")
	fmt.Fprintf(&b, "Version: SQLite %s\n", version)
	b.WriteString("Database: in-memory\n")
	b.WriteString("User: local\n")
	return b.String(), nil
}

func (s *Service) runQuery(ctx context.Context, args mcp.M) (string, error) {
	query := backend.StringArg(args, "query", "")

	if isRowReturning(query) {
		rows, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return "", err
		}
		defer rows.Close()
		return formatRows(rows)
	}

	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return "", err
	}
	affected, _ := res.RowsAffected()
	return fmt.Sprintf("Query executed successfully\nCommand: %s\nAffected rows: %d\n",
		strings.Fields(query)[0], affected), nil
}

func (s *Service) analyzeQuery(ctx context.Context, args mcp.M) (string, error) {
	query := backend.StringArg(args, "query", "")

	rows, err := s.db.QueryContext(ctx, "EXPLAIN QUERY PLAN "+query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var b strings.Builder
	b.WriteString("Execution plan:\n")
	for rows.Next() {
		var id, parent, notUsed int
		var detail string
		if err := rows.Scan(&id, &parent, &notUsed, &detail); err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s\n", detail)
	}
	return b.String(), rows.Err()
}

func isRowReturning(query string) bool {
	fields := strings.Fields(strings.ToUpper(query))
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "SELECT", "WITH", "VALUES", "EXPLAIN", "PRAGMA":
		return true
	}
	return false
}

func formatRows(rows *sql.Rows) (string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(strings.Join(cols, " | "))
	b.WriteString("\n")

	count := 0
	values := make([]interface{}, len(cols))
	scan := make([]interface{}, len(cols))
	for i := range values {
		scan[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return "", err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatValue(v)
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString("\n")
		count++
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	fmt.Fprintf(&b, "\n%d row(s)\n", count)
	return b.String(), nil
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
