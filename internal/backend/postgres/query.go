package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgmcp/pgmcp/internal/backend"
	"github.com/pgmcp/pgmcp/internal/mcp"
)

// runQuery executes arbitrary SQL. SELECT-like statements return a
// formatted row set; everything else reports affected rows.
func (s *Service) runQuery(ctx context.Context, pool *pgxpool.Pool, args mcp.M) (string, error) {
	query := backend.StringArg(args, "query", "")
	params, _ := args["params"].([]interface{})

	if isRowReturning(query) {
		rows, err := pool.Query(ctx, query, params...)
		if err != nil {
			return "", classify("query", err)
		}
		defer rows.Close()
		return formatRows(rows)
	}

	tag, err := pool.Exec(ctx, query, params...)
	if err != nil {
		return "", classify("query", err)
	}
	return fmt.Sprintf("Query executed successfully\nCommand: %s\nAffected rows: %d\n",
		strings.Fields(query)[0], tag.RowsAffected()), nil
}

// analyzeQuery runs the statement under EXPLAIN ANALYZE and returns the
// plan text.
func (s *Service) analyzeQuery(ctx context.Context, pool *pgxpool.Pool, args mcp.M) (string, error) {
	query := backend.StringArg(args, "query", "")

	rows, err := pool.Query(ctx, "EXPLAIN (ANALYZE, BUFFERS) "+query)
	if err != nil {
		return "", classify("query analyze", err)
	}
	defer rows.Close()

	var b strings.Builder
	b.WriteString("Execution plan:\n")
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return "", classify("query analyze", err)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if err := rows.Err(); err != nil {
		return "", classify("query analyze", err)
	}
	return b.String(), nil
}

func isRowReturning(query string) bool {
	fields := strings.Fields(strings.ToUpper(query))
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "SELECT", "WITH", "SHOW", "TABLE", "VALUES", "EXPLAIN":
		return true
	}
	return false
}

func formatRows(rows pgx.Rows) (string, error) {
	descs := rows.FieldDescriptions()
	cols := make([]string, len(descs))
	for i, d := range descs {
		cols[i] = string(d.Name)
	}

	var b strings.Builder
	b.WriteString(strings.Join(cols, " | "))
	b.WriteString("\n")

	count := 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return "", classify("query", err)
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
		return "", classify("query", err)
	}

	fmt.Fprintf(&b, "\n%d row(s)\n", count)
	return b.String(), nil
}
