package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgmcp/pgmcp/internal/backend"
	"github.com/pgmcp/pgmcp/internal/mcp"
)

// schemaInfo lists all non-catalog tables with their columns.
func (s *Service) schemaInfo(ctx context.Context, pool *pgxpool.Pool) (string, error) {
	rows, err := pool.Query(ctx, `
		SELECT schemaname, tablename, tableowner
		FROM pg_tables
		WHERE schemaname NOT IN ('information_schema', 'pg_catalog')
		ORDER BY schemaname, tablename`)
	if err != nil {
		return "", classify("schema", err)
	}

	type table struct {
		schema, name, owner string
	}
	var tables []table
	for rows.Next() {
		var t table
		if err := rows.Scan(&t.schema, &t.name, &t.owner); err != nil {
			rows.Close()
			return "", classify("schema", err)
		}
		tables = append(tables, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return "", classify("schema", err)
	}

	schemas := map[string]bool{}
	for _, t := range tables {
		schemas[t.schema] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Database: %s\n", s.conf.DBName)
	fmt.Fprintf(&b, "%d schema(s), %d table(s)\n", len(schemas), len(tables))

	lastSchema := ""
	for _, t := range tables {
		if t.schema != lastSchema {
			fmt.Fprintf(&b, "\nSchema: %s\n", t.schema)
			lastSchema = t.schema
		}
		fmt.Fprintf(&b, "  Table: %s (owner: %s)\n", t.name, t.owner)

		cols, err := s.columnLines(ctx, pool, t.schema, t.name)
		if err != nil {
			return "", err
		}
		for _, line := range cols {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	return b.String(), nil
}

func (s *Service) columnLines(ctx context.Context, pool *pgxpool.Pool, schema, table string) ([]string, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return nil, classify("schema columns", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var name, dataType, nullable string
		var colDefault *string
		if err := rows.Scan(&name, &dataType, &nullable, &colDefault); err != nil {
			return nil, classify("schema columns", err)
		}
		line := fmt.Sprintf("%s %s", name, dataType)
		if nullable == "NO" {
			line += " not null"
		}
		if colDefault != nil {
			line += " default " + *colDefault
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// tableInfo reports columns, constraints, indexes and row count for one
// table. A missing table is a domain failure, not a connectivity one.
func (s *Service) tableInfo(ctx context.Context, pool *pgxpool.Pool, args mcp.M) (string, error) {
	table := backend.StringArg(args, "table_name", "")
	schema := backend.StringArg(args, "schema", "public")

	var owner string
	var hasIndexes bool
	err := pool.QueryRow(ctx, `
		SELECT tableowner, hasindexes
		FROM pg_tables
		WHERE schemaname = $1 AND tablename = $2`, schema, table).Scan(&owner, &hasIndexes)
	if err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("table %s.%s not found", schema, table)
		}
		return "", classify("table info", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s.%s (owner: %s)\n", schema, table, owner)

	b.WriteString("\nColumns:\n")
	cols, err := s.columnLines(ctx, pool, schema, table)
	if err != nil {
		return "", err
	}
	for _, line := range cols {
		fmt.Fprintf(&b, "  %s\n", line)
	}

	b.WriteString("\nConstraints:\n")
	crows, err := pool.Query(ctx, `
		SELECT constraint_name, constraint_type
		FROM information_schema.table_constraints
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY constraint_name`, schema, table)
	if err != nil {
		return "", classify("table info", err)
	}
	for crows.Next() {
		var name, ctype string
		if err := crows.Scan(&name, &ctype); err != nil {
			crows.Close()
			return "", classify("table info", err)
		}
		fmt.Fprintf(&b, "  %s (%s)\n", name, ctype)
	}
	crows.Close()
	if err := crows.Err(); err != nil {
		return "", classify("table info", err)
	}

	b.WriteString("\nIndexes:\n")
	irows, err := pool.Query(ctx, `
		SELECT indexname, indexdef
		FROM pg_indexes
		WHERE schemaname = $1 AND tablename = $2`, schema, table)
	if err != nil {
		return "", classify("table info", err)
	}
	for irows.Next() {
		var name, def string
		if err := irows.Scan(&name, &def); err != nil {
			irows.Close()
			return "", classify("table info", err)
		}
		fmt.Fprintf(&b, "  %s: %s\n", name, def)
	}
	irows.Close()
	if err := irows.Err(); err != nil {
		return "", classify("table info", err)
	}

	var count int64
	ident := quoteIdent(schema) + "." + quoteIdent(table)
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+ident).Scan(&count); err != nil {
		return "", classify("table info", err)
	}
	fmt.Fprintf(&b, "\nRow count: %d\n", count)
	return b.String(), nil
}

// tableStats reports database size and the largest tables.
func (s *Service) tableStats(ctx context.Context, pool *pgxpool.Pool) (string, error) {
	var dbName, sizePretty string
	var sizeBytes int64
	err := pool.QueryRow(ctx, `
		SELECT datname,
		       pg_size_pretty(pg_database_size(datname)),
		       pg_database_size(datname)
		FROM pg_database
		WHERE datname = current_database()`).Scan(&dbName, &sizePretty, &sizeBytes)
	if err != nil {
		return "", classify("table stats", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Database: %s\nTotal size: %s (%d bytes)\n", dbName, sizePretty, sizeBytes)

	rows, err := pool.Query(ctx, `
		SELECT schemaname,
		       tablename,
		       pg_size_pretty(pg_total_relation_size(schemaname||'.'||tablename)),
		       pg_size_pretty(pg_relation_size(schemaname||'.'||tablename)),
		       pg_size_pretty(pg_indexes_size(schemaname||'.'||tablename))
		FROM pg_tables
		WHERE schemaname NOT IN ('information_schema', 'pg_catalog')
		ORDER BY pg_total_relation_size(schemaname||'.'||tablename) DESC
		LIMIT 10`)
	if err != nil {
		return "", classify("table stats", err)
	}
	defer rows.Close()

	b.WriteString("\nLargest tables:\n")
	for rows.Next() {
		var schema, table, total, data, indexes string
		if err := rows.Scan(&schema, &table, &total, &data, &indexes); err != nil {
			return "", classify("table stats", err)
		}
		fmt.Fprintf(&b, "  %s.%s: total %s (table %s, indexes %s)\n", schema, table, total, data, indexes)
	}
	return b.String(), rows.Err()
}

// slowQueries reads pg_stat_statements when the extension is installed.
func (s *Service) slowQueries(ctx context.Context, pool *pgxpool.Pool, args mcp.M) (string, error) {
	limit := backend.IntArg(args, "limit", 10)
	if limit <= 0 {
		limit = 10
	}

	var hasExtension bool
	err := pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'pg_stat_statements')").
		Scan(&hasExtension)
	if err != nil {
		return "", classify("slow queries", err)
	}
	if !hasExtension {
		return "", fmt.Errorf("pg_stat_statements extension not available")
	}

	rows, err := pool.Query(ctx, `
		SELECT query, calls, mean_exec_time, max_exec_time, rows
		FROM pg_stat_statements
		ORDER BY mean_exec_time DESC
		LIMIT $1`, limit)
	if err != nil {
		return "", classify("slow queries", err)
	}
	defer rows.Close()

	var b strings.Builder
	b.WriteString("Slowest queries by mean execution time:\n")
	i := 0
	for rows.Next() {
		var query string
		var calls, rowCount int64
		var mean, max float64
		if err := rows.Scan(&query, &calls, &mean, &max, &rowCount); err != nil {
			return "", classify("slow queries", err)
		}
		i++
		fmt.Fprintf(&b, "%d. mean %.2fms, max %.2fms, %d call(s), %d row(s)\n   %s\n",
			i, mean, max, calls, rowCount, strings.TrimSpace(query))
	}
	return b.String(), rows.Err()
}

// locksInfo joins pg_locks against pg_stat_activity, excluding this
// session.
func (s *Service) locksInfo(ctx context.Context, pool *pgxpool.Pool) (string, error) {
	rows, err := pool.Query(ctx, `
		SELECT l.locktype, l.pid, l.mode, l.granted,
		       a.usename, COALESCE(a.query, '')
		FROM pg_locks l
		JOIN pg_stat_activity a ON l.pid = a.pid
		WHERE a.pid != pg_backend_pid()
		ORDER BY l.granted, l.pid`)
	if err != nil {
		return "", classify("locks", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var lockType, mode string
		var pid int
		var granted bool
		var user, query *string
		if err := rows.Scan(&lockType, &pid, &mode, &granted, &user, &query); err != nil {
			return "", classify("locks", err)
		}
		state := "granted"
		if !granted {
			state = "waiting"
		}
		userName := ""
		if user != nil {
			userName = *user
		}
		queryText := ""
		if query != nil {
			queryText = strings.TrimSpace(*query)
		}
		lines = append(lines, fmt.Sprintf("  pid %d (%s): %s %s, %s: %s",
			pid, userName, mode, lockType, state, queryText))
	}
	if err := rows.Err(); err != nil {
		return "", classify("locks", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d lock(s) held by other sessions\n", len(lines))
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String(), nil
}
