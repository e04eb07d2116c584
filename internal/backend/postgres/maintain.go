package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgmcp/pgmcp/internal/backend"
	"github.com/pgmcp/pgmcp/internal/mcp"
)

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// optimizeTable runs VACUUM ANALYZE and reports the table statistics
// afterwards.
func (s *Service) optimizeTable(ctx context.Context, pool *pgxpool.Pool, args mcp.M) (string, error) {
	table := backend.StringArg(args, "table_name", "")
	schema := backend.StringArg(args, "schema", "public")
	ident := quoteIdent(schema) + "." + quoteIdent(table)

	if _, err := pool.Exec(ctx, "VACUUM ANALYZE "+ident); err != nil {
		return "", classify("optimize table", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Table %s.%s optimized (VACUUM ANALYZE)\n", schema, table)

	var liveTuples, deadTuples, inserts, updates, deletes int64
	err := pool.QueryRow(ctx, `
		SELECT n_live_tup, n_dead_tup, n_tup_ins, n_tup_upd, n_tup_del
		FROM pg_stat_user_tables
		WHERE schemaname = $1 AND relname = $2`, schema, table).
		Scan(&liveTuples, &deadTuples, &inserts, &updates, &deletes)
	if err != nil {
		if isNoRows(err) {
			return b.String(), nil
		}
		return "", classify("optimize table", err)
	}

	fmt.Fprintf(&b, "Live tuples: %d\nDead tuples: %d\n", liveTuples, deadTuples)
	fmt.Fprintf(&b, "Inserts: %d, updates: %d, deletes: %d\n", inserts, updates, deletes)
	return b.String(), nil
}

// createIndex builds an index over one or more comma-separated columns.
func (s *Service) createIndex(ctx context.Context, pool *pgxpool.Pool, args mcp.M) (string, error) {
	table := backend.StringArg(args, "table_name", "")
	schema := backend.StringArg(args, "schema", "public")
	columns := backend.StringArg(args, "columns", "")
	unique := backend.BoolArg(args, "unique")

	var cols []string
	for _, c := range strings.Split(columns, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("no columns specified for index on %s.%s", schema, table)
	}

	indexName := backend.StringArg(args, "index_name",
		fmt.Sprintf("idx_%s_%s", table, strings.Join(cols, "_")))

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}

	stmt := "CREATE "
	if unique {
		stmt += "UNIQUE "
	}
	stmt += fmt.Sprintf("INDEX %s ON %s.%s (%s)",
		quoteIdent(indexName), quoteIdent(schema), quoteIdent(table), strings.Join(quoted, ", "))

	if _, err := pool.Exec(ctx, stmt); err != nil {
		return "", classify("create index", err)
	}
	return fmt.Sprintf("Index %s created on %s.%s (%s)\n",
		indexName, schema, table, strings.Join(cols, ", ")), nil
}

// backupTable snapshots a table with CREATE TABLE ... AS SELECT.
func (s *Service) backupTable(ctx context.Context, pool *pgxpool.Pool, args mcp.M) (string, error) {
	table := backend.StringArg(args, "table_name", "")
	schema := backend.StringArg(args, "schema", "public")
	backupName := backend.StringArg(args, "backup_name",
		fmt.Sprintf("%s_backup_%s", table, time.Now().Format("20060102_150405")))

	src := quoteIdent(schema) + "." + quoteIdent(table)
	dst := quoteIdent(schema) + "." + quoteIdent(backupName)

	tag, err := pool.Exec(ctx, fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s", dst, src))
	if err != nil {
		return "", classify("backup table", err)
	}
	return fmt.Sprintf("Backup %s.%s created from %s.%s (%d row(s) copied)\n",
		schema, backupName, schema, table, tag.RowsAffected()), nil
}
