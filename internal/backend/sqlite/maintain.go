package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgmcp/pgmcp/internal/backend"
	"github.com/pgmcp/pgmcp/internal/mcp"
)

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *Service) optimizeTable(ctx context.Context, args mcp.M) (string, error) {
	table := backend.StringArg(args, "table_name", "")

	ok, err := s.tableExists(ctx, table)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("table main.%s not found", table)
	}

	if _, err := s.db.ExecContext(ctx, "ANALYZE "+quoteIdent(table)); err != nil {
		return "", err
	}

	var count int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&count); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Table main.%s optimized (ANALYZE)\n", table)
	fmt.Fprintf(&b, "Live tuples: %d\nDead tuples: 0\n", count)
	return b.String(), nil
}

func (s *Service) createIndex(ctx context.Context, args mcp.M) (string, error) {
	table := backend.StringArg(args, "table_name", "")
	columns := backend.StringArg(args, "columns", "")
	unique := backend.BoolArg(args, "unique")

	var cols []string
	for _, c := range strings.Split(columns, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("no columns specified for index on main.%s", table)
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
	stmt += fmt.Sprintf("INDEX %s ON %s (%s)",
		quoteIdent(indexName), quoteIdent(table), strings.Join(quoted, ", "))

	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return "", err
	}
	return fmt.Sprintf("Index %s created on main.%s (%s)\n",
		indexName, table, strings.Join(cols, ", ")), nil
}

// backupTable defaults to a fixed backup name so repeated substitute
// responses stay deterministic.
func (s *Service) backupTable(ctx context.Context, args mcp.M) (string, error) {
	table := backend.StringArg(args, "table_name", "")
	backupName := backend.StringArg(args, "backup_name", table+"_backup")

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s",
		quoteIdent(backupName), quoteIdent(table))); err != nil {
		return "", err
	}

	var count int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+quoteIdent(backupName)).Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("Backup main.%s created from main.%s (%d row(s) copied)\n",
		backupName, table, count), nil
}
