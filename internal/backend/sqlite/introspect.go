package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgmcp/pgmcp/internal/backend"
	"github.com/pgmcp/pgmcp/internal/mcp"
)

func (s *Service) listTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (s *Service) columnLines(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dflt *string
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		line := fmt.Sprintf("%s %s", name, strings.ToLower(colType))
		if notNull == 1 {
			line += " not null"
		}
		if dflt != nil {
			line += " default " + *dflt
		}
		if pk == 1 {
			line += " primary key"
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (s *Service) schemaInfo(ctx context.Context) (string, error) {
	tables, err := s.listTables(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Database: substitute (in-memory)\n")
	fmt.Fprintf(&b, "1 schema(s), %d table(s)\n", len(tables))
	b.WriteString("\nSchema: main\n")
	for _, table := range tables {
		fmt.Fprintf(&b, "  Table: %s (owner: local)\n", table)
		cols, err := s.columnLines(ctx, table)
		if err != nil {
			return "", err
		}
		for _, line := range cols {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	return b.String(), nil
}

func (s *Service) tableExists(ctx context.Context, table string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&count)
	return count > 0, err
}

func (s *Service) tableInfo(ctx context.Context, args mcp.M) (string, error) {
	table := backend.StringArg(args, "table_name", "")
	schema := backend.StringArg(args, "schema", "main")

	ok, err := s.tableExists(ctx, table)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("table %s.%s not found", schema, table)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s.%s (owner: local)\n", schema, table)

	b.WriteString("\nColumns:\n")
	cols, err := s.columnLines(ctx, table)
	if err != nil {
		return "", err
	}
	for _, line := range cols {
		fmt.Fprintf(&b, "  %s\n", line)
	}

	b.WriteString("\nConstraints:\n")
	fkRows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(table)))
	if err != nil {
		return "", err
	}
	for fkRows.Next() {
		var id, seq int
		var refTable, from, to, onUpdate, onDelete, match string
		if err := fkRows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			fkRows.Close()
			return "", err
		}
		fmt.Fprintf(&b, "  fk_%s_%d (FOREIGN KEY %s -> %s.%s)\n", table, id, from, refTable, to)
	}
	fkRows.Close()
	if err := fkRows.Err(); err != nil {
		return "", err
	}

	b.WriteString("\nIndexes:\n")
	idxRows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(table)))
	if err != nil {
		return "", err
	}
	for idxRows.Next() {
		var seq int
		var name, origin string
		var unique, partial int
		if err := idxRows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			idxRows.Close()
			return "", err
		}
		kind := "index"
		if unique == 1 {
			kind = "unique index"
		}
		fmt.Fprintf(&b, "  %s: %s\n", name, kind)
	}
	idxRows.Close()
	if err := idxRows.Err(); err != nil {
		return "", err
	}

	var count int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&count); err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "\nRow count: %d\n", count)
	return b.String(), nil
}

func (s *Service) tableStats(ctx context.Context) (string, error) {
	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return "", err
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Database: substitute (in-memory)\n")
	fmt.Fprintf(&b, "Total size: %d bytes (%d pages)\n", pageCount*pageSize, pageCount)

	tables, err := s.listTables(ctx)
	if err != nil {
		return "", err
	}
	b.WriteString("\nLargest tables:\n")
	for _, table := range tables {
		var count int64
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&count); err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "  main.%s: %d row(s)\n", table, count)
	}
	return b.String(), nil
}
