package backend

import (
	"encoding/json"

	"github.com/pgmcp/pgmcp/internal/mcp"
)

// Tool names shared by the real backend and its substitute. Both must
// answer the full set; the registry guarantees nothing else reaches them.
const (
	ToolConnectionTest = "postgres_connection_test"
	ToolQuery          = "postgres_query"
	ToolQueryAnalyze   = "postgres_query_analyze"
	ToolSchema         = "postgres_schema"
	ToolTableInfo      = "postgres_table_info"
	ToolTableStats     = "postgres_table_stats"
	ToolSlowQueries    = "postgres_slow_queries"
	ToolOptimizeTable  = "postgres_optimize_table"
	ToolLocks          = "postgres_locks"
	ToolCreateIndex    = "postgres_create_index"
	ToolBackupTable    = "postgres_backup_table"
)

// Argument accessors for the loosely-typed maps that arrive over the wire.
// The registry has already validated required presence and primitive
// types; these only normalize.

func StringArg(args mcp.M, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

func IntArg(args mcp.M, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case int:
		return v
	}
	return def
}

func BoolArg(args mcp.M, key string) bool {
	v, _ := args[key].(bool)
	return v
}
