package http

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pgmcp/pgmcp/internal/backend"
	"github.com/pgmcp/pgmcp/internal/mcp"
	"github.com/pgmcp/pgmcp/internal/pgmcp/conf"
	"github.com/pgmcp/pgmcp/pkg/version"
)

func (s *Service) initMCP() {
	s.registry = mcp.NewRegistry()

	s.registry.Register(EchoTool, mcp.ToolHandlerFunc(s.handleEcho))
	for _, tool := range postgresTools {
		s.registry.Register(tool, s.selector.Handler(tool.Name))
	}

	s.dispatcher = mcp.NewDispatcher(s.registry, mcp.ServerInfo{
		Name:    conf.AppName,
		Version: version.Version,
	})
}

// handleMCP is the single JSON-RPC ingress. A body that is not valid JSON
// is the only case answered with HTTP 400; every other failure travels as
// a JSON-RPC error object or an isError tool result over HTTP 200.
func (s *Service) handleMCP(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Debug().Err(err).Msg("read request body failed")
		c.JSON(http.StatusBadRequest, mcp.NewErrorResponse(nil, mcp.ErrParseError))
		return
	}

	resp := s.dispatcher.HandleRaw(c.Request.Context(), raw)
	status := http.StatusOK
	if resp.Error != nil && resp.Error.Code == mcp.CodeParseError {
		status = http.StatusBadRequest
	}
	c.JSON(status, resp)
}

var EchoTool = mcp.Tool{
	Name:        "echo",
	Description: "Echo back the provided message. Useful for verifying that the gateway is reachable and authentication is configured correctly.",
	InputSchema: mcp.ToolSchema{
		Type: "object",
		Properties: map[string]mcp.Property{
			"message": {Type: "string", Description: "Text to echo back"},
		},
		Required: []string{"message"},
	},
}

// handleEcho never touches a backend; it answers from the gateway itself.
func (s *Service) handleEcho(ctx context.Context, args mcp.M) (*mcp.ToolsCallResponse, error) {
	message := backend.StringArg(args, "message", "")
	return mcp.TextResult("Echo: " + message), nil
}

var postgresTools = []mcp.Tool{
	{
		Name:        backend.ToolConnectionTest,
		Description: "Test the database connection and report server version, database, user and host.",
		InputSchema: mcp.ToolSchema{
			Type:       "object",
			Properties: map[string]mcp.Property{},
		},
	},
	{
		Name:        backend.ToolQuery,
		Description: "Execute a SQL query. Row-returning statements are rendered as a text table; other statements report the number of affected rows.",
		InputSchema: mcp.ToolSchema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"query":  {Type: "string", Description: "SQL statement to execute"},
				"params": {Type: "array", Description: "Positional query parameters"},
			},
			Required: []string{"query"},
		},
	},
	{
		Name:        backend.ToolQueryAnalyze,
		Description: "Run EXPLAIN ANALYZE on a SQL query and return the execution plan with buffer statistics.",
		InputSchema: mcp.ToolSchema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"query": {Type: "string", Description: "SQL statement to analyze"},
			},
			Required: []string{"query"},
		},
	},
	{
		Name:        backend.ToolSchema,
		Description: "List all non-system tables grouped by schema, with the columns of each table.",
		InputSchema: mcp.ToolSchema{
			Type:       "object",
			Properties: map[string]mcp.Property{},
		},
	},
	{
		Name:        backend.ToolTableInfo,
		Description: "Describe one table: columns, constraints, indexes and row count.",
		InputSchema: mcp.ToolSchema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"table_name": {Type: "string", Description: "Table to describe"},
				"schema":     {Type: "string", Description: "Schema name, defaults to public"},
			},
			Required: []string{"table_name"},
		},
	},
	{
		Name:        backend.ToolTableStats,
		Description: "Report total database size and the largest tables by on-disk size.",
		InputSchema: mcp.ToolSchema{
			Type:       "object",
			Properties: map[string]mcp.Property{},
		},
	},
	{
		Name:        backend.ToolSlowQueries,
		Description: "List the slowest statements recorded by pg_stat_statements, ordered by mean execution time.",
		InputSchema: mcp.ToolSchema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"limit": {Type: "integer", Description: "Number of statements to return, defaults to 10"},
			},
		},
	},
	{
		Name:        backend.ToolOptimizeTable,
		Description: "Run VACUUM ANALYZE on a table and report its maintenance statistics.",
		InputSchema: mcp.ToolSchema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"table_name": {Type: "string", Description: "Table to optimize"},
				"schema":     {Type: "string", Description: "Schema name, defaults to public"},
			},
			Required: []string{"table_name"},
		},
	},
	{
		Name:        backend.ToolLocks,
		Description: "Show current locks together with the sessions holding or awaiting them.",
		InputSchema: mcp.ToolSchema{
			Type:       "object",
			Properties: map[string]mcp.Property{},
		},
	},
	{
		Name:        backend.ToolCreateIndex,
		Description: "Create an index on one or more columns of a table.",
		InputSchema: mcp.ToolSchema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"table_name": {Type: "string", Description: "Table to index"},
				"columns":    {Type: "string", Description: "Comma-separated column list"},
				"index_name": {Type: "string", Description: "Index name, generated when omitted"},
				"unique":     {Type: "boolean", Description: "Create a unique index"},
				"schema":     {Type: "string", Description: "Schema name, defaults to public"},
			},
			Required: []string{"table_name", "columns"},
		},
	},
	{
		Name:        backend.ToolBackupTable,
		Description: "Copy a table into a timestamped backup table within the same database.",
		InputSchema: mcp.ToolSchema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"table_name":  {Type: "string", Description: "Table to back up"},
				"backup_name": {Type: "string", Description: "Name of the backup table, generated when omitted"},
				"schema":      {Type: "string", Description: "Schema name, defaults to public"},
			},
			Required: []string{"table_name"},
		},
	},
}
