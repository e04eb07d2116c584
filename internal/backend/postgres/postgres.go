// Package postgres is the real backend: a pgxpool-backed PostgreSQL
// service answering the administrative and analytical tools.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/pgmcp/pgmcp/internal/backend"
	"github.com/pgmcp/pgmcp/internal/mcp"
)

const (
	poolMinConns = 5
	poolMaxConns = 20
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type Service struct {
	conf Config

	mu   sync.Mutex
	pool *pgxpool.Pool
}

func New(conf Config) *Service {
	return &Service{conf: conf}
}

func (s *Service) Name() string {
	return "postgres"
}

func (s *Service) dsn() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(s.conf.User, s.conf.Password),
		Host:   fmt.Sprintf("%s:%d", s.conf.Host, s.conf.Port),
		Path:   s.conf.DBName,
	}
	return u.String()
}

// acquirePool initializes the connection pool on first use. The pool
// itself is concurrency-safe; the mutex only guards initialization.
func (s *Service) acquirePool(ctx context.Context) (*pgxpool.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		return s.pool, nil
	}

	conf, err := pgxpool.ParseConfig(s.dsn())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	conf.MinConns = poolMinConns
	conf.MaxConns = poolMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, classify("connect", err)
	}
	s.pool = pool
	log.Debug().Str("host", s.conf.Host).Str("database", s.conf.DBName).Msg("postgres pool initialized")
	return pool, nil
}

func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}

func (s *Service) HealthProbe(ctx context.Context) error {
	pool, err := s.acquirePool(ctx)
	if err != nil {
		return err
	}
	var version string
	if err := pool.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return classify("health probe", err)
	}
	return nil
}

func (s *Service) Invoke(ctx context.Context, tool string, args mcp.M) (*mcp.ToolsCallResponse, error) {
	pool, err := s.acquirePool(ctx)
	if err != nil {
		return nil, err
	}

	var text string
	switch tool {
	case backend.ToolConnectionTest:
		text, err = s.connectionTest(ctx, pool)
	case backend.ToolQuery:
		text, err = s.runQuery(ctx, pool, args)
	case backend.ToolQueryAnalyze:
		text, err = s.analyzeQuery(ctx, pool, args)
	case backend.ToolSchema:
		text, err = s.schemaInfo(ctx, pool)
	case backend.ToolTableInfo:
		text, err = s.tableInfo(ctx, pool, args)
	case backend.ToolTableStats:
		text, err = s.tableStats(ctx, pool)
	case backend.ToolSlowQueries:
		text, err = s.slowQueries(ctx, pool, args)
	case backend.ToolOptimizeTable:
		text, err = s.optimizeTable(ctx, pool, args)
	case backend.ToolLocks:
		text, err = s.locksInfo(ctx, pool)
	case backend.ToolCreateIndex:
		text, err = s.createIndex(ctx, pool, args)
	case backend.ToolBackupTable:
		text, err = s.backupTable(ctx, pool, args)
	default:
		return nil, fmt.Errorf("postgres: unknown tool %q", tool)
	}
	if err != nil {
		return nil, err
	}
	return mcp.TextResult(text), nil
}

// classify separates connectivity-class failures from domain failures. A
// PgError means the server answered, so it is never connectivity-class.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return backend.Unreachable(op, err)
	}
	if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return backend.Unreachable(op, err)
	}
	var ne net.Error
	if errors.As(err, &ne) || errors.Is(err, syscall.ECONNREFUSED) {
		return backend.Unreachable(op, err)
	}
	return err
}

func (s *Service) connectionTest(ctx context.Context, pool *pgxpool.Pool) (string, error) {
	var version, database, user string
	err := pool.QueryRow(ctx, "SELECT version(), current_database(), current_user").
		Scan(&version, &database, &user)
	if err != nil {
		return "", classify("connection test", err)
	}

	var b strings.Builder
	b.WriteString("Connection successful\n")
	fmt.Fprintf(&b, "Version: %s\n", version)
	fmt.Fprintf(&b, "Database: %s\n", database)
	fmt.Fprintf(&b, "User: %s\n", user)
	fmt.Fprintf(&b, "Host: %s:%d\n", s.conf.Host, s.conf.Port)
	return b.String(), nil
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
