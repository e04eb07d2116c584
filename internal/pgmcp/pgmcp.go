package pgmcp

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pgmcp/pgmcp/internal/backend"
	"github.com/pgmcp/pgmcp/internal/backend/postgres"
	"github.com/pgmcp/pgmcp/internal/backend/sqlite"
	"github.com/pgmcp/pgmcp/internal/pgmcp/conf"
	"github.com/pgmcp/pgmcp/internal/pgmcp/http"
	"github.com/pgmcp/pgmcp/pkg/config"
)

// Manager wires configuration, backends, selector and HTTP transport into
// one runnable gateway.
type Manager struct {
	sc  *conf.ServerConfig
	scm *config.Manager

	// Services
	pg       *postgres.Service
	sub      *sqlite.Service
	selector *backend.Selector
	http     *http.Service
}

func New() *Manager {
	return &Manager{}
}

// Run starts the gateway and blocks until SIGINT or SIGTERM.
func (m *Manager) Run(configPath string, cmdConf map[string]any) error {

	if err := m.setup(configPath, cmdConf); err != nil {
		return err
	}
	defer m.close()

	if err := m.http.Start(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	return m.http.Stop()
}

func (m *Manager) setup(configPath string, cmdConf map[string]any) error {

	var err error
	m.sc, m.scm, err = conf.LoadServiceConfig(configPath, cmdConf)
	if err != nil {
		return err
	}

	m.pg = postgres.New(postgres.Config{
		Host:     m.sc.PGHost,
		Port:     m.sc.PGPort,
		User:     m.sc.PGUser,
		Password: m.sc.PGPassword,
		DBName:   m.sc.PGDBName,
	})

	m.sub, err = sqlite.New()
	if err != nil {
		return err
	}

	m.selector = backend.NewSelector(m.pg, m.sub, m.sc.GetCallTimeout())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.selector.Startup(ctx, backend.Mode(m.sc.GetBackendMode())); err != nil {
		return err
	}

	m.http = http.NewService(m.sc, m.selector)
	return nil
}

func (m *Manager) close() {
	if m.pg != nil {
		m.pg.Close()
	}
	if m.sub != nil {
		if err := m.sub.Close(); err != nil {
			log.Debug().Err(err).Msg("close substitute backend failed")
		}
	}
}
