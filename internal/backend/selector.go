package backend

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pgmcp/pgmcp/internal/mcp"
)

// Selector state. REAL is the default when the startup probe succeeds.
const (
	StateReal int32 = iota
	StateMock
)

const DefaultCallTimeout = 30 * time.Second

// Mode fixes the selection policy at startup.
type Mode string

const (
	ModeAuto     Mode = "auto"     // probe, fall back to the substitute
	ModePostgres Mode = "postgres" // real only, startup fails if unreachable
	ModeMock     Mode = "mock"     // substitute only
)

// Selector owns the REAL/MOCK decision. The flag is the only state shared
// across requests; it transitions exactly once per outage through a
// compare-and-set, so concurrent failing calls cannot duplicate or lose
// the transition.
type Selector struct {
	real    Backend
	mock    Backend
	timeout time.Duration

	state atomic.Int32
}

func NewSelector(real, mock Backend, timeout time.Duration) *Selector {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Selector{
		real:    real,
		mock:    mock,
		timeout: timeout,
	}
}

// Startup runs the initial health probe according to mode. There is no
// automatic MOCK->REAL recovery later; only a new Startup or an explicit
// Reset re-probes.
func (s *Selector) Startup(ctx context.Context, mode Mode) error {
	switch mode {
	case ModeMock:
		s.state.Store(StateMock)
		log.Info().Str("backend", s.mock.Name()).Msg("substitute backend selected")
		return nil
	case ModePostgres:
		if err := s.probe(ctx); err != nil {
			return fmt.Errorf("backend %s unavailable: %w", s.real.Name(), err)
		}
		s.state.Store(StateReal)
		return nil
	default:
		if err := s.probe(ctx); err != nil {
			log.Warn().Err(err).
				Str("backend", s.real.Name()).
				Msg("health probe failed, falling back to substitute backend")
			s.state.Store(StateMock)
			return nil
		}
		s.state.Store(StateReal)
		log.Info().Str("backend", s.real.Name()).Msg("real backend selected")
		return nil
	}
}

// Reset is the administrative recovery path: re-probe the real backend and
// switch back to it on success.
func (s *Selector) Reset(ctx context.Context) error {
	if err := s.probe(ctx); err != nil {
		return err
	}
	if s.state.CompareAndSwap(StateMock, StateReal) {
		log.Info().Str("backend", s.real.Name()).Msg("real backend restored")
	}
	return nil
}

func (s *Selector) probe(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.real.HealthProbe(pctx)
}

// State returns the current selection, for introspection and tests.
func (s *Selector) State() int32 {
	return s.state.Load()
}

// Active returns the backend currently answering invocations.
func (s *Selector) Active() Backend {
	if s.state.Load() == StateMock {
		return s.mock
	}
	return s.real
}

// Invoke routes one tool call. On REAL, a connectivity-class failure
// transitions REAL->MOCK (once, via CAS) and the call is retried against
// the substitute before any failure is reported. A domain failure from a
// reachable backend becomes an isError result and never transitions state.
func (s *Selector) Invoke(ctx context.Context, tool string, args mcp.M) (*mcp.ToolsCallResponse, error) {
	if s.state.Load() == StateReal {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		resp, err := s.real.Invoke(cctx, tool, args)
		cancel()
		if err == nil {
			return resp, nil
		}
		if !IsConnectivity(err) {
			return mcp.ErrorResult("%v", err), nil
		}
		if s.state.CompareAndSwap(StateReal, StateMock) {
			log.Warn().Err(err).
				Str("tool", tool).
				Str("backend", s.real.Name()).
				Msg("connectivity failure, switching to substitute backend")
		}
	}

	// The deadline of a failed real call must not starve the retry.
	mctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := s.mock.Invoke(mctx, tool, args)
	if err != nil {
		if IsConnectivity(err) {
			return nil, err
		}
		return mcp.ErrorResult("%v", err), nil
	}
	return resp, nil
}

// Handler binds one tool name to this selector, satisfying the registry's
// invocation contract while keeping backend selection owned here.
func (s *Selector) Handler(name string) mcp.ToolHandler {
	return boundTool{selector: s, name: name}
}

type boundTool struct {
	selector *Selector
	name     string
}

func (t boundTool) Invoke(ctx context.Context, args mcp.M) (*mcp.ToolsCallResponse, error) {
	return t.selector.Invoke(ctx, t.name, args)
}
