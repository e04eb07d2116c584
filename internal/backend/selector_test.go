package backend

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pgmcp/pgmcp/internal/mcp"
)

// stubBackend is a scriptable Backend for selector tests.
type stubBackend struct {
	name     string
	probeErr error

	mu      sync.Mutex
	invokes int
	reply   func(tool string) (*mcp.ToolsCallResponse, error)
}

func (b *stubBackend) Name() string { return b.name }

func (b *stubBackend) HealthProbe(ctx context.Context) error { return b.probeErr }

func (b *stubBackend) Invoke(ctx context.Context, tool string, args mcp.M) (*mcp.ToolsCallResponse, error) {
	b.mu.Lock()
	b.invokes++
	b.mu.Unlock()
	if b.reply != nil {
		return b.reply(tool)
	}
	return mcp.TextResult(b.name + ": " + tool), nil
}

func (b *stubBackend) invocations() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.invokes
}

func TestStartupModes(t *testing.T) {
	ctx := context.Background()

	t.Run("mock mode never probes", func(t *testing.T) {
		real := &stubBackend{name: "real", probeErr: fmt.Errorf("should not be called")}
		s := NewSelector(real, &stubBackend{name: "mock"}, time.Second)
		if err := s.Startup(ctx, ModeMock); err != nil {
			t.Fatal(err)
		}
		if s.State() != StateMock {
			t.Errorf("state = %d, want mock", s.State())
		}
	})

	t.Run("postgres mode fails hard", func(t *testing.T) {
		real := &stubBackend{name: "real", probeErr: Unreachable("probe", fmt.Errorf("refused"))}
		s := NewSelector(real, &stubBackend{name: "mock"}, time.Second)
		if err := s.Startup(ctx, ModePostgres); err == nil {
			t.Fatal("Startup() in postgres mode ignored a failed probe")
		}
	})

	t.Run("auto mode falls back", func(t *testing.T) {
		real := &stubBackend{name: "real", probeErr: Unreachable("probe", fmt.Errorf("refused"))}
		s := NewSelector(real, &stubBackend{name: "mock"}, time.Second)
		if err := s.Startup(ctx, ModeAuto); err != nil {
			t.Fatal(err)
		}
		if s.State() != StateMock {
			t.Errorf("state = %d, want mock after failed probe", s.State())
		}
	})

	t.Run("auto mode selects real", func(t *testing.T) {
		s := NewSelector(&stubBackend{name: "real"}, &stubBackend{name: "mock"}, time.Second)
		if err := s.Startup(ctx, ModeAuto); err != nil {
			t.Fatal(err)
		}
		if s.State() != StateReal {
			t.Errorf("state = %d, want real", s.State())
		}
	})
}

func TestInvokeDomainErrorKeepsReal(t *testing.T) {
	real := &stubBackend{name: "real", reply: func(tool string) (*mcp.ToolsCallResponse, error) {
		return nil, fmt.Errorf(`relation "nope" does not exist`)
	}}
	mock := &stubBackend{name: "mock"}
	s := NewSelector(real, mock, time.Second)
	if err := s.Startup(context.Background(), ModeAuto); err != nil {
		t.Fatal(err)
	}

	resp, err := s.Invoke(context.Background(), ToolQuery, mcp.M{"query": "SELECT 1"})
	if err != nil {
		t.Fatalf("domain failure surfaced as invocation error: %v", err)
	}
	if !resp.IsError {
		t.Error("domain failure result is missing isError")
	}
	if s.State() != StateReal {
		t.Error("domain failure triggered a backend transition")
	}
	if mock.invocations() != 0 {
		t.Error("domain failure was retried against the substitute")
	}
}

func TestInvokeConnectivityFallsBack(t *testing.T) {
	real := &stubBackend{name: "real", reply: func(tool string) (*mcp.ToolsCallResponse, error) {
		return nil, Unreachable("query", fmt.Errorf("connection refused"))
	}}
	mock := &stubBackend{name: "mock"}
	s := NewSelector(real, mock, time.Second)
	if err := s.Startup(context.Background(), ModeAuto); err != nil {
		t.Fatal(err)
	}

	resp, err := s.Invoke(context.Background(), ToolQuery, mcp.M{"query": "SELECT 1"})
	if err != nil {
		t.Fatalf("fallback retry failed: %v", err)
	}
	if resp.IsError {
		t.Error("substitute answer carries isError")
	}
	if s.State() != StateMock {
		t.Error("connectivity failure did not transition to the substitute")
	}
	if mock.invocations() != 1 {
		t.Errorf("substitute invoked %d times, want 1", mock.invocations())
	}

	// Later calls go straight to the substitute; the real backend is not
	// probed again.
	before := real.invocations()
	if _, err := s.Invoke(context.Background(), ToolSchema, mcp.M{}); err != nil {
		t.Fatal(err)
	}
	if real.invocations() != before {
		t.Error("real backend touched after fallback")
	}
}

func TestInvokeTimeoutIsConnectivity(t *testing.T) {
	real := &stubBackend{name: "real", reply: func(tool string) (*mcp.ToolsCallResponse, error) {
		return nil, context.DeadlineExceeded
	}}
	mock := &stubBackend{name: "mock"}
	s := NewSelector(real, mock, 50*time.Millisecond)
	if err := s.Startup(context.Background(), ModeAuto); err != nil {
		t.Fatal(err)
	}

	resp, err := s.Invoke(context.Background(), ToolConnectionTest, mcp.M{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.IsError {
		t.Error("substitute answer carries isError")
	}
	if s.State() != StateMock {
		t.Error("timeout did not count as a connectivity failure")
	}
}

func TestConcurrentFallbackTransitionsOnce(t *testing.T) {
	real := &stubBackend{name: "real", reply: func(tool string) (*mcp.ToolsCallResponse, error) {
		return nil, Unreachable("query", fmt.Errorf("connection reset"))
	}}
	mock := &stubBackend{name: "mock"}
	s := NewSelector(real, mock, time.Second)
	if err := s.Startup(context.Background(), ModeAuto); err != nil {
		t.Fatal(err)
	}

	const workers = 32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := s.Invoke(context.Background(), ToolQuery, mcp.M{"query": "SELECT 1"}); err != nil {
				t.Errorf("Invoke() = %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if s.State() != StateMock {
		t.Fatal("no transition happened")
	}
	// Every call was answered by the substitute exactly once.
	if mock.invocations() != workers {
		t.Errorf("substitute invoked %d times, want %d", mock.invocations(), workers)
	}
}

func TestBothBackendsDown(t *testing.T) {
	real := &stubBackend{name: "real", reply: func(tool string) (*mcp.ToolsCallResponse, error) {
		return nil, Unreachable("query", fmt.Errorf("connection refused"))
	}}
	mock := &stubBackend{name: "mock", reply: func(tool string) (*mcp.ToolsCallResponse, error) {
		return nil, Unreachable("query", fmt.Errorf("fixture store corrupt"))
	}}
	s := NewSelector(real, mock, time.Second)
	if err := s.Startup(context.Background(), ModeAuto); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Invoke(context.Background(), ToolQuery, mcp.M{"query": "SELECT 1"}); err == nil {
		t.Fatal("Invoke() swallowed a total failure")
	}
}

func TestReset(t *testing.T) {
	real := &stubBackend{name: "real", probeErr: Unreachable("probe", fmt.Errorf("refused"))}
	mock := &stubBackend{name: "mock"}
	s := NewSelector(real, mock, time.Second)
	if err := s.Startup(context.Background(), ModeAuto); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateMock {
		t.Fatal("expected substitute after failed probe")
	}

	if err := s.Reset(context.Background()); err == nil {
		t.Fatal("Reset() succeeded while the real backend is down")
	}
	if s.State() != StateMock {
		t.Error("failed Reset() changed the selection")
	}

	real.probeErr = nil
	if err := s.Reset(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateReal {
		t.Error("Reset() did not restore the real backend")
	}
}

func TestArgAccessors(t *testing.T) {
	args := mcp.M{
		"name":   "users",
		"limit":  float64(25),
		"unique": true,
		"empty":  "",
	}
	if got := StringArg(args, "name", "def"); got != "users" {
		t.Errorf("StringArg(name) = %q", got)
	}
	if got := StringArg(args, "empty", "def"); got != "def" {
		t.Errorf("StringArg(empty) = %q, want default", got)
	}
	if got := StringArg(args, "absent", "def"); got != "def" {
		t.Errorf("StringArg(absent) = %q, want default", got)
	}
	if got := IntArg(args, "limit", 10); got != 25 {
		t.Errorf("IntArg(limit) = %d", got)
	}
	if got := IntArg(args, "absent", 10); got != 10 {
		t.Errorf("IntArg(absent) = %d, want default", got)
	}
	if !BoolArg(args, "unique") {
		t.Error("BoolArg(unique) = false")
	}
	if BoolArg(args, "absent") {
		t.Error("BoolArg(absent) = true")
	}
}
