package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SimonWaldherr/tinyODBC/internal/climock"
	"github.com/SimonWaldherr/tinyODBC/internal/engine"
)

func newPool(t *testing.T, m *climock.Mock, cfg Config, hooks Hooks) *Pool {
	t.Helper()
	p, err := New(m, cfg, hooks)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestGetPutReuse(t *testing.T) {
	m := climock.New()
	var created []string
	p := newPool(t, m, Config{DSN: "mock://"}, Hooks{
		OnCreate: func(id string) { created = append(created, id) },
	})

	c1, err := p.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if c1.ID == "" {
		t.Fatal("connection has no ID")
	}
	p.Put(c1)

	c2, err := p.Get(context.Background())
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if c2.ID != c1.ID {
		t.Errorf("idle connection not reused: %s then %s", c1.ID, c2.ID)
	}
	if m.ConnectCount != 1 {
		t.Errorf("dialed %d times, want 1", m.ConnectCount)
	}
	if len(created) != 1 {
		t.Errorf("OnCreate fired %d times, want 1", len(created))
	}
}

func TestBusyTimeout(t *testing.T) {
	m := climock.New()
	p := newPool(t, m, Config{DSN: "mock://", MaxOpen: 1, BusyTimeout: Duration(30 * time.Millisecond)}, Hooks{})

	c, err := p.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := p.Get(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("exhausted pool error = %v, want ErrBusy", err)
	}
	p.Put(c)
	if _, err := p.Get(context.Background()); err != nil {
		t.Fatalf("Get after Put failed: %v", err)
	}
}

func TestValidateDiscardsBrokenConnection(t *testing.T) {
	m := climock.New()
	var destroyed int
	var probeErrs []error
	p := newPool(t, m, Config{DSN: "mock://", ValidateQuery: "SELECT 1"}, Hooks{
		OnDestroy:  func(id string) { destroyed++ },
		OnValidate: func(id string, err error) { probeErrs = append(probeErrs, err) },
	})

	c, err := p.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	p.Put(c)

	// The probe fails; the pool must discard the connection and dial a
	// fresh one.
	m.FailExec = true
	c2, err := p.Get(context.Background())
	m.FailExec = false
	if err != nil {
		t.Fatalf("Get after failed probe: %v", err)
	}
	if c2.ID == c.ID {
		t.Error("broken connection was handed out again")
	}
	if destroyed != 1 {
		t.Errorf("OnDestroy fired %d times, want 1", destroyed)
	}
	if len(probeErrs) != 1 || probeErrs[0] == nil {
		t.Errorf("OnValidate errors = %v, want one failure", probeErrs)
	}
	if m.DisconnectCount != 1 {
		t.Errorf("disconnected %d times, want 1", m.DisconnectCount)
	}
}

func TestSweepDiscardsStaleIdle(t *testing.T) {
	m := climock.New()
	var destroyed int
	p := newPool(t, m, Config{DSN: "mock://", MaxIdleTime: Duration(time.Nanosecond)}, Hooks{
		OnDestroy: func(id string) { destroyed++ },
	})

	c, err := p.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	p.Put(c)
	time.Sleep(time.Millisecond)

	p.Sweep()
	if open, idle := p.Stats(); open != 0 || idle != 0 {
		t.Errorf("after sweep: open=%d idle=%d, want 0/0", open, idle)
	}
	if destroyed != 1 {
		t.Errorf("OnDestroy fired %d times, want 1", destroyed)
	}
}

func TestCloseDisconnectsIdle(t *testing.T) {
	m := climock.New()
	p, err := New(m, Config{DSN: "mock://"}, Hooks{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c, err := p.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	p.Put(c)

	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if m.DisconnectCount != 1 {
		t.Errorf("disconnected %d times, want 1", m.DisconnectCount)
	}
	if _, err := p.Get(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Get after Close = %v, want ErrClosed", err)
	}
}

func TestConnExecute(t *testing.T) {
	m := climock.New()
	m.Affected = 4
	p := newPool(t, m, Config{DSN: "mock://"}, Hooks{})

	c, err := p.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer p.Put(c)

	res, err := c.Execute(context.Background(), engine.Statement{SQL: "DELETE FROM t"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !res.HasAffected || res.Affected != 4 {
		t.Errorf("affected = %d (known=%v), want 4", res.Affected, res.HasAffected)
	}
}

func TestInvalidSweepSchedule(t *testing.T) {
	m := climock.New()
	if _, err := New(m, Config{DSN: "mock://", IdleSweep: "not a cron spec"}, Hooks{}); err == nil {
		t.Fatal("invalid cron expression accepted")
	}
}
