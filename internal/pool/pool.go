// Package pool maintains a bounded set of driver connections and hands them
// out one at a time. Connections are identified by UUID, validated with an
// optional probe query before reuse, and swept on a cron schedule when they
// sit idle too long.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/SimonWaldherr/tinyODBC/internal/cli"
	"github.com/SimonWaldherr/tinyODBC/internal/engine"
)

var (
	// ErrClosed is returned by Get after the pool has been closed.
	ErrClosed = errors.New("tinyodbc: pool is closed")

	// ErrBusy is returned when no connection became available within the
	// configured busy timeout.
	ErrBusy = errors.New("tinyodbc: pool busy")
)

// Hooks are optional observation points. Nil hooks are skipped.
type Hooks struct {
	OnCreate   func(id string)
	OnDestroy  func(id string)
	OnValidate func(id string, err error)
}

// Conn is one pooled driver connection. It is owned by a single caller
// between Get and Put.
type Conn struct {
	ID string

	pool     *Pool
	handle   cli.Handle
	lastUsed time.Time
}

// Execute runs a statement on this connection and accumulates all rows.
func (c *Conn) Execute(ctx context.Context, st engine.Statement) (*engine.Result, error) {
	return engine.Execute(ctx, c.pool.client, c.handle, st)
}

// Stream runs a statement on this connection and yields rows in chunks.
// The connection must not be returned to the pool until the chunk sequence
// is closed.
func (c *Conn) Stream(ctx context.Context, st engine.Statement, chunkSize int) (*engine.Chunks, error) {
	return engine.Stream(ctx, c.pool.client, c.handle, st, chunkSize)
}

// Pool hands out driver connections up to a configured cap.
type Pool struct {
	cfg    Config
	client cli.Client
	hooks  Hooks

	mu     sync.Mutex
	idle   []*Conn
	open   int
	closed bool

	sweeper *cron.Cron
}

// New builds a pool over the given driver. The first connection is opened
// lazily by Get. If cfg.IdleSweep is set, the sweep schedule starts
// immediately.
func New(client cli.Client, cfg Config, hooks Hooks) (*Pool, error) {
	cfg.fillDefaults()
	p := &Pool{cfg: cfg, client: client, hooks: hooks}
	if cfg.IdleSweep != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.IdleSweep, p.Sweep); err != nil {
			return nil, fmt.Errorf("tinyodbc: idle sweep schedule %q: %w", cfg.IdleSweep, err)
		}
		c.Start()
		p.sweeper = c
	}
	return p, nil
}

// Get returns a connection, reusing an idle one when possible and opening a
// new one while under the cap. At capacity it polls until the busy timeout
// elapses.
func (p *Pool) Get(ctx context.Context) (*Conn, error) {
	deadline := time.Now().Add(time.Duration(p.cfg.BusyTimeout))
	for {
		c, err := p.tryGet(ctx)
		if err != nil || c != nil {
			return c, err
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("tinyodbc: no connection within %s: %w",
				time.Duration(p.cfg.BusyTimeout), ErrBusy)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// tryGet makes one attempt. A nil, nil return means the pool is at capacity.
func (p *Pool) tryGet(ctx context.Context) (*Conn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	if n := len(p.idle); n > 0 {
		c := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		if err := p.validate(ctx, c); err != nil {
			p.destroy(c)
			// The slot freed by the discarded connection is retried.
			return p.tryGet(ctx)
		}
		return c, nil
	}
	if p.open >= p.cfg.MaxOpen {
		p.mu.Unlock()
		return nil, nil
	}
	p.open++
	p.mu.Unlock()

	c, err := p.dial(ctx)
	if err != nil {
		p.mu.Lock()
		p.open--
		p.mu.Unlock()
		return nil, err
	}
	return c, nil
}

func (p *Pool) dial(ctx context.Context) (*Conn, error) {
	h, status := p.client.Connect(ctx, p.cfg.DSN)
	if !status.OK() {
		return nil, fmt.Errorf("tinyodbc: connect: %s: %w",
			cli.DiagText(p.client, cli.HandleDbc, h), engine.ErrConnection)
	}
	c := &Conn{ID: uuid.NewString(), pool: p, handle: h, lastUsed: time.Now()}
	if p.hooks.OnCreate != nil {
		p.hooks.OnCreate(c.ID)
	}
	return c, nil
}

func (p *Pool) validate(ctx context.Context, c *Conn) error {
	if p.cfg.ValidateQuery == "" {
		return nil
	}
	_, err := c.Execute(ctx, engine.Statement{SQL: p.cfg.ValidateQuery})
	if p.hooks.OnValidate != nil {
		p.hooks.OnValidate(c.ID, err)
	}
	return err
}

// destroy closes the native connection and frees its slot.
func (p *Pool) destroy(c *Conn) {
	p.client.Disconnect(context.Background(), c.handle)
	p.mu.Lock()
	p.open--
	p.mu.Unlock()
	if p.hooks.OnDestroy != nil {
		p.hooks.OnDestroy(c.ID)
	}
}

// Put returns a connection to the idle set. After Close it is destroyed
// instead.
func (p *Pool) Put(c *Conn) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.destroy(c)
		return
	}
	c.lastUsed = time.Now()
	p.idle = append(p.idle, c)
	p.mu.Unlock()
}

// Sweep discards idle connections that exceeded the configured idle time.
// It runs on the cron schedule and may be called directly.
func (p *Pool) Sweep() {
	cutoff := time.Now().Add(-time.Duration(p.cfg.MaxIdleTime))

	p.mu.Lock()
	var keep, stale []*Conn
	for _, c := range p.idle {
		if c.lastUsed.Before(cutoff) {
			stale = append(stale, c)
		} else {
			keep = append(keep, c)
		}
	}
	p.idle = keep
	p.mu.Unlock()

	for _, c := range stale {
		p.destroy(c)
	}
	if len(stale) > 0 {
		log.Printf("pool: swept %d idle connection(s)", len(stale))
	}
}

// Close stops the sweeper and closes every idle connection. Connections
// currently handed out are destroyed when returned.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	if p.sweeper != nil {
		p.sweeper.Stop()
	}
	for _, c := range idle {
		p.destroy(c)
	}
	return nil
}

// Stats reports current pool occupancy.
func (p *Pool) Stats() (open, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open, len(p.idle)
}
