// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

// Package pool manages one shared connection per configured MCP tool
// server. A worker registers its servers once; the pool dials lazily on
// first use, hands the same client to every tool adapter, probes health in
// the background, and drops broken or idle connections so the next Get
// redials instead of the worker restarting.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tradewind-ai/tradewind/pkg/mcp"
)

var (
	ErrClosed        = errors.New("mcp pool closed")
	ErrUnknownServer = errors.New("mcp server not registered")
)

// Server describes one MCP tool server. Transport matches the config
// values: "stdio" runs Command as a subprocess, "http" connects to URL.
type Server struct {
	Name      string
	Transport string
	Command   string
	Args      []string
	Env       map[string]string
	URL       string
	Options   []mcp.ClientOption
}

func (s Server) validate() error {
	if s.Name == "" {
		return fmt.Errorf("mcp server needs a name")
	}
	switch s.Transport {
	case "stdio":
		if s.Command == "" {
			return fmt.Errorf("mcp server %s: stdio transport needs a command", s.Name)
		}
	case "http":
		if s.URL == "" {
			return fmt.Errorf("mcp server %s: http transport needs a url", s.Name)
		}
	default:
		return fmt.Errorf("mcp server %s: unknown transport %q", s.Name, s.Transport)
	}
	return nil
}

func (s Server) dial() (*mcp.Client, error) {
	if s.Transport == "stdio" {
		return mcp.NewClientWithStdio(s.Command, s.Args, s.Env, s.Options...)
	}
	return mcp.NewClientWithStreamableHTTP(s.URL, s.Options...)
}

// conn is a live connection plus the bookkeeping the health loop reads.
// refs counts tool adapters holding the client; lastUsed feeds idle drops.
type conn struct {
	client   *mcp.Client
	refs     atomic.Int32
	lastUsed atomic.Int64
}

func (c *conn) touch() { c.lastUsed.Store(time.Now().UnixNano()) }

func (c *conn) idleSince(cutoff time.Time) bool {
	return c.refs.Load() == 0 && time.Unix(0, c.lastUsed.Load()).Before(cutoff)
}

// Pool hands out shared MCP clients by server name.
type Pool struct {
	mu      sync.Mutex
	servers map[string]Server
	conns   map[string]*conn
	closed  bool

	healthInterval time.Duration
	healthTimeout  time.Duration
	idleAfter      time.Duration
	logger         *slog.Logger

	dials        atomic.Int64
	dialFailures atomic.Int64
	healthFails  atomic.Int64

	stop chan struct{}
	done chan struct{}
}

type Option func(*Pool)

// WithHealthInterval sets how often live connections are health-checked.
func WithHealthInterval(interval time.Duration) Option {
	return func(p *Pool) {
		if interval > 0 {
			p.healthInterval = interval
		}
	}
}

// WithIdleAfter sets how long an unreferenced connection survives.
func WithIdleAfter(idle time.Duration) Option {
	return func(p *Pool) {
		if idle > 0 {
			p.idleAfter = idle
		}
	}
}

// WithPoolLogger attaches a structured logger for probe failures.
func WithPoolLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func New(opts ...Option) *Pool {
	p := &Pool{
		servers:        make(map[string]Server),
		conns:          make(map[string]*conn),
		healthInterval: 30 * time.Second,
		healthTimeout:  5 * time.Second,
		idleAfter:      5 * time.Minute,
		logger:         slog.Default(),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	go p.healthLoop()
	return p
}

// Register adds or replaces a server definition. An existing connection to
// a replaced server keeps serving until the health loop retires it.
func (p *Pool) Register(server Server) error {
	if err := server.validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.servers[server.Name] = server
	return nil
}

// Servers returns the registered server names.
func (p *Pool) Servers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.servers))
	for name := range p.servers {
		names = append(names, name)
	}
	return names
}

// Get returns the shared client for a server, dialing if none is live.
// Callers that hold the client past the call pair it with Release.
func (p *Pool) Get(ctx context.Context, name string) (*mcp.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	server, ok := p.servers[name]
	if !ok {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownServer, name)
	}
	if existing, ok := p.conns[name]; ok {
		existing.refs.Add(1)
		existing.touch()
		p.mu.Unlock()
		return existing.client, nil
	}
	p.mu.Unlock()

	p.dials.Add(1)
	client, err := server.dial()
	if err != nil {
		p.dialFailures.Add(1)
		return nil, fmt.Errorf("dial mcp server %s: %w", name, err)
	}

	fresh := &conn{client: client}
	fresh.refs.Store(1)
	fresh.touch()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		client.Close()
		return nil, ErrClosed
	}
	// Lost a dial race: keep the first connection, discard ours.
	if existing, ok := p.conns[name]; ok {
		client.Close()
		existing.refs.Add(1)
		existing.touch()
		return existing.client, nil
	}
	p.conns[name] = fresh
	return client, nil
}

// Release drops one reference on a server's connection.
func (p *Pool) Release(name string) {
	p.mu.Lock()
	entry := p.conns[name]
	p.mu.Unlock()
	if entry != nil {
		entry.refs.Add(-1)
		entry.touch()
	}
}

// Stats is a point-in-time view of pool activity.
type Stats struct {
	Servers        int
	LiveConns      int
	Dials          int
	DialFailures   int
	HealthFailures int
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	servers, live := len(p.servers), len(p.conns)
	p.mu.Unlock()
	return Stats{
		Servers:        servers,
		LiveConns:      live,
		Dials:          int(p.dials.Load()),
		DialFailures:   int(p.dialFailures.Load()),
		HealthFailures: int(p.healthFails.Load()),
	}
}

// Close stops the health loop and closes every connection. Further calls
// return ErrClosed.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.closed = true
	conns := p.conns
	p.conns = nil
	p.servers = nil
	p.mu.Unlock()

	close(p.stop)
	<-p.done

	var errs []error
	for name, entry := range conns {
		if err := entry.client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Pool) healthLoop() {
	defer close(p.done)
	ticker := time.NewTicker(p.healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.checkHealth()
		}
	}
}

// checkHealth probes every live connection and retires the ones that are
// broken and unreferenced or idle past the cutoff. Connections still held
// by tool adapters are never closed here, only reported.
func (p *Pool) checkHealth() {
	p.mu.Lock()
	snapshot := make(map[string]*conn, len(p.conns))
	for name, entry := range p.conns {
		snapshot[name] = entry
	}
	p.mu.Unlock()

	idleCutoff := time.Now().Add(-p.idleAfter)
	for name, entry := range snapshot {
		ctx, cancel := context.WithTimeout(context.Background(), p.healthTimeout)
		_, err := entry.client.ListTools(ctx)
		cancel()

		switch {
		case err != nil:
			p.healthFails.Add(1)
			p.logger.Warn("mcp health check failed", "server", name, "error", err)
			if entry.refs.Load() == 0 {
				p.retire(name, entry)
			}
		case entry.idleSince(idleCutoff):
			p.retire(name, entry)
		}
	}
}

func (p *Pool) retire(name string, entry *conn) {
	p.mu.Lock()
	if p.conns[name] == entry {
		delete(p.conns, name)
	}
	p.mu.Unlock()
	entry.client.Close()
}
