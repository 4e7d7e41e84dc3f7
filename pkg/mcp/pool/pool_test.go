// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRegisterValidation(t *testing.T) {
	p := New()
	defer p.Close()

	cases := []struct {
		name    string
		server  Server
		wantErr bool
	}{
		{"stdio", Server{Name: "playwright", Transport: "stdio", Command: "npx", Args: []string{"@playwright/mcp@latest"}}, false},
		{"http", Server{Name: "market-data", Transport: "http", URL: "http://localhost:8080/mcp"}, false},
		{"missing name", Server{Transport: "http", URL: "http://localhost"}, true},
		{"stdio without command", Server{Name: "broken", Transport: "stdio"}, true},
		{"http without url", Server{Name: "broken", Transport: "http"}, true},
		{"bad transport", Server{Name: "broken", Transport: "grpc", URL: "http://localhost"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := p.Register(tc.server)
			if tc.wantErr && err == nil {
				t.Error("invalid server accepted")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Register failed: %v", err)
			}
		})
	}

	if got := len(p.Servers()); got != 2 {
		t.Errorf("registered servers = %d, want 2", got)
	}
}

func TestGetUnknownServer(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.Get(context.Background(), "nonexistent")
	if !errors.Is(err, ErrUnknownServer) {
		t.Errorf("err = %v, want ErrUnknownServer", err)
	}
}

func TestGetHonorsCancelledContext(t *testing.T) {
	p := New()
	defer p.Close()

	_ = p.Register(Server{Name: "market-data", Transport: "http", URL: "http://localhost:8080/mcp"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Get(ctx, "market-data"); err == nil {
		t.Error("cancelled context did not stop Get")
	}
}

func TestClosedPool(t *testing.T) {
	p := New()
	if err := p.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := p.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("double close err = %v", err)
	}

	if err := p.Register(Server{Name: "late", Transport: "http", URL: "http://localhost"}); !errors.Is(err, ErrClosed) {
		t.Errorf("register after close err = %v", err)
	}
	if _, err := p.Get(context.Background(), "late"); !errors.Is(err, ErrClosed) {
		t.Errorf("get after close err = %v", err)
	}
}

func TestReleaseUnknownServerIsNoop(t *testing.T) {
	p := New()
	defer p.Close()
	p.Release("never-registered")
}

func TestStats(t *testing.T) {
	p := New()
	defer p.Close()

	_ = p.Register(Server{Name: "market-data", Transport: "http", URL: "http://localhost:8080/mcp"})
	_ = p.Register(Server{Name: "playwright", Transport: "stdio", Command: "npx"})

	stats := p.Stats()
	if stats.Servers != 2 {
		t.Errorf("Servers = %d", stats.Servers)
	}
	if stats.LiveConns != 0 || stats.Dials != 0 {
		t.Errorf("unexpected connection activity: %+v", stats)
	}
}

func TestConcurrentRegister(t *testing.T) {
	p := New()
	defer p.Close()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			name := "server-" + string(rune('a'+idx%26))
			_ = p.Register(Server{Name: name, Transport: "http", URL: "http://localhost:8080/mcp"})
		}(i)
	}
	wg.Wait()

	if got := len(p.Servers()); got != 26 {
		t.Errorf("registered servers = %d, want 26", got)
	}
}

func TestIdleDetection(t *testing.T) {
	entry := &conn{}
	entry.touch()

	if entry.idleSince(time.Now().Add(-time.Minute)) {
		t.Error("freshly used connection reported idle")
	}
	if !entry.idleSince(time.Now().Add(time.Minute)) {
		t.Error("stale connection not reported idle")
	}

	entry.refs.Add(1)
	if entry.idleSince(time.Now().Add(time.Minute)) {
		t.Error("referenced connection reported idle")
	}
}
