// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls the config file's mtime and reloads it on change. A reload
// that fails to parse or validate keeps the last good config; listeners
// only ever see configs that passed Validate.
//
// Most settings only take effect at startup. Listeners apply the ones that
// can change live, like the log level.
type Watcher struct {
	path     string
	interval time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	lastMod   time.Time
	current   *Config
	listeners []func(*Config)

	stop chan struct{}
	done chan struct{}
}

type WatcherOption func(*Watcher)

// WithWatchInterval sets the polling interval.
func WithWatchInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithWatchLogger sets the logger for reload outcomes.
func WithWatchLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher loads the config at path and prepares to watch it.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: time.Second,
		logger:   slog.Default(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	w.current = cfg
	if info, err := os.Stat(path); err == nil {
		w.lastMod = info.ModTime()
	}
	return w, nil
}

// OnChange registers a listener invoked with each successfully reloaded
// config. Register before Start.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Config returns the last good config.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins polling until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C:
				w.poll()
			}
		}
	}()
}

// Stop halts polling and waits for the poll loop to exit.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
	<-w.done
}

func (w *Watcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		// Deleted or mid-rewrite; try again next tick.
		return
	}

	w.mu.RLock()
	unchanged := !info.ModTime().After(w.lastMod)
	w.mu.RUnlock()
	if unchanged {
		return
	}

	cfg, err := Load(w.path)

	w.mu.Lock()
	w.lastMod = info.ModTime()
	if err != nil {
		w.mu.Unlock()
		w.logger.Error("config reload failed, keeping last good config", "path", w.path, "error", err)
		return
	}
	w.current = cfg
	listeners := make([]func(*Config), len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.path)
	for _, fn := range listeners {
		fn(cfg)
	}
}
