// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// Backdated mtimes are not reliable across filesystems; bump to a future
// mtime so the poller always sees the rewrite.
func touchFuture(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestWatcherInitialLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "llm:\n  model: model-a\n")

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	if w.Config().LLM.Model != "model-a" {
		t.Errorf("initial model = %s", w.Config().LLM.Model)
	}
}

func TestWatcherRejectsBadInitialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "deployment: nonsense\n")

	if _, err := NewWatcher(path); err == nil {
		t.Error("invalid initial config accepted")
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "log:\n  level: info\n")

	w, err := NewWatcher(path, WithWatchInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	changed := make(chan *Config, 1)
	w.OnChange(func(cfg *Config) {
		select {
		case changed <- cfg:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	writeConfig(t, path, "log:\n  level: debug\n")
	touchFuture(t, path)

	select {
	case cfg := <-changed:
		if cfg.Log.Level != "debug" {
			t.Errorf("reloaded level = %s", cfg.Log.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	if w.Config().Log.Level != "debug" {
		t.Errorf("Config() after reload = %s", w.Config().Log.Level)
	}
}

func TestWatcherKeepsLastGoodConfigOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "llm:\n  model: model-a\n")

	w, err := NewWatcher(path, WithWatchInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	notified := make(chan struct{}, 1)
	w.OnChange(func(*Config) {
		select {
		case notified <- struct{}{}:
		default:
		}
	})

	writeConfig(t, path, "deployment: nonsense\n")
	touchFuture(t, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	time.Sleep(100 * time.Millisecond)
	w.Stop()

	if w.Config().LLM.Model != "model-a" {
		t.Errorf("bad reload replaced config: %+v", w.Config())
	}
	select {
	case <-notified:
		t.Error("listener notified for a failed reload")
	default:
	}
}
