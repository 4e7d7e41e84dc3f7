// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package governance

import (
	"context"
	"testing"
	"time"
)

func TestApprovalStoreResolve(t *testing.T) {
	store := NewApprovalStore(time.Minute)
	pending := store.Request(Action{Tool: "place_order", Role: "executor"}, Decision{
		Status: StatusPending,
		RuleID: "hold-orders",
	})

	if !store.Resolve(pending.ID, true) {
		t.Fatal("Resolve returned false for pending approval")
	}
	got, ok := store.Get(pending.ID)
	if !ok || !got.Resolved || !got.Approved {
		t.Errorf("approval after resolve = %+v", got)
	}

	// Second resolve is a no-op.
	if store.Resolve(pending.ID, false) {
		t.Error("Resolve succeeded twice")
	}
	if store.Resolve("missing", true) {
		t.Error("Resolve succeeded for unknown ID")
	}
}

func TestApprovalStoreExpire(t *testing.T) {
	store := NewApprovalStore(time.Minute)
	pending := store.Request(Action{Tool: "place_order"}, Decision{Status: StatusPending})

	// Force the deadline into the past.
	store.mu.Lock()
	store.pending[pending.ID].ExpiresAt = time.Now().Add(-time.Second)
	store.mu.Unlock()

	expired, err := store.Expire(context.Background())
	if err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, want 1", expired)
	}

	got, ok := store.Get(pending.ID)
	if !ok || !got.Resolved || got.Approved {
		t.Errorf("expired approval = %+v", got)
	}
	if len(store.List()) != 0 {
		t.Error("expired approval still listed as pending")
	}
}

func TestSweeperExpiresInBackground(t *testing.T) {
	store := NewApprovalStore(time.Minute)
	pending := store.Request(Action{Tool: "place_order"}, Decision{Status: StatusPending})
	store.mu.Lock()
	store.pending[pending.ID].ExpiresAt = time.Now().Add(-time.Second)
	store.mu.Unlock()

	sweeper := NewSweeper(store, 10*time.Millisecond, nil)
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got, _ := store.Get(pending.ID); got.Resolved {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("sweeper did not expire the stale approval")
}
