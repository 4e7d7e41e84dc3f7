// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package governance

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PendingApproval is a tool call held for an operator decision.
type PendingApproval struct {
	ID        string
	Action    Action
	Reason    string
	RuleID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	Resolved  bool
	Approved  bool
}

// ApprovalStore holds pending approvals in memory. Requests that are not
// resolved within the TTL expire as denied.
type ApprovalStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	pending map[string]*PendingApproval
}

const defaultApprovalTTL = 15 * time.Minute

func NewApprovalStore(ttl time.Duration) *ApprovalStore {
	if ttl <= 0 {
		ttl = defaultApprovalTTL
	}
	return &ApprovalStore{
		ttl:     ttl,
		pending: make(map[string]*PendingApproval),
	}
}

// Request records a pending decision and returns it.
func (s *ApprovalStore) Request(action Action, decision Decision) *PendingApproval {
	now := time.Now()
	pending := &PendingApproval{
		ID:        uuid.NewString(),
		Action:    action,
		Reason:    decision.Reason,
		RuleID:    decision.RuleID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.pending[pending.ID] = pending
	s.mu.Unlock()
	return pending
}

// Resolve marks a pending approval approved or denied. Returns false when the
// ID is unknown or already resolved.
func (s *ApprovalStore) Resolve(id string, approved bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.pending[id]
	if !ok || pending.Resolved {
		return false
	}
	pending.Resolved = true
	pending.Approved = approved
	return true
}

// Get returns a copy of the pending approval.
func (s *ApprovalStore) Get(id string) (PendingApproval, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.pending[id]
	if !ok {
		return PendingApproval{}, false
	}
	return *pending, true
}

// List returns unresolved approvals, oldest first.
func (s *ApprovalStore) List() []PendingApproval {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PendingApproval, 0, len(s.pending))
	for _, pending := range s.pending {
		if !pending.Resolved {
			out = append(out, *pending)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Expire denies every unresolved approval past its deadline and drops
// resolved entries older than the TTL. Returns how many expired.
func (s *ApprovalStore) Expire(_ context.Context) (int, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for id, pending := range s.pending {
		if pending.Resolved {
			if now.Sub(pending.CreatedAt) > s.ttl {
				delete(s.pending, id)
			}
			continue
		}
		if now.After(pending.ExpiresAt) {
			pending.Resolved = true
			pending.Approved = false
			expired++
		}
	}
	return expired, nil
}

// Sweeper expires stale approvals on an interval.
type Sweeper struct {
	store    *ApprovalStore
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSweeper(store *ApprovalStore, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: store, interval: interval, logger: logger}
}

func (s *Sweeper) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				expired, err := s.store.Expire(ctx)
				if err != nil {
					s.logger.Warn("approval sweep failed", "error", err)
					continue
				}
				if expired > 0 {
					s.logger.Info("expired stale approvals", "count", expired)
				}
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
}
