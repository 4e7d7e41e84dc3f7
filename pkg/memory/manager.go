// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VectorMemory implements the core.Memory interface on top of a vector store
// and an embedder. Stored strings are embedded and upserted; retrieval embeds
// the query and returns the text of the nearest matches.
type VectorMemory struct {
	store      VectorStore
	embedder   Embedder
	collection string

	searchLimit    int
	scoreThreshold float32
}

// VectorMemoryOption configures a VectorMemory.
type VectorMemoryOption func(*VectorMemory)

// WithSearchLimit sets the maximum number of results returned by Retrieve.
func WithSearchLimit(limit int) VectorMemoryOption {
	return func(vm *VectorMemory) {
		if limit > 0 {
			vm.searchLimit = limit
		}
	}
}

// WithScoreThreshold sets the minimum similarity score for Retrieve matches.
func WithScoreThreshold(threshold float32) VectorMemoryOption {
	return func(vm *VectorMemory) {
		vm.scoreThreshold = threshold
	}
}

// NewVectorMemory creates a vector-backed memory over the given collection.
func NewVectorMemory(store VectorStore, embedder Embedder, collection string, opts ...VectorMemoryOption) *VectorMemory {
	vm := &VectorMemory{
		store:          store,
		embedder:       embedder,
		collection:     collection,
		searchLimit:    5,
		scoreThreshold: 0.6,
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Initialize ensures the collection exists, probing the embedder for the
// vector dimension. If creation fails but the collection is already usable,
// the error is ignored.
func (vm *VectorMemory) Initialize(ctx context.Context) error {
	vec, err := vm.embedder.Embed(ctx, "dimension probe")
	if err != nil {
		return fmt.Errorf("failed to get embedding dimension: %w", err)
	}

	if err := vm.store.CreateCollection(ctx, vm.collection, uint64(len(vec))); err != nil {
		// Creation fails when the collection already exists; a search
		// probe distinguishes that from a real connectivity problem.
		if _, searchErr := vm.store.Search(ctx, vm.collection, vec, 1, 0); searchErr == nil {
			return nil
		}
		return err
	}
	return nil
}

// Store embeds the given text and upserts it into the collection.
func (vm *VectorMemory) Store(ctx context.Context, data any) error {
	text, ok := data.(string)
	if !ok {
		return fmt.Errorf("vector memory only supports string data, got %T", data)
	}

	vector, err := vm.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed text: %w", err)
	}

	now := time.Now().Unix()
	point := Point{
		ID:     uuid.New().String(),
		Vector: vector,
		Payload: map[string]any{
			"text":      text,
			"timestamp": now,
		},
		Timestamp: now,
	}

	if err := vm.store.Upsert(ctx, vm.collection, []Point{point}); err != nil {
		return fmt.Errorf("failed to store point: %w", err)
	}
	return nil
}

// Retrieve embeds the query and returns the text of the nearest matches
// as a []string.
func (vm *VectorMemory) Retrieve(ctx context.Context, query any) (any, error) {
	text, ok := query.(string)
	if !ok {
		return nil, fmt.Errorf("vector memory only supports string queries, got %T", query)
	}

	vector, err := vm.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := vm.store.Search(ctx, vm.collection, vector, vm.searchLimit, vm.scoreThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var matches []string
	for _, r := range results {
		if val, ok := r.Point.Payload["text"].(string); ok {
			matches = append(matches, val)
		}
	}
	return matches, nil
}
