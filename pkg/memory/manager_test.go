// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"strings"
	"testing"
)

// stubVectorStore records upserts and returns canned search results.
type stubVectorStore struct {
	collections map[string]uint64
	points      []Point
	results     []SearchResult
}

func newStubVectorStore() *stubVectorStore {
	return &stubVectorStore{collections: make(map[string]uint64)}
}

func (s *stubVectorStore) Upsert(_ context.Context, _ string, points []Point) error {
	s.points = append(s.points, points...)
	return nil
}

func (s *stubVectorStore) Search(_ context.Context, _ string, _ []float32, _ int, _ float32) ([]SearchResult, error) {
	return s.results, nil
}

func (s *stubVectorStore) CreateCollection(_ context.Context, name string, vectorSize uint64) error {
	s.collections[name] = vectorSize
	return nil
}

// wordCountEmbedder produces a fixed-size vector derived from the text,
// enough to exercise dimension probing and payload flow.
type wordCountEmbedder struct{}

func (wordCountEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(strings.Fields(text))), float32(len(text)), 1}, nil
}

func TestVectorMemory_Initialize(t *testing.T) {
	store := newStubVectorStore()
	vm := NewVectorMemory(store, wordCountEmbedder{}, "workflow-knowledge")

	if err := vm.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if store.collections["workflow-knowledge"] != 3 {
		t.Fatalf("expected collection with dimension 3, got %v", store.collections)
	}
}

func TestVectorMemory_StoreAndRetrieve(t *testing.T) {
	store := newStubVectorStore()
	vm := NewVectorMemory(store, wordCountEmbedder{}, "workflow-knowledge")

	if err := vm.Store(context.Background(), "AAPL closed up 2 percent"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	if len(store.points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(store.points))
	}
	if store.points[0].Payload["text"] != "AAPL closed up 2 percent" {
		t.Errorf("unexpected payload: %+v", store.points[0].Payload)
	}
	if store.points[0].ID == "" {
		t.Error("expected generated point ID")
	}

	store.results = []SearchResult{
		{ID: "p1", Score: 0.9, Point: Point{ID: "p1", Payload: map[string]any{"text": "AAPL closed up 2 percent"}}},
		{ID: "p2", Score: 0.7, Point: Point{ID: "p2", Payload: map[string]any{"text": "MSFT flat"}}},
	}

	got, err := vm.Retrieve(context.Background(), "how did AAPL do")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	matches, ok := got.([]string)
	if !ok || len(matches) != 2 {
		t.Fatalf("expected 2 string matches, got %v", got)
	}
	if matches[0] != "AAPL closed up 2 percent" {
		t.Errorf("unexpected first match: %q", matches[0])
	}
}

func TestVectorMemory_RejectsNonStringData(t *testing.T) {
	vm := NewVectorMemory(newStubVectorStore(), wordCountEmbedder{}, "workflow-knowledge")

	if err := vm.Store(context.Background(), 42); err == nil {
		t.Fatal("expected error for non-string data")
	}
	if _, err := vm.Retrieve(context.Background(), 42); err == nil {
		t.Fatal("expected error for non-string query")
	}
}
