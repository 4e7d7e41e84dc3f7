// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import "context"

// VectorStore is the interface to a vector database.
type VectorStore interface {
	// Upsert adds or updates points in a collection.
	Upsert(ctx context.Context, collection string, points []Point) error
	// Search returns the nearest points to the given vector.
	Search(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float32) ([]SearchResult, error)
	// CreateCollection creates a collection with the given vector dimension.
	CreateCollection(ctx context.Context, name string, vectorSize uint64) error
}

// Point is a single entry in a vector collection.
type Point struct {
	ID        string         `json:"id"`
	Vector    []float32      `json:"vector"`
	Payload   map[string]any `json:"payload"`
	Timestamp int64          `json:"timestamp"`
}

// SearchResult is a scored match from a vector search.
type SearchResult struct {
	ID    string  `json:"id"`
	Score float32 `json:"score"`
	Point Point   `json:"point"`
}

// Embedder converts text into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
