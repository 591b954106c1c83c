// Package retrieval ranks stored lesson chunks against a query by embedding
// similarity. Retrieval failures degrade to an empty result so a chat turn
// can always fall back to ungrounded generation.
package retrieval

import (
	"context"
	"strings"

	"github.com/studioverse/tutormind/internal/chunk"
	"github.com/studioverse/tutormind/internal/logger"
	"github.com/studioverse/tutormind/internal/vecstore"
)

// Embedder converts text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkStore persists chunk vectors and answers scope-filtered similarity
// queries, most similar first.
type ChunkStore interface {
	Persist(ctx context.Context, c chunk.Chunk, scope vecstore.Scope, vector []float32) (string, error)
	Query(ctx context.Context, scope vecstore.Scope, vector []float32, k int) ([]string, error)
}

// DefaultTopK is the number of chunks retrieved per query when the caller
// does not specify one.
const DefaultTopK = 5

// Index answers top-K queries over the persisted chunk vectors.
type Index struct {
	embedder Embedder
	store    ChunkStore
}

// NewIndex creates a retrieval index over the given embedder and store.
func NewIndex(embedder Embedder, store ChunkStore) *Index {
	return &Index{embedder: embedder, store: store}
}

// TopK returns up to k chunk texts inside scope ranked most-similar first.
// Embedding or store failures are logged and yield an empty result; they
// never abort the caller's chat turn.
func (ix *Index) TopK(ctx context.Context, scope vecstore.Scope, queryText string, k int) []string {
	if strings.TrimSpace(queryText) == "" {
		return nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	vector, err := ix.embedder.Embed(ctx, queryText)
	if err != nil {
		logger.Warn("Query embedding failed, skipping retrieval: %v", err)
		return nil
	}

	texts, err := ix.store.Query(ctx, scope, vector, k)
	if err != nil {
		logger.Warn("Chunk store query failed, skipping retrieval: %v", err)
		return nil
	}
	return texts
}
