package retrieval

import (
	"context"
	"fmt"

	"github.com/studioverse/tutormind/internal/chunk"
	"github.com/studioverse/tutormind/internal/logger"
	"github.com/studioverse/tutormind/internal/vecstore"
)

// IndexReport summarizes one indexing pass over a source document.
type IndexReport struct {
	Chunks  int // chunks produced by the splitter
	Stored  int // chunks persisted with an embedding
	Skipped int // chunks skipped because embedding failed
}

// Indexer runs the indexing pass: split lesson text into chunks, embed each
// one and persist (chunk, vector) pairs under the lesson's scope.
type Indexer struct {
	splitter *chunk.Splitter
	embedder Embedder
	store    ChunkStore
}

// NewIndexer creates an indexer with default chunk sizing.
func NewIndexer(embedder Embedder, store ChunkStore) *Indexer {
	return &Indexer{
		splitter: chunk.NewSplitter(chunk.DefaultTargetSize, chunk.DefaultMinSize),
		embedder: embedder,
		store:    store,
	}
}

// IndexLesson chunks and persists one source document. Individual chunks
// whose embedding fails are skipped and counted; a persistence error aborts
// the pass since it indicates the store itself is unhealthy.
func (in *Indexer) IndexLesson(ctx context.Context, scope vecstore.Scope, sourceID, text string) (IndexReport, error) {
	var report IndexReport
	if scope.IsZero() {
		return report, fmt.Errorf("indexing requires a course scope")
	}

	chunks := in.splitter.Split(sourceID, text)
	report.Chunks = len(chunks)
	if len(chunks) == 0 {
		return report, nil
	}

	for _, c := range chunks {
		vector, err := in.embedder.Embed(ctx, c.Text)
		if err != nil {
			logger.Warn("Skipping chunk %s/%d, embedding failed: %v", sourceID, c.Index, err)
			report.Skipped++
			continue
		}
		if _, err := in.store.Persist(ctx, c, scope, vector); err != nil {
			return report, fmt.Errorf("persisting chunk %s/%d: %w", sourceID, c.Index, err)
		}
		report.Stored++
	}

	logger.Info("Indexed source %s: %d chunks, %d stored, %d skipped", sourceID, report.Chunks, report.Stored, report.Skipped)
	return report, nil
}
