package vecstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/studioverse/tutormind/internal/chunk"
)

type memItem struct {
	id       string
	courseID string
	lessonID string
	vector   []float32
	text     string
	sourceID string
}

// MemoryStore is a process-local chunk store using brute-force L2 distance.
// It backs single-node deployments and tests; the scope contract is the
// same as the Milvus store's.
type MemoryStore struct {
	mu    sync.RWMutex
	dim   int
	items []memItem
}

// NewMemoryStore creates an empty in-memory store for the given dimension.
func NewMemoryStore(dim int) *MemoryStore {
	return &MemoryStore{dim: dim}
}

// Persist stores one chunk and its embedding under the given scope.
func (s *MemoryStore) Persist(ctx context.Context, c chunk.Chunk, scope Scope, vector []float32) (string, error) {
	if scope.IsZero() {
		return "", fmt.Errorf("refusing to persist chunk without a course scope")
	}
	if len(vector) != s.dim {
		return "", fmt.Errorf("vector dimension %d, want %d", len(vector), s.dim)
	}

	vec := make([]float32, len(vector))
	copy(vec, vector)

	item := memItem{
		id:       uuid.NewString(),
		courseID: scope.CourseID,
		lessonID: scope.LessonID,
		vector:   vec,
		text:     c.Text,
		sourceID: c.SourceID,
	}

	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
	return item.id, nil
}

// Query returns the texts of the k nearest chunks inside scope, smallest
// distance first.
func (s *MemoryStore) Query(ctx context.Context, scope Scope, vector []float32, k int) ([]string, error) {
	if scope.IsZero() {
		return nil, fmt.Errorf("refusing to query without a course scope")
	}
	if k <= 0 {
		k = 5
	}

	type scored struct {
		dist float32
		text string
	}

	s.mu.RLock()
	candidates := make([]scored, 0, len(s.items))
	for _, it := range s.items {
		if !scope.Matches(it.courseID, it.lessonID) {
			continue
		}
		candidates = append(candidates, scored{dist: l2Distance(it.vector, vector), text: it.text})
	}
	s.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })
	if k > len(candidates) {
		k = len(candidates)
	}
	texts := make([]string, 0, k)
	for i := 0; i < k; i++ {
		texts = append(texts, candidates[i].text)
	}
	return texts, nil
}

// DeleteSource removes all chunks persisted for one source document.
func (s *MemoryStore) DeleteSource(ctx context.Context, scope Scope, sourceID string) error {
	if scope.IsZero() {
		return fmt.Errorf("refusing to delete without a course scope")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, it := range s.items {
		if scope.Matches(it.courseID, it.lessonID) && it.sourceID == sourceID {
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	return nil
}

// Len returns the number of stored chunks.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Dimension returns the embedding dimension of the store.
func (s *MemoryStore) Dimension() int {
	return s.dim
}

func l2Distance(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
