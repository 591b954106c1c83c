// Package convstore keeps conversation threads and their turns. The
// in-memory implementation backs single-node deployments and tests.
package convstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studioverse/tutormind/internal/prompt"
)

type storedTurn struct {
	role      string
	content   string
	createdAt time.Time
}

type conversation struct {
	id    string
	turns []storedTurn
}

// MemoryStore is a process-local conversation store. One thread exists per
// (principal, scope) pair; the scope id is empty for general chat.
type MemoryStore struct {
	mu    sync.Mutex
	byKey map[string]string
	convs map[string]*conversation
}

// NewMemoryStore creates an empty conversation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey: make(map[string]string),
		convs: make(map[string]*conversation),
	}
}

// FindOrCreate locates the thread for (principal, scope), creating it on
// first use, and returns its id.
func (s *MemoryStore) FindOrCreate(ctx context.Context, principalID, scopeID string) (string, error) {
	if principalID == "" {
		return "", fmt.Errorf("principal id is required")
	}
	key := principalID + "\x00" + scopeID

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byKey[key]; ok {
		return id, nil
	}
	id := uuid.NewString()
	s.byKey[key] = id
	s.convs[id] = &conversation{id: id}
	return id, nil
}

// AppendTurn records one turn at the end of the thread.
func (s *MemoryStore) AppendTurn(ctx context.Context, conversationID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[conversationID]
	if !ok {
		return fmt.Errorf("unknown conversation %s", conversationID)
	}
	conv.turns = append(conv.turns, storedTurn{
		role:      role,
		content:   content,
		createdAt: time.Now(),
	})
	return nil
}

// RecentTurns returns up to limit most recent turns in chronological order.
func (s *MemoryStore) RecentTurns(ctx context.Context, conversationID string, limit int) ([]prompt.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[conversationID]
	if !ok {
		return nil, fmt.Errorf("unknown conversation %s", conversationID)
	}
	turns := conv.turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]prompt.Turn, len(turns))
	for i, t := range turns {
		out[i] = prompt.Turn{Role: t.role, Content: t.content}
	}
	return out, nil
}

// TurnCount returns the number of turns in a thread. Used by tests.
func (s *MemoryStore) TurnCount(conversationID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.convs[conversationID]; ok {
		return len(conv.turns)
	}
	return 0
}
