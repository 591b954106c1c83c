// Package enroll answers whether a principal may use course-scoped chat.
package enroll

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Service reports course membership. Only active enrollments grant access;
// a suspended enrollment is treated the same as no enrollment at all.
type Service interface {
	IsActivelyEnrolled(ctx context.Context, principalID, courseID string) (bool, error)
}

// MemoryService keeps enrollment state in process memory.
type MemoryService struct {
	mu     sync.RWMutex
	active map[string]bool
}

// NewMemoryService creates an empty enrollment service.
func NewMemoryService() *MemoryService {
	return &MemoryService{active: make(map[string]bool)}
}

func key(principalID, courseID string) string {
	return principalID + "\x00" + courseID
}

// Enroll marks the principal as an active member of the course.
func (s *MemoryService) Enroll(principalID, courseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[key(principalID, courseID)] = true
}

// Suspend deactivates an enrollment without forgetting it existed.
func (s *MemoryService) Suspend(principalID, courseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[key(principalID, courseID)]; ok {
		s.active[key(principalID, courseID)] = false
	}
}

// IsActivelyEnrolled implements Service.
func (s *MemoryService) IsActivelyEnrolled(ctx context.Context, principalID, courseID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active[key(principalID, courseID)], nil
}

// Seed loads enrollments from a comma-separated list of principal:course
// pairs, e.g. "12345:golang-101,67890:golang-101". Blank entries are
// skipped, malformed ones are an error.
func (s *MemoryService) Seed(pairs string) error {
	for _, raw := range strings.Split(pairs, ",") {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		principal, course, ok := strings.Cut(entry, ":")
		if !ok || principal == "" || course == "" {
			return fmt.Errorf("malformed enrollment entry %q, want principal:course", entry)
		}
		s.Enroll(strings.TrimSpace(principal), strings.TrimSpace(course))
	}
	return nil
}
