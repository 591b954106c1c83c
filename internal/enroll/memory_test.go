package enroll

import (
	"context"
	"testing"
)

func TestEnrollGrantsAccess(t *testing.T) {
	s := NewMemoryService()
	s.Enroll("user-1", "golang-101")

	ok, err := s.IsActivelyEnrolled(context.Background(), "user-1", "golang-101")
	if err != nil {
		t.Fatalf("IsActivelyEnrolled failed: %v", err)
	}
	if !ok {
		t.Error("expected active enrollment")
	}
}

func TestUnknownPrincipalDenied(t *testing.T) {
	s := NewMemoryService()
	s.Enroll("user-1", "golang-101")

	ok, _ := s.IsActivelyEnrolled(context.Background(), "user-2", "golang-101")
	if ok {
		t.Error("unenrolled principal should be denied")
	}
	ok, _ = s.IsActivelyEnrolled(context.Background(), "user-1", "calculus-201")
	if ok {
		t.Error("enrollment in one course should not grant another")
	}
}

func TestSuspendedEnrollmentDenied(t *testing.T) {
	s := NewMemoryService()
	s.Enroll("user-1", "golang-101")
	s.Suspend("user-1", "golang-101")

	ok, _ := s.IsActivelyEnrolled(context.Background(), "user-1", "golang-101")
	if ok {
		t.Error("suspended enrollment should be denied")
	}

	s.Enroll("user-1", "golang-101")
	ok, _ = s.IsActivelyEnrolled(context.Background(), "user-1", "golang-101")
	if !ok {
		t.Error("re-enrollment should restore access")
	}
}

func TestSeed(t *testing.T) {
	s := NewMemoryService()
	if err := s.Seed("1:golang-101, 2:calculus-201 ,,"); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if ok, _ := s.IsActivelyEnrolled(context.Background(), "1", "golang-101"); !ok {
		t.Error("seeded enrollment missing")
	}
	if ok, _ := s.IsActivelyEnrolled(context.Background(), "2", "calculus-201"); !ok {
		t.Error("seeded enrollment missing")
	}
}

func TestSeedMalformed(t *testing.T) {
	s := NewMemoryService()
	if err := s.Seed("no-colon-here"); err == nil {
		t.Error("expected error for malformed entry")
	}
}
