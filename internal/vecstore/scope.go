// Package vecstore persists chunk embeddings and answers scope-filtered
// nearest-neighbor queries.
package vecstore

import (
	"fmt"
	"strings"
)

// Scope restricts a retrieval query to the chunks of one course, optionally
// narrowed to a single lesson. Callers build it from trusted ownership data,
// never from client-supplied filter strings; the store is the only place
// that turns it into a query expression.
type Scope struct {
	CourseID string
	LessonID string
}

// IsZero reports whether the scope places no restriction at all. Stores
// reject zero scopes so an unscoped query can never leak chunks.
func (s Scope) IsZero() bool {
	return s.CourseID == ""
}

// Expr renders the scope as a Milvus boolean filter expression.
func (s Scope) Expr() string {
	expr := fmt.Sprintf(`course_id == "%s"`, escapeExpr(s.CourseID))
	if s.LessonID != "" {
		expr += fmt.Sprintf(` && lesson_id == "%s"`, escapeExpr(s.LessonID))
	}
	return expr
}

// Matches reports whether a chunk with the given owner fields falls inside
// the scope. The in-memory store filters with this; tests use it to assert
// both stores agree.
func (s Scope) Matches(courseID, lessonID string) bool {
	if s.IsZero() {
		return false
	}
	if courseID != s.CourseID {
		return false
	}
	if s.LessonID != "" && lessonID != s.LessonID {
		return false
	}
	return true
}

func escapeExpr(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}
