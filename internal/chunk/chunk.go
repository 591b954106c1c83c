// Package chunk splits lesson text into bounded-size passages used as the
// unit of retrieval.
package chunk

import (
	"regexp"
	"strings"
)

// Default sizing for retrieval passages, in characters.
const (
	DefaultTargetSize = 1000
	DefaultMinSize    = 500

	// hardCap is the one-time overflow allowed while a buffer is still
	// under the minimum size, so short paragraphs don't become many tiny
	// chunks.
	hardCap = 1500

	// tailMergeMax: a final chunk shorter than this is merged into the
	// previous chunk instead of being emitted on its own.
	tailMergeMax = 300
)

// Chunk is a bounded slice of a source document.
type Chunk struct {
	SourceID string
	Index    int
	Text     string
	CharLen  int
}

// Splitter accumulates paragraphs into chunks around a target size.
type Splitter struct {
	targetSize int
	minSize    int
}

// NewSplitter creates a splitter. Non-positive arguments fall back to the
// defaults.
func NewSplitter(targetSize, minSize int) *Splitter {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	return &Splitter{targetSize: targetSize, minSize: minSize}
}

var paragraphSplitter = regexp.MustCompile(`\n[ \t]*\n+`)

// Split chunks text into passages. Empty or whitespace-only input yields nil.
func (s *Splitter) Split(sourceID, text string) []Chunk {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	growCap := s.targetSize * 12 / 10
	oversize := s.targetSize * 3 / 2

	var texts []string
	var buf string

	flush := func() {
		if buf != "" {
			texts = append(texts, buf)
			buf = ""
		}
	}

	for _, para := range paragraphs {
		if len(para) > oversize {
			// Oversized paragraphs are split on their own; anything
			// accumulated so far is emitted first.
			flush()
			slices, remainder := s.hardSplit(para)
			texts = append(texts, slices...)
			buf = remainder
			continue
		}

		joined := len(para)
		if buf != "" {
			joined = len(buf) + 2 + len(para)
		}

		switch {
		case joined <= growCap:
			buf = join(buf, para)
		case len(buf) >= s.minSize:
			flush()
			buf = para
		case joined <= hardCap:
			// Buffer is still small; let it overflow once rather than
			// emit an undersized chunk.
			buf = join(buf, para)
		default:
			flush()
			buf = para
		}
	}

	if buf != "" {
		if len(buf) < tailMergeMax && len(texts) > 0 {
			texts[len(texts)-1] = join(texts[len(texts)-1], buf)
		} else {
			texts = append(texts, buf)
		}
	}

	chunks := make([]Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = Chunk{SourceID: sourceID, Index: i, Text: t, CharLen: len(t)}
	}
	return chunks
}

// hardSplit cuts a paragraph with no usable blank-line boundaries into
// target-sized slices, preferring the last sentence boundary at or before
// the target. The remainder under the target size seeds the next buffer.
func (s *Splitter) hardSplit(para string) (slices []string, remainder string) {
	rest := para
	for len(rest) > s.targetSize {
		window := rest[:s.targetSize]
		cut := strings.LastIndex(window, ". ")
		if cut >= s.targetSize/2 {
			// Keep the period with the slice, drop the separating space.
			slices = append(slices, rest[:cut+1])
			rest = rest[cut+2:]
		} else {
			// No sentence boundary in the back half; exact cut.
			slices = append(slices, rest[:s.targetSize])
			rest = rest[s.targetSize:]
		}
	}
	return slices, rest
}

func splitParagraphs(text string) []string {
	parts := paragraphSplitter.Split(text, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

func join(a, b string) string {
	if a == "" {
		return b
	}
	return a + "\n\n" + b
}
