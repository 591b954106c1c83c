package chunk

import (
	"strings"
	"testing"
)

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestSplit_EmptyInput(t *testing.T) {
	s := NewSplitter(0, 0)

	for _, input := range []string{"", "   ", "\n\n\n", " \t \n \n "} {
		if got := s.Split("src", input); got != nil {
			t.Errorf("Split(%q) = %d chunks, want none", input, len(got))
		}
	}
}

func TestSplit_SingleShortParagraph(t *testing.T) {
	s := NewSplitter(1000, 500)

	chunks := s.Split("src", "A single short paragraph well below the minimum size.")
	if len(chunks) != 1 {
		t.Fatalf("expected exactly one chunk, got %d", len(chunks))
	}
	if chunks[0].SourceID != "src" || chunks[0].Index != 0 {
		t.Errorf("unexpected chunk identity: %+v", chunks[0])
	}
	if chunks[0].CharLen != len(chunks[0].Text) {
		t.Errorf("CharLen %d does not match text length %d", chunks[0].CharLen, len(chunks[0].Text))
	}
}

func TestSplit_ContentPreserved(t *testing.T) {
	s := NewSplitter(1000, 500)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString(strings.Repeat("lesson content sentence. ", 8))
		b.WriteString("\n\n")
	}
	input := b.String()

	chunks := s.Split("src", input)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	var joined strings.Builder
	for _, c := range chunks {
		joined.WriteString(c.Text)
		joined.WriteString(" ")
	}
	if normalize(joined.String()) != normalize(input) {
		t.Error("concatenated chunks do not reproduce the source content")
	}
}

func TestSplit_GiantParagraphNoSentences(t *testing.T) {
	s := NewSplitter(1000, 500)

	// 2x target with no sentence boundaries and no blank lines at all.
	input := strings.Repeat("x", 2000)
	chunks := s.Split("src", input)

	if len(chunks) == 0 {
		t.Fatal("expected chunks from giant paragraph")
	}
	total := 0
	for _, c := range chunks {
		if c.CharLen > 1000 {
			t.Errorf("chunk %d has %d chars, want <= 1000 (hard cut)", c.Index, c.CharLen)
		}
		total += c.CharLen
	}
	if total != 2000 {
		t.Errorf("chunks cover %d chars, want 2000", total)
	}
}

func TestSplit_GiantParagraphSentenceBoundaries(t *testing.T) {
	s := NewSplitter(1000, 500)

	input := strings.Repeat("This is a complete sentence of reasonable length for testing. ", 60)
	chunks := s.Split("src", strings.TrimSpace(input))

	for _, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c.Text, ".") {
			t.Errorf("chunk %d does not end at a sentence boundary: %q", c.Index, c.Text[len(c.Text)-20:])
		}
	}
	for _, c := range chunks {
		if c.CharLen > 1000 {
			t.Errorf("chunk %d exceeds target after sentence split: %d chars", c.Index, c.CharLen)
		}
	}
}

func TestSplit_RepeatedBlankLines(t *testing.T) {
	s := NewSplitter(1000, 500)

	chunks := s.Split("src", "first paragraph\n\n\n\n\n\nsecond paragraph\n\n\n")
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			t.Fatal("produced an empty chunk from repeated blank lines")
		}
	}
}

func TestSplit_TinyTailMergedIntoPrevious(t *testing.T) {
	s := NewSplitter(1000, 500)

	big := strings.Repeat("a", 900)
	tail := "short trailing note"
	chunks := s.Split("src", big+"\n\n"+strings.Repeat("b", 900)+"\n\n"+tail)

	last := chunks[len(chunks)-1]
	if !strings.Contains(last.Text, tail) {
		t.Fatal("trailing fragment missing from output")
	}
	if last.CharLen < tailMergeMax {
		t.Errorf("tiny trailing fragment emitted as its own chunk (%d chars)", last.CharLen)
	}
}

func TestSplit_MinSizeRespected(t *testing.T) {
	s := NewSplitter(1000, 500)

	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString(strings.Repeat("medium paragraph text. ", 10))
		b.WriteString("\n\n")
	}
	chunks := s.Split("src", b.String())

	// Every chunk except the last must reach the minimum size.
	for _, c := range chunks[:len(chunks)-1] {
		if c.CharLen < 500 {
			t.Errorf("chunk %d below minimum size: %d chars", c.Index, c.CharLen)
		}
	}
}

func TestSplit_IndexesSequential(t *testing.T) {
	s := NewSplitter(1000, 500)

	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString(strings.Repeat("text ", 150))
		b.WriteString("\n\n")
	}
	chunks := s.Split("lesson-1", b.String())
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk at position %d has index %d", i, c.Index)
		}
		if c.SourceID != "lesson-1" {
			t.Errorf("chunk %d has source %q", i, c.SourceID)
		}
	}
}
