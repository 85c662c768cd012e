package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitEmptyInput(t *testing.T) {
	s := NewSplitter(500, 100, nil)
	for _, text := range []string{"", "   ", "\n\n\t \n"} {
		if got := s.Split(text); len(got) != 0 {
			t.Errorf("Split(%q) = %d chunks, want 0", text, len(got))
		}
	}
}

func TestSplitRespectsSizeBudget(t *testing.T) {
	s := NewSplitter(500, 100, nil)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 60)
	chunks := s.Split(text)
	if len(chunks) < 3 {
		t.Fatalf("got %d chunks, want at least 3", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 500 {
			t.Errorf("chunk %d has %d runes, budget is 500", i, n)
		}
	}
}

func TestSplitOverlapCarriesOver(t *testing.T) {
	s := NewSplitter(100, 30, nil)
	var words []string
	for i := 0; i < 80; i++ {
		words = append(words, fmt.Sprintf("word%02d", i))
	}
	text := strings.Join(words, " ")
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		// The carried-over tail of chunk i-1 must reappear at the start
		// of chunk i.
		firstWord := strings.Fields(cur)[0]
		tail := prev
		if utf8.RuneCountInString(tail) > 40 {
			r := []rune(tail)
			tail = string(r[len(r)-40:])
		}
		if !strings.Contains(tail, firstWord) {
			t.Errorf("chunk %d does not start with overlap from chunk %d: tail=%q start=%q", i, i-1, tail, firstWord)
		}
	}
}

func TestSplitParagraphsPreferred(t *testing.T) {
	s := NewSplitter(30, 0, nil)
	text := "first paragraph here.\n\nsecond paragraph here.\n\nthird paragraph here."
	chunks := s.Split(text)
	if len(chunks) == 0 {
		t.Fatal("no chunks")
	}
	for _, c := range chunks {
		if strings.Contains(c, "\n\n") {
			t.Errorf("chunk spans a paragraph break: %q", c)
		}
	}
}

func TestSplitJapaneseSentences(t *testing.T) {
	s := NewSplitter(10, 0, nil)
	text := "これは文です。これも文です。さらに文です。"
	chunks := s.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks %v, want 3", len(chunks), chunks)
	}
	for _, c := range chunks {
		if !strings.HasSuffix(c, "。") {
			t.Errorf("chunk %q does not end at a sentence boundary", c)
		}
	}
}

func TestSplitOversizedTokenPassesThrough(t *testing.T) {
	// Without the split-anywhere fallback, a single unsplittable token
	// is emitted oversized rather than dropped or erroring.
	s := NewSplitter(10, 0, []string{"\n\n", " "})
	token := strings.Repeat("x", 25)
	chunks := s.Split("short " + token + " tail")
	found := false
	for _, c := range chunks {
		if strings.Contains(c, token) {
			found = true
		}
	}
	if !found {
		t.Fatalf("oversized token missing from chunks %v", chunks)
	}
}

func TestSplitFallbackSplitsAnywhere(t *testing.T) {
	// With zero overlap the windows tile the token exactly.
	s := NewSplitter(10, 0, nil)
	token := strings.Repeat("y", 35)
	chunks := s.Split(token)
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 10 {
			t.Errorf("chunk %d has %d runes, budget is 10", i, n)
		}
	}
	if joined := strings.Join(chunks, ""); joined != token {
		t.Errorf("fallback split lost content: %q", joined)
	}
}

func TestSplitFallbackKeepsOverlap(t *testing.T) {
	// Text with no separator at all is only splittable by the fallback,
	// and the overlap must still reappear across chunk boundaries.
	var b strings.Builder
	for b.Len() < 1200 {
		b.WriteString("abcdefghijklmnopqrstuvwxyz")
	}
	text := b.String()[:1200]
	s := NewSplitter(500, 100, nil)
	chunks := s.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 500 {
			t.Errorf("chunk %d has %d runes, budget is 500", i, n)
		}
	}
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		tail := string(prev[len(prev)-100:])
		if !strings.HasPrefix(chunks[i], tail) {
			t.Errorf("chunk %d does not begin with the 100-rune tail of chunk %d", i, i-1)
		}
	}
}

func TestSplitLongParagraphProducesContiguousCoverage(t *testing.T) {
	// A 1200-character paragraph at 500/100 must yield at least three
	// chunks within budget.
	var b strings.Builder
	for b.Len() < 1200 {
		b.WriteString("retrieval augmented generation grounds answers in sources ")
	}
	text := b.String()[:1200]
	s := NewSplitter(500, 100, nil)
	chunks := s.Split(text)
	if len(chunks) < 3 {
		t.Fatalf("got %d chunks, want at least 3", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 500 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
	}
}
