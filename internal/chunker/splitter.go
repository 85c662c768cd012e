package chunker

import (
	"strings"
	"unicode/utf8"
)

// Splitter splits text into overlapping chunks using a recursive
// separator hierarchy, tried from coarsest to finest. The empty-string
// separator is the fallback that splits anywhere. Sizes are counted in
// runes so CJK text is budgeted like the Latin script.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// DefaultSeparators returns the separator hierarchy used for research
// papers: paragraph break, Japanese sentence and clause punctuation,
// line break, space, split-anywhere fallback.
func DefaultSeparators() []string {
	return []string{"\n\n", "。", "、", "\n", " ", ""}
}

func NewSplitter(chunkSize, overlap int, separators []string) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	if len(separators) == 0 {
		separators = DefaultSeparators()
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap, separators: separators}
}

// Split returns the ordered chunk strings for text. Empty or
// whitespace-only input yields no chunks.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.merge(s.split(text, s.separators))
}

// split breaks text into pieces no longer than the chunk size, falling
// through to finer separators for oversized pieces. A piece with no
// viable separator left passes through oversized rather than erroring.
func (s *Splitter) split(text string, separators []string) []string {
	if utf8.RuneCountInString(text) <= s.chunkSize {
		return []string{text}
	}
	sep, rest, ok := pickSeparator(text, separators)
	if !ok {
		return []string{text}
	}
	if sep == "" {
		return windows(text, s.chunkSize, s.chunkSize-s.overlap)
	}
	var out []string
	for _, piece := range strings.SplitAfter(text, sep) {
		if piece == "" {
			continue
		}
		if utf8.RuneCountInString(piece) <= s.chunkSize {
			out = append(out, piece)
		} else {
			out = append(out, s.split(piece, rest)...)
		}
	}
	return out
}

// merge packs adjacent pieces up to the chunk size and carries the
// trailing pieces within the overlap budget into the next chunk, so
// context is not lost at chunk boundaries.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var window []string
	total := 0
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if total > 0 && total+n > s.chunkSize {
			if c := strings.TrimSpace(strings.Join(window, "")); c != "" {
				chunks = append(chunks, c)
			}
			for len(window) > 0 && (total > s.overlap || total+n > s.chunkSize) {
				total -= utf8.RuneCountInString(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += n
	}
	if c := strings.TrimSpace(strings.Join(window, "")); c != "" {
		chunks = append(chunks, c)
	}
	return chunks
}

// pickSeparator returns the first separator present in text, with the
// finer separators remaining after it.
func pickSeparator(text string, separators []string) (string, []string, bool) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil, true
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:], true
		}
	}
	return "", nil, false
}

// windows slices text into rune windows of at most size runes whose
// starts advance by step, so consecutive windows share size-step runes.
// The overlap must survive even here: chunk boundaries inside an
// unbroken run of characters lose context otherwise.
func windows(text string, size, step int) []string {
	runes := []rune(text)
	if step <= 0 {
		step = size
	}
	var out []string
	for start := 0; ; start += step {
		end := start + size
		if end >= len(runes) {
			out = append(out, string(runes[start:]))
			return out
		}
		out = append(out, string(runes[start:end]))
	}
}
