package extractor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"paperchat/internal/domain"
)

func TestCleanJoinsWrappedLines(t *testing.T) {
	in := "A sentence that\nwraps across lines.\n\nNext   paragraph\there."
	want := "A sentence thatwraps across lines.\n\nNext paragraph here."
	if got := Clean(in); got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestCleanPreservesParagraphBreaks(t *testing.T) {
	in := "para one\n\npara two\n\npara three"
	got := Clean(in)
	for _, p := range []string{"para one", "para two", "para three"} {
		if !strings.Contains(got, p) {
			t.Errorf("Clean() lost %q: %q", p, got)
		}
	}
	if n := strings.Count(got, "\n\n"); n != 2 {
		t.Errorf("Clean() kept %d paragraph breaks, want 2", n)
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	inputs := []string{
		"line one\nline two\n\nline three",
		"spaces   and\ttabs\t mixed",
		"already clean text",
		"",
	}
	for _, in := range inputs {
		once := Clean(in)
		if twice := Clean(once); twice != once {
			t.Errorf("Clean not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestExtractMissingFile(t *testing.T) {
	_, err := NewPDF().Extract(filepath.Join(t.TempDir(), "nope.pdf"))
	var readErr *domain.DocumentReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("got %v, want DocumentReadError", err)
	}
}

func TestExtractCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("not a pdf at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewPDF().Extract(path)
	var readErr *domain.DocumentReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("got %v, want DocumentReadError", err)
	}
}
