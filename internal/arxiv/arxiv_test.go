package arxiv

import (
	"strings"
	"testing"
	"unicode/utf8"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query: search_query=all:retrieval</title>
  <entry>
    <id>http://arxiv.org/abs/2005.11401v4</id>
    <title>Retrieval-Augmented Generation for
 Knowledge-Intensive NLP Tasks</title>
    <link href="http://arxiv.org/abs/2005.11401v4" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2005.11401v4" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1234.5678v1</id>
    <title>A Paper Without A PDF Link</title>
    <link href="http://arxiv.org/abs/1234.5678v1" rel="alternate" type="text/html"/>
  </entry>
</feed>`

func TestParseFeed(t *testing.T) {
	papers, err := ParseFeed([]byte(sampleFeed))
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 1 {
		t.Fatalf("got %d papers, want 1 (entries without a pdf link are dropped)", len(papers))
	}
	p := papers[0]
	if p.Title != "Retrieval-Augmented Generation for Knowledge-Intensive NLP Tasks" {
		t.Errorf("title not normalized: %q", p.Title)
	}
	if p.PDFURL != "http://arxiv.org/pdf/2005.11401v4" {
		t.Errorf("pdf url = %q", p.PDFURL)
	}
}

func TestParseFeedRejectsGarbage(t *testing.T) {
	if _, err := ParseFeed([]byte("not xml at all <")); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestFilename(t *testing.T) {
	long := strings.Repeat("Attention Is All You Need ", 10)
	p := Paper{Title: "GPU/TPU Scaling: A Survey?"}
	if got := p.Filename(); got != "GPU_TPU Scaling_ A Survey_.pdf" {
		t.Errorf("Filename() = %q", got)
	}
	p = Paper{Title: long}
	got := p.Filename()
	if !strings.HasSuffix(got, ".pdf") {
		t.Errorf("missing extension: %q", got)
	}
	if n := utf8.RuneCountInString(got); n > 80+len(".pdf") {
		t.Errorf("title not truncated: %d runes", n)
	}
}

func TestFilenameTruncatesOnRuneBoundary(t *testing.T) {
	p := Paper{Title: strings.Repeat("深層学習による自然言語処理の研究", 10)}
	got := p.Filename()
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 80+len(".pdf") {
		t.Errorf("got %d runes, want 84", n)
	}
}
