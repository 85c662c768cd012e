package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"paperchat/internal/domain"
)

// DefaultTopK is how many chunks ground an answer. Generous on purpose:
// the generation model is told to ignore irrelevant excerpts.
const DefaultTopK = 20

const promptTemplate = `You are a research assistant. Answer the question using only the
excerpts below, in %s.

Rules:
- The excerpts were extracted automatically from PDFs and may contain
  typos or layout artifacts.
- Combine information from multiple excerpts when they complement each
  other.
- If the excerpts do not contain the answer, say so plainly instead of
  guessing.

Excerpts:
%s

Question: %s`

// Context is the assembled grounding for one question.
type Context struct {
	Passages []domain.Match
	// Sources is the deduplicated set of origin filenames, for
	// citation display. Order is not significant.
	Sources []string
}

// Empty reports whether retrieval found nothing to ground an answer.
func (c *Context) Empty() bool { return len(c.Passages) == 0 }

// Answer is a generated response with the sources that grounded it.
type Answer struct {
	Text    string
	Sources []string
}

// Retriever answers questions from the corpus: embed the question in
// query mode, fetch the nearest chunks, and hand the source-tagged
// context to the generation model.
type Retriever struct {
	embedder domain.Embedder
	store    domain.VectorStore
	gen      domain.Generator
	topK     int
	language string
}

func NewRetriever(emb domain.Embedder, store domain.VectorStore, gen domain.Generator, topK int, language string) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if language == "" {
		language = "English"
	}
	return &Retriever{embedder: emb, store: store, gen: gen, topK: topK, language: language}
}

// Retrieve runs the search half of the pipeline. A whitespace-only
// question or a failed query embedding yields an empty Context, not an
// error, and never reaches the store: querying with an empty vector
// would rank garbage instead of failing.
func (r *Retriever) Retrieve(ctx context.Context, question string) (*Context, error) {
	if strings.TrimSpace(question) == "" {
		return &Context{}, nil
	}
	vector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil || len(vector) == 0 {
		if err != nil {
			log.Printf("query embedding failed, degrading to no results: %v", err)
		}
		return &Context{}, nil
	}
	matches, err := r.store.Query(ctx, vector, r.topK)
	if err != nil {
		return nil, err
	}
	return &Context{Passages: matches, Sources: dedupeSources(matches)}, nil
}

// Prompt composes the fixed instructional template around the
// retrieved context, in rank order (most similar first).
func (r *Retriever) Prompt(c *Context, question string) string {
	var b strings.Builder
	for _, m := range c.Passages {
		fmt.Fprintf(&b, "<doc source='%s'>\n%s\n</doc>\n\n", m.Source, m.Text)
	}
	return fmt.Sprintf(promptTemplate, r.language, b.String(), question)
}

// Answer runs the full pipeline for one question. An empty Context
// short-circuits with a nil Answer and no generator call.
func (r *Retriever) Answer(ctx context.Context, question string) (*Answer, error) {
	c, err := r.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		return nil, nil
	}
	text, err := r.gen.Generate(ctx, r.Prompt(c, question))
	if err != nil {
		return nil, err
	}
	return &Answer{Text: text, Sources: c.Sources}, nil
}

// AnswerStream is Answer with the generated text also delivered
// incrementally to fn. The returned Answer carries the accumulated
// text. A nil Answer with nil error means nothing relevant was found.
func (r *Retriever) AnswerStream(ctx context.Context, question string, fn func(fragment string) error) (*Answer, error) {
	c, err := r.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		return nil, nil
	}
	var full strings.Builder
	err = r.gen.GenerateStream(ctx, r.Prompt(c, question), func(fragment string) error {
		full.WriteString(fragment)
		return fn(fragment)
	})
	if err != nil {
		return nil, err
	}
	return &Answer{Text: full.String(), Sources: c.Sources}, nil
}

func dedupeSources(matches []domain.Match) []string {
	seen := make(map[string]struct{}, len(matches))
	var sources []string
	for _, m := range matches {
		if _, ok := seen[m.Source]; ok {
			continue
		}
		seen[m.Source] = struct{}{}
		sources = append(sources, m.Source)
	}
	sort.Strings(sources)
	return sources
}
