package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"paperchat/internal/domain"
)

var spaceRuns = regexp.MustCompile(`[ \t]+`)

// paragraphMark temporarily protects paragraph breaks while wrapped
// lines are joined.
const paragraphMark = "\x00PARAGRAPH\x00"

// PDF extracts text from PDF files page by page and returns one
// cleaned blob per file.
type PDF struct{}

func NewPDF() *PDF { return &PDF{} }

// Extract reads the PDF at path and returns its cleaned text. Pages
// are concatenated with a paragraph separator; pages that fail text
// extraction are skipped. An unreadable or corrupt file is reported as
// a DocumentReadError so callers can skip it and keep the batch going.
func (p *PDF) Extract(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", &domain.DocumentReadError{Path: path, Err: err}
	}
	defer f.Close()

	var pages []string
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}
	if len(pages) == 0 {
		return "", &domain.DocumentReadError{Path: path, Err: fmt.Errorf("no extractable pages")}
	}
	return Clean(strings.Join(pages, "\n\n")), nil
}

// Clean normalizes extracted text. The order of the first three steps
// matters: paragraph breaks are parked behind a sentinel so that the
// single line breaks inside wrapped paragraphs can be joined, then the
// paragraph breaks are restored. Re-running Clean on its own output is
// a no-op.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\n\n", paragraphMark)
	text = strings.ReplaceAll(text, "\n", "")
	text = strings.ReplaceAll(text, paragraphMark, "\n\n")
	return spaceRuns.ReplaceAllString(text, " ")
}
