package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const apiBase = "http://export.arxiv.org/api/query"

// Paper is one arXiv search result.
type Paper struct {
	ID     string
	Title  string
	PDFURL string
}

// Client searches the arXiv Atom API and downloads result PDFs. The
// delay between downloads keeps the crawler polite; arXiv throttles
// aggressive clients.
type Client struct {
	http  *http.Client
	delay time.Duration
}

// NewClient builds a client that waits delay between downloads. A zero
// delay disables the pause; a negative delay falls back to the default.
func NewClient(delay time.Duration) *Client {
	if delay < 0 {
		delay = 2 * time.Second
	}
	return &Client{
		http:  &http.Client{Timeout: 60 * time.Second},
		delay: delay,
	}
}

type feed struct {
	Entries []entry `xml:"entry"`
}

type entry struct {
	ID    string `xml:"id"`
	Title string `xml:"title"`
	Links []link `xml:"link"`
}

type link struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

// Search returns up to maxResults papers for query, sorted by
// relevance.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Paper, error) {
	if maxResults <= 0 {
		maxResults = 50
	}
	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", maxResults))
	params.Set("sortBy", "relevance")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv query: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv query: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return ParseFeed(data)
}

// ParseFeed extracts papers from an arXiv Atom feed document.
func ParseFeed(data []byte) ([]Paper, error) {
	var f feed
	if err := xml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse arxiv feed: %w", err)
	}
	papers := make([]Paper, 0, len(f.Entries))
	for _, e := range f.Entries {
		p := Paper{
			ID:    e.ID,
			Title: strings.Join(strings.Fields(e.Title), " "),
		}
		for _, l := range e.Links {
			if l.Title == "pdf" || l.Type == "application/pdf" {
				p.PDFURL = l.Href
				break
			}
		}
		if p.PDFURL != "" {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

// Filename builds a filesystem-safe PDF name from the paper title.
func (p Paper) Filename() string {
	title := p.Title
	// Truncate on rune boundaries; byte slicing would cut a multibyte
	// character in half for Japanese titles.
	if r := []rune(title); len(r) > 80 {
		title = string(r[:80])
	}
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_")
	return strings.TrimSpace(replacer.Replace(title)) + ".pdf"
}

// DownloadAll fetches each paper's PDF into dir, pausing between
// downloads. Failures are reported per paper and do not stop the rest.
// The report callback receives each paper and the error, if any.
func (c *Client) DownloadAll(ctx context.Context, papers []Paper, dir string, report func(p Paper, err error)) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, p := range papers {
		err := c.download(ctx, p, dir)
		if report != nil {
			report(p, err)
		}
		if i < len(papers)-1 {
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (c *Client) download(ctx context.Context, p Paper, dir string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.PDFURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: %s", p.PDFURL, resp.Status)
	}
	f, err := os.Create(filepath.Join(dir, p.Filename()))
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
