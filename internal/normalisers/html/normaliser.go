package html

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML content. Script, style and navigation elements
// are dropped before text extraction.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic format normaliser, above plaintext
}

var (
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// Normalise extracts readable text and document metadata from HTML.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawContent) (*driven.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Data))
	if err != nil {
		return nil, err
	}

	meta := map[string]string{}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		meta["title"] = title
	}
	if author, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok && author != "" {
		meta["author"] = strings.TrimSpace(author)
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok && desc != "" {
		meta["description"] = strings.TrimSpace(desc)
	}

	// Drop non-content elements before text extraction.
	doc.Find("script, style, noscript, svg, nav, header, footer, iframe").Remove()

	var b strings.Builder
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	body.Find("p, h1, h2, h3, h4, h5, h6, li, td, th, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			b.WriteString(t)
			b.WriteString("\n\n")
		}
	})

	text := b.String()
	if strings.TrimSpace(text) == "" {
		// No block elements matched; fall back to whole-body text.
		text = body.Text()
	}

	text = multiSpaces.ReplaceAllString(text, " ")
	text = multiNewlines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	return &driven.ExtractResult{
		Text:     text,
		Metadata: meta,
	}, nil
}
