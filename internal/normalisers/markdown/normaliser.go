package markdown

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown content. Formatting syntax is stripped so
// embeddings capture prose rather than punctuation.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic format normaliser, above plaintext
}

// Pre-compiled regular expressions for Markdown stripping.
var (
	codeFence    = regexp.MustCompile("(?s)```.*?```")
	inlineCode   = regexp.MustCompile("`([^`]*)`")
	images       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	links        = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis     = regexp.MustCompile(`(\*{1,3}|_{1,3})([^*_]+)(\*{1,3}|_{1,3})`)
	blockquotes  = regexp.MustCompile(`(?m)^>\s?`)
	listMarkers  = regexp.MustCompile(`(?m)^\s*([-*+]|\d+\.)\s+`)
	horizRules   = regexp.MustCompile(`(?m)^(-{3,}|\*{3,}|_{3,})\s*$`)
	firstHeading = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// Normalise strips Markdown syntax and extracts the first heading as title.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawContent) (*driven.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	source := string(raw.Data)

	meta := map[string]string{}
	if m := firstHeading.FindStringSubmatch(source); m != nil {
		meta["title"] = strings.TrimSpace(m[1])
	}

	text := source
	text = codeFence.ReplaceAllString(text, "")
	text = images.ReplaceAllString(text, "$1")
	text = links.ReplaceAllString(text, "$1")
	text = inlineCode.ReplaceAllString(text, "$1")
	text = headings.ReplaceAllString(text, "")
	text = emphasis.ReplaceAllString(text, "$2")
	text = blockquotes.ReplaceAllString(text, "")
	text = listMarkers.ReplaceAllString(text, "")
	text = horizRules.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if text != "" {
		meta["word_count"] = strconv.Itoa(len(strings.Fields(text)))
	}

	return &driven.ExtractResult{
		Text:     text,
		Metadata: meta,
	}, nil
}
