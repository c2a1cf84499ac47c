package plaintext

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text content.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/yaml",
		"text/toml",
		"text/x-go",
		"text/x-python",
		"text/x-rust",
		"text/x-c",
		"text/x-shellscript",
		"text/javascript",
		"text/css",
		"application/json",
		"application/xml",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback text normaliser
}

// Normalise converts raw bytes into plain text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawContent) (*driven.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text := sanitise(string(raw.Data))

	meta := map[string]string{}
	if text != "" {
		meta["word_count"] = strconv.Itoa(len(strings.Fields(text)))
		meta["line_count"] = strconv.Itoa(strings.Count(text, "\n") + 1)
	}

	return &driven.ExtractResult{
		Text:     text,
		Metadata: meta,
	}, nil
}

// sanitise drops NUL bytes and invalid UTF-8 sequences so downstream
// chunking and embedding only ever see valid text.
func sanitise(s string) string {
	if utf8.ValidString(s) && !strings.ContainsRune(s, 0) {
		return strings.TrimSpace(s)
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == 0 || r == utf8.RuneError {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
