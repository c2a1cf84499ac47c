// Package chunker provides a deterministic, boundary-aware text chunking
// processor.
package chunker

import (
	"strings"

	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
)

// DefaultMaxSize is the default maximum number of bytes per chunk.
const DefaultMaxSize = 1000

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor splits text into chunks on paragraph boundaries, packing
// consecutive paragraphs up to the size limit. A single paragraph larger
// than the limit is hard-split on rune boundaries. There is no overlap,
// so re-chunking identical text always reproduces identical boundaries.
type Processor struct {
	maxSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxSize sets the chunk size limit in bytes.
func WithMaxSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.maxSize = size
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxSize: DefaultMaxSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// MaxSize returns the configured chunk size limit.
func (p *Processor) MaxSize() int {
	return p.maxSize
}

// Chunk splits text into ordered segments. Empty or whitespace-only text
// yields zero segments.
func (p *Processor) Chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, para := range splitParagraphs(text) {
		if len(para) > p.maxSize {
			// Oversized paragraph: emit what we have, then hard-split it.
			flush()
			chunks = append(chunks, hardSplit(para, p.maxSize)...)
			continue
		}

		// +2 accounts for the paragraph separator written below.
		if current.Len() > 0 && current.Len()+len(para)+2 > p.maxSize {
			flush()
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// splitParagraphs splits on blank lines, dropping empty segments.
func splitParagraphs(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")

	paras := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// hardSplit cuts an oversized paragraph into maxSize-bounded pieces without
// splitting multi-byte runes.
func hardSplit(s string, maxSize int) []string {
	var parts []string

	for len(s) > maxSize {
		cut := maxSize
		// Back up to a rune boundary.
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = maxSize
		}
		parts = append(parts, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		parts = append(parts, s)
	}

	return parts
}

// isRuneStart reports whether a byte begins a UTF-8 sequence.
func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
