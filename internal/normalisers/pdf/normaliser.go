package pdf

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF content. Only the text layer is read: scanned or
// image-only PDFs yield empty text, not an error.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic format normaliser
}

// Normalise extracts the text layer and page count from a PDF.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawContent) (*driven.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw.Data), int64(len(raw.Data)))
	if err != nil {
		return nil, err
	}

	meta := map[string]string{
		"page_count": strconv.Itoa(reader.NumPage()),
	}

	var b strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			// A malformed page loses its text, not the document.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		b.WriteString(strings.TrimSpace(text))
		b.WriteString("\n\n")
	}

	text := strings.TrimSpace(b.String())
	if text != "" {
		meta["word_count"] = strconv.Itoa(len(strings.Fields(text)))
	}

	return &driven.ExtractResult{
		Text:     text,
		Metadata: meta,
	}, nil
}
