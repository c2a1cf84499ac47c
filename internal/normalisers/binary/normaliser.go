package binary

import (
	"context"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser is the fallback for unsupported content types. It yields empty
// text so the item is indexed without searchable chunks but stays listable.
type Normaliser struct{}

// New creates a new binary fallback normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns nil: the registry uses this normaliser only as
// a fallback, never by MIME match.
func (n *Normaliser) SupportedMIMETypes() []string {
	return nil
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 1
}

// Normalise yields empty text for binary content.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawContent) (*driven.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	return &driven.ExtractResult{
		Text:     "",
		Metadata: map[string]string{},
	}, nil
}
