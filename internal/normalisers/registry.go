package normalisers

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
	"github.com/lodestone-labs/lodestone/internal/logger"
	"github.com/lodestone-labs/lodestone/internal/normalisers/binary"
	"github.com/lodestone-labs/lodestone/internal/normalisers/docx"
	"github.com/lodestone-labs/lodestone/internal/normalisers/html"
	"github.com/lodestone-labs/lodestone/internal/normalisers/markdown"
	"github.com/lodestone-labs/lodestone/internal/normalisers/pdf"
	"github.com/lodestone-labs/lodestone/internal/normalisers/plaintext"
)

// MetaExtractionError is the metadata key flagging a failed extraction.
const MetaExtractionError = "extraction_error"

// Registry selects a normaliser by MIME type and runs the extraction
// pipeline around it.
type Registry struct {
	normalisers []driven.Normaliser
	fallback    driven.Normaliser
}

// NewRegistry creates a registry with the given normalisers.
// The binary fallback is always present.
func NewRegistry(ns ...driven.Normaliser) *Registry {
	return &Registry{
		normalisers: ns,
		fallback:    binary.New(),
	}
}

// Defaults returns a registry with all built-in normalisers registered.
func Defaults() *Registry {
	return NewRegistry(
		plaintext.New(),
		markdown.New(),
		html.New(),
		pdf.New(),
		docx.New(),
	)
}

// Select returns the highest-priority normaliser claiming the MIME type,
// or the binary fallback when none does.
func (r *Registry) Select(mimeType string) driven.Normaliser {
	mimeType = canonicalMIME(mimeType)

	var best driven.Normaliser
	for _, n := range r.normalisers {
		for _, supported := range n.SupportedMIMETypes() {
			if supported != mimeType {
				continue
			}
			if best == nil || n.Priority() > best.Priority() {
				best = n
			}
		}
	}

	if best == nil {
		return r.fallback
	}
	return best
}

// Extract runs the full extraction pipeline for raw content: MIME
// resolution, normaliser selection, and file-level metadata. Extraction
// failures are downgraded to empty text plus an extraction_error entry.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawContent) (string, map[string]string) {
	if raw.MIMEType == "" {
		raw.MIMEType = SniffMIME(raw.SourceName, raw.Data)
	}

	meta := map[string]string{
		"source_name": raw.SourceName,
		"mime_type":   raw.MIMEType,
		"size_bytes":  fmt.Sprintf("%d", len(raw.Data)),
	}

	n := r.Select(raw.MIMEType)
	result, err := n.Normalise(ctx, raw)
	if err != nil {
		logger.Warn("Extraction failed for %s (%s): %v", raw.ContentID, raw.MIMEType, err)
		meta[MetaExtractionError] = err.Error()
		return "", meta
	}

	// Format metadata is additive on top of the file-level attributes.
	for k, v := range result.Metadata {
		if v != "" {
			meta[k] = v
		}
	}

	return result.Text, meta
}

// SniffMIME determines a MIME type from the filename extension first, then
// from content sniffing.
func SniffMIME(name string, data []byte) string {
	if ext := filepath.Ext(name); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return canonicalMIME(byExt)
		}
		// Common types the platform mime table may miss.
		switch strings.ToLower(ext) {
		case ".md", ".markdown":
			return "text/markdown"
		case ".docx":
			return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
		}
	}

	if len(data) == 0 {
		return "application/octet-stream"
	}
	return canonicalMIME(http.DetectContentType(data))
}

// canonicalMIME strips parameters like charset and lowercases the type.
func canonicalMIME(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
