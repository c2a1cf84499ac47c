package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX content. Extraction is best effort: a damaged
// part loses its text without failing the document.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic format normaliser
}

// Normalise extracts paragraph text and core document properties.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawContent) (*driven.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Data), int64(len(raw.Data)))
	if err != nil {
		return nil, domain.ErrInvalidInput
	}

	text := extractDocumentText(reader)

	meta := extractCoreProperties(reader)
	if text != "" {
		meta["word_count"] = strconv.Itoa(len(strings.Fields(text)))
	}

	return &driven.ExtractResult{
		Text:     text,
		Metadata: meta,
	}, nil
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// extractDocumentText extracts paragraph text from word/document.xml.
func extractDocumentText(reader *zip.Reader) string {
	content := readZipFile(reader, "word/document.xml")
	if content == nil {
		return ""
	}

	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n\n")
		}
		for _, r := range para.Runs {
			for _, t := range r.Text {
				result.WriteString(t.Content)
			}
		}
	}

	return strings.TrimSpace(result.String())
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
	Created string `xml:"created"`
}

// extractCoreProperties reads title, author and creation date from
// docProps/core.xml. Missing properties are omitted, not errors.
func extractCoreProperties(reader *zip.Reader) map[string]string {
	meta := map[string]string{}

	content := readZipFile(reader, "docProps/core.xml")
	if content == nil {
		return meta
	}

	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return meta
	}

	if t := strings.TrimSpace(core.Title); t != "" {
		meta["title"] = t
	}
	if c := strings.TrimSpace(core.Creator); c != "" {
		meta["author"] = c
	}
	if d := strings.TrimSpace(core.Created); d != "" {
		meta["created"] = d
	}

	return meta
}

// readZipFile returns the contents of a named archive member, or nil.
func readZipFile(reader *zip.Reader, name string) []byte {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil
		}
		return content
	}
	return nil
}
