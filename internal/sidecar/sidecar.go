// Package sidecar reads user-authored metadata files that accompany a
// source file. A sidecar has the same base name as the source plus the
// ".meta" suffix and a fixed line format: line one is a source URL (may be
// empty), line two a comma-separated tag list, and every following line a
// key:value pair. A repeated key keeps its last occurrence.
package sidecar

import (
	"os"
	"strings"

	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
)

// Suffix is appended to the source path to locate its sidecar.
const Suffix = ".meta"

// Metadata keys produced by sidecar parsing.
const (
	KeySourceURL = "source_url"
	KeyTags      = "tags"
)

// Ensure Reader implements the interface.
var _ driven.SidecarReader = (*Reader)(nil)

// Reader loads sidecar metadata from the filesystem.
type Reader struct{}

// NewReader creates a sidecar reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read returns the sidecar fields for a source path, or nil when no sidecar
// file exists. A sidecar that exists but cannot be read is an error.
func (r *Reader) Read(sourcePath string) (map[string]string, error) {
	data, err := os.ReadFile(sourcePath + Suffix)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	return Parse(string(data)), nil
}

// Parse decodes sidecar content into a metadata map.
func Parse(content string) map[string]string {
	meta := map[string]string{}

	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	if len(lines) > 0 {
		if url := strings.TrimSpace(lines[0]); url != "" {
			meta[KeySourceURL] = url
		}
	}

	if len(lines) < 2 {
		return meta
	}
	if tags := normaliseTags(lines[1]); tags != "" {
		meta[KeyTags] = tags
	}

	for _, line := range lines[2:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		// Last occurrence wins.
		meta[key] = strings.TrimSpace(value)
	}

	return meta
}

// Merge overlays sidecar fields onto extracted metadata. Sidecar values win
// on key collision.
func Merge(extracted, sc map[string]string) map[string]string {
	if len(sc) == 0 {
		return extracted
	}

	merged := make(map[string]string, len(extracted)+len(sc))
	for k, v := range extracted {
		merged[k] = v
	}
	for k, v := range sc {
		merged[k] = v
	}
	return merged
}

// normaliseTags trims each comma-separated tag and drops empties.
func normaliseTags(line string) string {
	parts := strings.Split(line, ",")

	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return strings.Join(tags, ",")
}
