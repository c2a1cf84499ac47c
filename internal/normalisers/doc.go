// Package normalisers contains the extraction pipeline: format-specific
// normalisers that turn raw bytes into plain text plus metadata, and the
// registry that selects one by MIME type.
//
// Extraction never aborts indexing. A normaliser failure is downgraded to
// empty text with an extraction_error metadata entry so the content item can
// still be indexed without searchable chunks.
package normalisers
