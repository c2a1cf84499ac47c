// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the content store, the embedding provider,
// the record store, and the extraction pipeline.
package driven
