// Package driving provides interfaces consumed by callers of the engine
// (primary/inbound ports): indexing and similarity search.
package driving
