// Package file provides the TOML-backed configuration store.
// Configuration lives in a single file under the Lodestone config
// directory and is persisted on every Set. Nested tables are flattened
// to dot-notation keys on load, so "[embedding] model" reads back as
// "embedding.model".
package file
