// Package domain contains the core business entities and errors for the
// content-index engine. It has no dependencies on adapters or infrastructure.
package domain
