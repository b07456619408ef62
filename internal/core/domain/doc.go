// Package domain defines the core business entities for eventrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - EventRecord, GuestRecord: Typed rows parsed from the source files
//   - Document: A composed, human-readable unit with typed metadata
//   - Chunk: A bounded fragment of a Document used for embedding and retrieval
//   - Session: Per-conversation turn history
//   - Passage: A retrieved chunk tagged with the path that found it
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
