// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - RecordSource: Parses events, guests and generic CSV files
//   - EmbeddingService: Generates vector embeddings for chunks and queries
//   - VectorStore: Persistent vector collection (chromem)
//   - LexicalEngine: Builds in-memory full-text snapshots (bleve)
//   - LLMService: Query rewriting and answer generation
//   - SessionStore: Conversation histories keyed by conversation ID
//   - RecordStore: Guest records and ingestion runs (SQLite)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - PromptStore: Custom prompt templates. Without it, built-in prompts are used.
//   - PostProcessorPipeline: Without it, the default chunker settings apply.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
