// Package services implements the driving port interfaces.
//
// Ingestion composes event, guest and generic rows into documents, chunks
// them and writes them to the vector store in committed batches. Querying
// rewrites follow-up questions, retrieves from the lexical and vector paths
// concurrently and generates a grounded answer. Conversation state lives in
// the session store; the query engine itself is stateless.
//
// Services depend only on ports and contain no provider-specific code.
package services
