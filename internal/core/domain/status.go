package domain

// EngineStatus summarises what the engine currently holds.
type EngineStatus struct {
	// Collection is the vector collection name.
	Collection string `json:"collection"`

	// VectorChunks is the number of chunks in the vector collection.
	VectorChunks int `json:"vectorChunks"`

	// LexicalDocuments is the size of the current lexical snapshot.
	// Zero when no snapshot has been built yet.
	LexicalDocuments int `json:"lexicalDocuments"`

	// EmbeddingCacheEntries is the number of cached query embeddings.
	EmbeddingCacheEntries int `json:"embeddingCacheEntries"`

	// Conversations is the number of live sessions.
	Conversations int `json:"conversations"`

	// EmbeddingModel and LLMModel name the models in use.
	EmbeddingModel string `json:"embeddingModel"`
	LLMModel       string `json:"llmModel"`
}

// Ready reports whether queries can be answered.
func (s EngineStatus) Ready() bool {
	return s.VectorChunks > 0
}
