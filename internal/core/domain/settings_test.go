package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	for _, p := range AllLLMProviders() {
		assert.True(t, p.IsValid(), p)
	}
	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("cohere").IsValid())
}

func TestAIProvider_SupportsEmbeddings(t *testing.T) {
	assert.True(t, AIProviderOpenAI.SupportsEmbeddings())
	assert.True(t, AIProviderGemini.SupportsEmbeddings())
	assert.True(t, AIProviderOllama.SupportsEmbeddings())
	assert.False(t, AIProviderAnthropic.SupportsEmbeddings())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"ollama needs no key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"anthropic has no embeddings", EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}, false},
		{"empty provider", EmbeddingSettings{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.True(t, LLMSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderGemini}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderOpenAI, s.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", s.Embedding.Model)
	assert.Equal(t, "gpt-4o-mini", s.LLM.Model)
	assert.InDelta(t, 0.3, s.LLM.Temperature, 1e-9)
	assert.Equal(t, "event-attendees", s.Vector.Collection)
	assert.Equal(t, 10, s.Retrieval.K)
	assert.Equal(t, 40, s.Retrieval.FetchK)
	assert.Equal(t, 30, s.Retrieval.LexicalLimit)
	assert.Equal(t, 50, s.Retrieval.VectorLimit)
	assert.Equal(t, 500, s.Ingest.BatchSize)
	assert.Equal(t, 1000, s.Ingest.ChunkSize)
	assert.Equal(t, 200, s.Ingest.ChunkOverlap)
	assert.Equal(t, 3000, s.Server.Port)
}

func TestPipelineConfigFor(t *testing.T) {
	cfg := PipelineConfigFor(IngestSettings{ChunkSize: 800, ChunkOverlap: 100})

	assert.Equal(t, []string{"chunker"}, cfg.Processors)
	assert.Equal(t, 800, cfg.GetProcessorConfig("chunker")["chunk_size"])
	assert.Equal(t, 100, cfg.GetProcessorConfig("chunker")["overlap"])
	assert.Nil(t, cfg.GetProcessorConfig("summary"))
}
