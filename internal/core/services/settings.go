package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
	"github.com/custodia-labs/eventrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedRPS         = "embedding.requests_per_second"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMTemperature   = "llm.temperature"
	keyLLMRPS           = "llm.requests_per_second"
	keyVectorDir        = "vector.dir"
	keyVectorCollection = "vector.collection"
	keyRetrievalK       = "retrieval.k"
	keyRetrievalFetchK  = "retrieval.fetch_k"
	keyRetrievalLambda  = "retrieval.lambda"
	keyLexicalLimit     = "retrieval.lexical_limit"
	keyVectorLimit      = "retrieval.vector_limit"
	keyBatchSize        = "ingest.batch_size"
	keyChunkSize        = "ingest.chunk_size"
	keyChunkOverlap     = "ingest.chunk_overlap"
	keyWorkingRoot      = "ingest.working_root"
	keyServerPort       = "server.port"
	keyUploadDir        = "server.upload_dir"
	keyCacheSize        = "cache.size"
	keyCacheTTL         = "cache.ttl_seconds"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindProvider
)

// settingKinds lists every settable key and how its value is parsed.
var settingKinds = map[string]valueKind{
	keyEmbedProvider:    kindProvider,
	keyEmbedModel:       kindString,
	keyEmbedBaseURL:     kindString,
	keyEmbedAPIKey:      kindString,
	keyEmbedRPS:         kindFloat,
	keyLLMProvider:      kindProvider,
	keyLLMModel:         kindString,
	keyLLMBaseURL:       kindString,
	keyLLMAPIKey:        kindString,
	keyLLMTemperature:   kindFloat,
	keyLLMRPS:           kindFloat,
	keyVectorDir:        kindString,
	keyVectorCollection: kindString,
	keyRetrievalK:       kindInt,
	keyRetrievalFetchK:  kindInt,
	keyRetrievalLambda:  kindFloat,
	keyLexicalLimit:     kindInt,
	keyVectorLimit:      kindInt,
	keyBatchSize:        kindInt,
	keyChunkSize:        kindInt,
	keyChunkOverlap:     kindInt,
	keyWorkingRoot:      kindString,
	keyServerPort:       kindInt,
	keyUploadDir:        kindString,
	keyCacheSize:        kindInt,
	keyCacheTTL:         kindInt,
}

// Environment variables that override stored settings.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvOpenAIKey       = "OPENAI_API_KEY"
	EnvOpenAIModel     = "OPENAI_MODEL"
	EnvOpenAIEmbedding = "OPENAI_EMBEDDING_MODEL"
	EnvGeminiKey       = "GEMINI_API_KEY"
	EnvAnthropicKey    = "ANTHROPIC_API_KEY"
	EnvCollection      = "EVENTRAG_COLLECTION"
	EnvPineconeIndex   = "PINECONE_INDEX_NAME"
	EnvPort            = "PORT"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// aiValidator may be nil, in which case validation only checks configuration.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// SetEnv replaces the environment lookup. Useful for testing.
func (s *SettingsService) SetEnv(getenv func(string) string) {
	s.getenv = getenv
}

// Get retrieves current application settings: defaults, then the config
// file, then environment overrides.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, ""),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, 0),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:             s.getString(keyLLMModel, ""),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL),
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			Temperature:       s.getFloat(keyLLMTemperature, d.LLM.Temperature),
			RequestsPerSecond: s.getFloat(keyLLMRPS, 0),
		},
		Vector: domain.VectorSettings{
			Dir:        s.configStore.GetString(keyVectorDir),
			Collection: s.getString(keyVectorCollection, d.Vector.Collection),
		},
		Retrieval: domain.RetrievalSettings{
			K:            s.getInt(keyRetrievalK, d.Retrieval.K),
			FetchK:       s.getInt(keyRetrievalFetchK, 0),
			Lambda:       s.getFloat(keyRetrievalLambda, d.Retrieval.Lambda),
			LexicalLimit: s.getInt(keyLexicalLimit, d.Retrieval.LexicalLimit),
			VectorLimit:  s.getInt(keyVectorLimit, d.Retrieval.VectorLimit),
		},
		Ingest: domain.IngestSettings{
			BatchSize:    s.getInt(keyBatchSize, d.Ingest.BatchSize),
			ChunkSize:    s.getInt(keyChunkSize, d.Ingest.ChunkSize),
			ChunkOverlap: s.getInt(keyChunkOverlap, d.Ingest.ChunkOverlap),
			WorkingRoot:  s.configStore.GetString(keyWorkingRoot),
		},
		Server: domain.ServerSettings{
			Port:      s.getInt(keyServerPort, d.Server.Port),
			UploadDir: s.configStore.GetString(keyUploadDir),
		},
		Cache: domain.CacheSettings{
			Size: s.getInt(keyCacheSize, d.Cache.Size),
			TTL:  time.Duration(s.getInt(keyCacheTTL, int(d.Cache.TTL/time.Second))) * time.Second,
		},
	}

	s.applyEnv(settings)

	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}
	if settings.Retrieval.FetchK <= 0 {
		settings.Retrieval.FetchK = 4 * settings.Retrieval.K
	}

	return settings, nil
}

// applyEnv overlays environment variables on settings.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	env := func(name string) (string, bool) {
		v := strings.TrimSpace(s.getenv(name))
		return v, v != ""
	}

	keys := map[domain.AIProvider]string{
		domain.AIProviderOpenAI:    EnvOpenAIKey,
		domain.AIProviderAnthropic: EnvAnthropicKey,
		domain.AIProviderGemini:    EnvGeminiKey,
	}
	if name, ok := keys[settings.Embedding.Provider]; ok {
		if v, ok := env(name); ok {
			settings.Embedding.APIKey = v
		}
	}
	if name, ok := keys[settings.LLM.Provider]; ok {
		if v, ok := env(name); ok {
			settings.LLM.APIKey = v
		}
	}

	if settings.Embedding.Provider == domain.AIProviderOpenAI {
		if v, ok := env(EnvOpenAIEmbedding); ok {
			settings.Embedding.Model = v
		}
	}
	if settings.LLM.Provider == domain.AIProviderOpenAI {
		if v, ok := env(EnvOpenAIModel); ok {
			settings.LLM.Model = v
		}
	}

	if v, ok := env(EnvPineconeIndex); ok {
		settings.Vector.Collection = v
	}
	if v, ok := env(EnvCollection); ok {
		settings.Vector.Collection = v
	}
	if v, ok := env(EnvPort); ok {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			settings.Server.Port = port
		}
	}
}

// Save persists application settings. API keys are only written when set.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := map[string]any{
		keyEmbedProvider:    settings.Embedding.Provider.String(),
		keyEmbedModel:       settings.Embedding.Model,
		keyEmbedBaseURL:     settings.Embedding.BaseURL,
		keyEmbedRPS:         settings.Embedding.RequestsPerSecond,
		keyLLMProvider:      settings.LLM.Provider.String(),
		keyLLMModel:         settings.LLM.Model,
		keyLLMBaseURL:       settings.LLM.BaseURL,
		keyLLMTemperature:   settings.LLM.Temperature,
		keyLLMRPS:           settings.LLM.RequestsPerSecond,
		keyVectorDir:        settings.Vector.Dir,
		keyVectorCollection: settings.Vector.Collection,
		keyRetrievalK:       settings.Retrieval.K,
		keyRetrievalFetchK:  settings.Retrieval.FetchK,
		keyRetrievalLambda:  settings.Retrieval.Lambda,
		keyLexicalLimit:     settings.Retrieval.LexicalLimit,
		keyVectorLimit:      settings.Retrieval.VectorLimit,
		keyBatchSize:        settings.Ingest.BatchSize,
		keyChunkSize:        settings.Ingest.ChunkSize,
		keyChunkOverlap:     settings.Ingest.ChunkOverlap,
		keyWorkingRoot:      settings.Ingest.WorkingRoot,
		keyServerPort:       settings.Server.Port,
		keyUploadDir:        settings.Server.UploadDir,
		keyCacheSize:        settings.Cache.Size,
		keyCacheTTL:         int(settings.Cache.TTL / time.Second),
	}
	if settings.Embedding.APIKey != "" {
		values[keyEmbedAPIKey] = settings.Embedding.APIKey
	}
	if settings.LLM.APIKey != "" {
		values[keyLLMAPIKey] = settings.LLM.APIKey
	}

	for _, key := range sortedKeys(values) {
		if err := s.configStore.Set(key, values[key]); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return s.configStore.Save()
}

// Set parses value for key and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindProvider:
		p := domain.AIProvider(value)
		if !p.IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
		if key == keyEmbedProvider && !p.SupportsEmbeddings() {
			return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, p)
		}
		parsed = value
	default:
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return s.configStore.Save()
}

// Keys returns every settable key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Validate checks that both providers are configured.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: %s embedding provider is not configured (set %s or %s)",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider, keyEmbedAPIKey, EnvOpenAIKey)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: %s LLM provider is not configured (set %s or %s)",
			domain.ErrLLMUnavailable, settings.LLM.Provider, keyLLMAPIKey, EnvOpenAIKey)
	}
	return nil
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig pings the configured LLM provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config values with defaults.

func (s *SettingsService) getString(key, def string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return def
}

func (s *SettingsService) getInt(key string, def int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, def float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, def domain.AIProvider) domain.AIProvider {
	if p := domain.AIProvider(s.configStore.GetString(key)); p.IsValid() {
		return p
	}
	return def
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
