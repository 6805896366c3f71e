package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driven"
	"github.com/custodia-labs/margin/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyNotesRoot           = "notes.root"
	KeyNotesMaxChunkLength = "notes.max_chunk_length"
	KeyEmbedProvider       = "embedding.provider"
	KeyEmbedModel          = "embedding.model"
	KeyEmbedBaseURL        = "embedding.base_url"
	KeyEmbedAPIKey         = "embedding.api_key"
	KeyEmbedRPS            = "embedding.requests_per_second"
	KeyEmbedConcurrency    = "embedding.concurrency"
	KeyLLMProvider         = "llm.provider"
	KeyLLMModel            = "llm.model"
	KeyLLMBaseURL          = "llm.base_url"
	KeyLLMAPIKey           = "llm.api_key"
	KeySearchTopK          = "search.top_k"
	KeySearchSummaryTopK   = "search.summary_top_k"
	KeySearchChatTopK      = "search.chat_top_k"
	KeyCacheBackend        = "cache.backend"
	KeyCachePath           = "cache.path"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
)

var settingKeys = map[string]keyKind{
	KeyNotesRoot:           kindString,
	KeyNotesMaxChunkLength: kindInt,
	KeyEmbedProvider:       kindString,
	KeyEmbedModel:          kindString,
	KeyEmbedBaseURL:        kindString,
	KeyEmbedAPIKey:         kindString,
	KeyEmbedRPS:            kindFloat,
	KeyEmbedConcurrency:    kindInt,
	KeyLLMProvider:         kindString,
	KeyLLMModel:            kindString,
	KeyLLMBaseURL:          kindString,
	KeyLLMAPIKey:           kindString,
	KeySearchTopK:          kindInt,
	KeySearchSummaryTopK:   kindInt,
	KeySearchChatTopK:      kindInt,
	KeyCacheBackend:        kindString,
	KeyCachePath:           kindString,
}

// defaultOllamaURL is used for local providers without a configured base URL.
const defaultOllamaURL = "http://localhost:11434"

// SettingKeys returns every recognised config key, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsSecretKey reports whether a key holds a credential.
func IsSecretKey(key string) bool {
	return strings.HasSuffix(key, ".api_key")
}

// ParseSettingValue converts a command-line value to the type stored for key.
func ParseSettingValue(key, raw string) (any, error) {
	kind, ok := settingKeys[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		return f, nil
	default:
		return raw, nil
	}
}

// ApplySetting parses raw for key and writes it into settings. Provider and
// cache backend names are checked against the known values.
func ApplySetting(settings *domain.AppSettings, key, raw string) error {
	value, err := ParseSettingValue(key, raw)
	if err != nil {
		return err
	}

	switch key {
	case KeyNotesRoot:
		settings.Notes.Root = strings.TrimSpace(raw)
	case KeyNotesMaxChunkLength:
		settings.Notes.MaxChunkLength = value.(int)
	case KeyEmbedProvider:
		p := domain.AIProvider(strings.TrimSpace(raw))
		if !contains(domain.AllEmbeddingProviders(), p) {
			return fmt.Errorf("%w: %q cannot produce embeddings", domain.ErrInvalidProvider, raw)
		}
		settings.Embedding.Provider = p
		settings.Embedding.BaseURL = baseURLFor(p, settings.Embedding.BaseURL)
	case KeyEmbedModel:
		settings.Embedding.Model = raw
	case KeyEmbedBaseURL:
		settings.Embedding.BaseURL = raw
	case KeyEmbedAPIKey:
		settings.Embedding.APIKey = raw
	case KeyEmbedRPS:
		settings.Embedding.RequestsPerSecond = value.(float64)
	case KeyEmbedConcurrency:
		settings.Embedding.Concurrency = value.(int)
	case KeyLLMProvider:
		p := domain.AIProvider(strings.TrimSpace(raw))
		if !contains(domain.AllLLMProviders(), p) {
			return fmt.Errorf("%w: %q cannot generate text", domain.ErrInvalidProvider, raw)
		}
		settings.LLM.Provider = p
		settings.LLM.BaseURL = baseURLFor(p, settings.LLM.BaseURL)
	case KeyLLMModel:
		settings.LLM.Model = raw
	case KeyLLMBaseURL:
		settings.LLM.BaseURL = raw
	case KeyLLMAPIKey:
		settings.LLM.APIKey = raw
	case KeySearchTopK:
		settings.Retrieval.TopK = value.(int)
	case KeySearchSummaryTopK:
		settings.Retrieval.SummaryTopK = value.(int)
	case KeySearchChatTopK:
		settings.Retrieval.ChatTopK = value.(int)
	case KeyCacheBackend:
		b := domain.CacheBackend(strings.TrimSpace(raw))
		if !b.IsValid() {
			return fmt.Errorf("%w: unknown cache backend %q", domain.ErrInvalidInput, raw)
		}
		settings.Cache.Backend = b
	case KeyCachePath:
		settings.Cache.Path = raw
	}
	return nil
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	embedProvider := s.getProvider(KeyEmbedProvider, defaults.Embedding.Provider)
	llmProvider := s.getProvider(KeyLLMProvider, defaults.LLM.Provider)

	settings := &domain.AppSettings{
		Notes: domain.NotesSettings{
			Root:           s.getString(KeyNotesRoot, defaults.Notes.Root),
			MaxChunkLength: s.getInt(KeyNotesMaxChunkLength, defaults.Notes.MaxChunkLength),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          embedProvider,
			Model:             s.getString(KeyEmbedModel, domain.DefaultEmbeddingModels()[embedProvider]),
			BaseURL:           s.configStore.GetString(KeyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(KeyEmbedAPIKey),
			RequestsPerSecond: s.configStore.GetFloat(KeyEmbedRPS),
			Concurrency:       s.getInt(KeyEmbedConcurrency, defaults.Embedding.Concurrency),
		},
		LLM: domain.LLMSettings{
			Provider: llmProvider,
			Model:    s.getString(KeyLLMModel, domain.DefaultLLMModels()[llmProvider]),
			BaseURL:  s.configStore.GetString(KeyLLMBaseURL),
			APIKey:   s.configStore.GetString(KeyLLMAPIKey),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:        s.getInt(KeySearchTopK, defaults.Retrieval.TopK),
			SummaryTopK: s.getInt(KeySearchSummaryTopK, defaults.Retrieval.SummaryTopK),
			ChatTopK:    s.getInt(KeySearchChatTopK, defaults.Retrieval.ChatTopK),
		},
		Cache: domain.CacheSettings{
			Backend: s.getCacheBackend(defaults.Cache.Backend),
			Path:    s.configStore.GetString(KeyCachePath),
		},
	}

	return settings, nil
}

// Save persists application settings. Empty API keys are not written so a
// stored key survives a save of settings loaded without it.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{KeyNotesRoot, settings.Notes.Root},
		{KeyNotesMaxChunkLength, settings.Notes.MaxChunkLength},
		{KeyEmbedProvider, settings.Embedding.Provider.String()},
		{KeyEmbedModel, settings.Embedding.Model},
		{KeyEmbedBaseURL, settings.Embedding.BaseURL},
		{KeyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{KeyEmbedConcurrency, settings.Embedding.Concurrency},
		{KeyLLMProvider, settings.LLM.Provider.String()},
		{KeyLLMModel, settings.LLM.Model},
		{KeyLLMBaseURL, settings.LLM.BaseURL},
		{KeySearchTopK, settings.Retrieval.TopK},
		{KeySearchSummaryTopK, settings.Retrieval.SummaryTopK},
		{KeySearchChatTopK, settings.Retrieval.ChatTopK},
		{KeyCacheBackend, string(settings.Cache.Backend)},
		{KeyCachePath, settings.Cache.Path},
	}
	if settings.Embedding.APIKey != "" {
		values = append(values, struct {
			key   string
			value any
		}{KeyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if settings.LLM.APIKey != "" {
		values = append(values, struct {
			key   string
			value any
		}{KeyLLMAPIKey, settings.LLM.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetNotesRoot points the corpus at a notes directory.
func (s *SettingsService) SetNotesRoot(root string) error {
	root = strings.TrimSpace(root)
	if root == "" {
		return fmt.Errorf("%w: notes root is empty", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(KeyNotesRoot, root); err != nil {
		return fmt.Errorf("save %s: %w", KeyNotesRoot, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidProvider, provider)
	}
	if !contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidProvider, provider)
	}
	if !contains(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("provider %s does not generate text", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks the settings can load and search a corpus.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if strings.TrimSpace(settings.Notes.Root) == "" {
		return fmt.Errorf("%w: %s is not set", domain.ErrInvalidInput, KeyNotesRoot)
	}
	if settings.Notes.MaxChunkLength <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, KeyNotesMaxChunkLength)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not configured",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if settings.LLM.Provider.RequiresAPIKey() && settings.LLM.APIKey == "" {
		return fmt.Errorf("%w: %s needs %s", domain.ErrLLMUnavailable, settings.LLM.Provider, KeyLLMAPIKey)
	}
	if settings.Cache.Backend == domain.CacheBackendSQLite && settings.Cache.Path == "" {
		return fmt.Errorf("%w: %s is required for the sqlite cache", domain.ErrInvalidInput, KeyCachePath)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(ctx, &settings.LLM)
}

// PipelineConfig returns the chunker pipeline for the configured length.
func (s *SettingsService) PipelineConfig() domain.PipelineConfig {
	settings, _ := s.Get()
	return domain.DefaultPipelineConfig(settings.Notes.MaxChunkLength)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getCacheBackend(defaultVal domain.CacheBackend) domain.CacheBackend {
	backend := domain.CacheBackend(s.configStore.GetString(KeyCacheBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a configured URL for Ollama and clears it for cloud and
// built-in providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	if provider != domain.AIProviderOllama {
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}

func contains(providers []domain.AIProvider, p domain.AIProvider) bool {
	for _, candidate := range providers {
		if candidate == p {
			return true
		}
	}
	return false
}
