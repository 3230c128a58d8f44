package sentiment

import (
	"database/sql"
	"fmt"
	"strings"
)

// Supported model providers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const defaultProvider = ProviderGemini

var defaultModels = map[string]string{
	ProviderGemini:    "gemini-2.5-flash",
	ProviderOpenAI:    "gpt-4o-search-preview",
	ProviderAnthropic: "claude-sonnet-4-5",
}

// ModelSettings selects the model used for analysis. The API key is never
// persisted.
type ModelSettings struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	BaseURL  string `json:"base_url"`
}

// DefaultModelSettings returns the settings used before anything is saved.
func DefaultModelSettings() ModelSettings {
	return ModelSettings{Provider: defaultProvider, Model: defaultModels[defaultProvider]}
}

func trimTrailingSlash(value string) string {
	return strings.TrimRight(strings.TrimSpace(value), "/")
}

// NormalizeModelSettings validates the provider and fills in a default model.
func NormalizeModelSettings(s ModelSettings) (ModelSettings, error) {
	s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	if s.Provider == "" {
		s.Provider = defaultProvider
	}
	fallback, ok := defaultModels[s.Provider]
	if !ok {
		return ModelSettings{}, NewError(ErrCodeInvalidInput, fmt.Sprintf("unsupported provider: %s", s.Provider))
	}
	s.Model = strings.TrimSpace(s.Model)
	if s.Model == "" {
		s.Model = fallback
	}
	s.BaseURL = trimTrailingSlash(s.BaseURL)
	return s, nil
}

// GetModelSettings returns persisted model settings.
func (c *Core) GetModelSettings() (ModelSettings, error) {
	settings := DefaultModelSettings()
	err := c.db.QueryRow(`
		SELECT provider, model, base_url
		FROM ai_settings
		WHERE id = 1
	`).Scan(&settings.Provider, &settings.Model, &settings.BaseURL)
	if err == sql.ErrNoRows {
		return settings, nil
	}
	if err != nil {
		return ModelSettings{}, WrapError(ErrCodeDatabase, "failed to load model settings", err)
	}
	normalized, err := NormalizeModelSettings(settings)
	if err != nil {
		c.logger.Warn("stored model settings are invalid; using defaults", "provider", settings.Provider)
		return DefaultModelSettings(), nil
	}
	return normalized, nil
}

// SetModelSettings persists model settings.
func (c *Core) SetModelSettings(settings ModelSettings) (ModelSettings, error) {
	normalized, err := NormalizeModelSettings(settings)
	if err != nil {
		return ModelSettings{}, err
	}
	_, err = c.db.Exec(`
		INSERT INTO ai_settings (id, provider, model, base_url, updated_at)
		VALUES (1, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			provider = excluded.provider,
			model = excluded.model,
			base_url = excluded.base_url,
			updated_at = CURRENT_TIMESTAMP
	`, normalized.Provider, normalized.Model, normalized.BaseURL)
	if err != nil {
		return ModelSettings{}, WrapError(ErrCodeDatabase, "failed to save model settings", err)
	}
	return normalized, nil
}
