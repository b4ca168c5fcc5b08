package llm

import (
	"errors"
	"fmt"

	"github.com/foliolab/folio-engine/internal/config"
	"github.com/foliolab/folio-engine/internal/settings"
)

// NewFromConfig builds the client for the configured default model, reading
// the provider API key from the secrets store.
func NewFromConfig(cfg *config.AIConfig, secrets *settings.SecretsStore) (Client, string, error) {
	if cfg == nil {
		return nil, "", errors.New("nil ai config")
	}
	providerID, model, ok := cfg.DefaultModel()
	if !ok {
		return nil, "", errors.New("no default model configured")
	}
	provider, ok := cfg.ProviderByID(providerID)
	if !ok {
		return nil, "", fmt.Errorf("default model references unknown provider %q", providerID)
	}
	apiKey, ok, err := secrets.GetAIProviderAPIKey(providerID)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", fmt.Errorf("no api key stored for provider %q", providerID)
	}
	client, err := New(provider.Type, apiKey, provider.BaseURL)
	if err != nil {
		return nil, "", err
	}
	return client, model, nil
}
