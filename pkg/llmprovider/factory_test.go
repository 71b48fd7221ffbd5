package llmprovider

import (
	"errors"
	"testing"

	"talk-support/config"
)

func TestInitializeProviders(t *testing.T) {
	t.Run("sorted by priority with disabled filtered out", func(t *testing.T) {
		providers, err := InitializeProviders(&config.LLMConfig{
			Providers: []config.ProviderConfig{
				{Name: "sakura", Enabled: true, Priority: 2, APIKey: "key-b", Model: "sakura-llm"},
				{Name: "openai", Enabled: true, Priority: 1, APIKey: "key-a"},
				{Name: "openai", Enabled: false, Priority: 0, APIKey: "key-c"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(providers) != 2 {
			t.Fatalf("expected 2 providers, got %d", len(providers))
		}
		if providers[0].Name() != "openai" || providers[1].Name() != "sakura" {
			t.Errorf("unexpected order: %s, %s", providers[0].Name(), providers[1].Name())
		}
	})

	t.Run("no enabled providers", func(t *testing.T) {
		_, err := InitializeProviders(&config.LLMConfig{
			Providers: []config.ProviderConfig{
				{Name: "openai", Enabled: false, APIKey: "key"},
			},
		})
		if !errors.Is(err, ErrNoProvidersConfigured) {
			t.Errorf("expected ErrNoProvidersConfigured, got %v", err)
		}
	})

	t.Run("missing api key skips the provider", func(t *testing.T) {
		_, err := InitializeProviders(&config.LLMConfig{
			Providers: []config.ProviderConfig{
				{Name: "openai", Enabled: true, APIKey: ""},
			},
		})
		if err == nil {
			t.Fatal("expected error when nothing initializes")
		}
	})

	t.Run("unknown provider name", func(t *testing.T) {
		_, err := createProvider(config.ProviderConfig{Name: "mystery", APIKey: "key"})
		if err == nil {
			t.Fatal("expected error for unknown provider")
		}
	})
}
