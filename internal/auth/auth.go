package auth

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/yolodolo42/mockchat/internal/llm"
)

// Manager resolves provider API keys and builds providers from them
type Manager struct {
	store *Store
}

// NewManager creates a new auth manager
func NewManager(dataDir string) (*Manager, error) {
	store, err := NewStore(dataDir)
	if err != nil {
		return nil, err
	}

	return &Manager{
		store: store,
	}, nil
}

// GetAPIKey returns the API key for a provider using priority resolution:
// 1. Environment variable
// 2. Config file (with env substitution)
// 3. Stored auth.json
func (m *Manager) GetAPIKey(providerID llm.ProviderID) (string, error) {
	if key := llm.KeyFromEnv(providerID); key != "" {
		return key, nil
	}

	if key := configKey(providerID); key != "" {
		return key, nil
	}

	cred, err := m.store.GetCredential(providerID)
	if err == nil && cred.Key != "" {
		return cred.Key, nil
	}

	return "", fmt.Errorf("no API key found for provider: %s", providerID)
}

// SetAPIKey stores an API key for a provider
func (m *Manager) SetAPIKey(providerID llm.ProviderID, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key is empty")
	}
	return m.store.SetCredential(providerID, Credential{Key: key})
}

// RemoveCredential removes stored credentials for a provider
func (m *Manager) RemoveCredential(providerID llm.ProviderID) error {
	return m.store.RemoveCredential(providerID)
}

// HasCredential reports whether any source yields a key for the provider
func (m *Manager) HasCredential(providerID llm.ProviderID) bool {
	_, err := m.GetAPIKey(providerID)
	return err == nil
}

// Source names where the provider's key currently comes from: "env",
// "config", "auth.json" or "" when there is none.
func (m *Manager) Source(providerID llm.ProviderID) string {
	if llm.KeyFromEnv(providerID) != "" {
		return "env"
	}
	if configKey(providerID) != "" {
		return "config"
	}
	if cred, err := m.store.GetCredential(providerID); err == nil && cred.Key != "" {
		return authFileName
	}
	return ""
}

// ListConnected returns all providers with credentials
func (m *Manager) ListConnected() []llm.ProviderID {
	connected := make([]llm.ProviderID, 0)
	for _, id := range llm.AllProviderIDs() {
		if m.HasCredential(id) {
			connected = append(connected, id)
		}
	}
	return connected
}

// GetDefaultProvider returns the default provider ID
func (m *Manager) GetDefaultProvider() llm.ProviderID {
	return m.store.GetDefaultProvider()
}

// SetDefaultProvider sets the default provider
func (m *Manager) SetDefaultProvider(providerID llm.ProviderID) error {
	return m.store.SetDefaultProvider(providerID)
}

// CreateProvider builds the provider for providerID with its resolved key.
func (m *Manager) CreateProvider(ctx context.Context, providerID llm.ProviderID, model string) (llm.Provider, error) {
	key, err := m.GetAPIKey(providerID)
	if err != nil {
		return nil, err
	}
	return llm.NewProvider(ctx, providerID, key, model)
}

// ResolveProvider builds the preferred provider, falling back to the first
// connected one when the preferred provider has no key. An empty preferred
// ID uses the stored default.
func (m *Manager) ResolveProvider(ctx context.Context, preferred llm.ProviderID, model string) (llm.Provider, error) {
	if preferred == "" {
		preferred = m.GetDefaultProvider()
	}

	provider, err := m.CreateProvider(ctx, preferred, model)
	if err == nil {
		return provider, nil
	}

	connected := m.ListConnected()
	if len(connected) == 0 {
		return nil, fmt.Errorf("no LLM providers connected. Run 'mockchat auth connect <provider>' or set %s", llm.EnvVarForProvider(llm.ProviderGemini))
	}

	// The stored default goes first; the rest keep priority order.
	def := m.GetDefaultProvider()
	sort.SliceStable(connected, func(i, j int) bool {
		return connected[i] == def && connected[j] != def
	})

	for _, pid := range connected {
		// The model name belongs to the preferred provider; others use their default.
		provider, err = m.CreateProvider(ctx, pid, "")
		if err == nil {
			return provider, nil
		}
	}
	return nil, fmt.Errorf("failed to initialize any LLM provider: %w", err)
}

func configKey(providerID llm.ProviderID) string {
	key := viper.GetString(fmt.Sprintf("llm.providers.%s.api_key", providerID))
	if key == "" {
		return ""
	}
	return resolveEnvSubstitution(key)
}

var envRefPattern = regexp.MustCompile(`\{env:([^}]+)\}`)

// resolveEnvSubstitution replaces {env:VAR_NAME} with environment variable values
func resolveEnvSubstitution(value string) string {
	if !strings.Contains(value, "{env:") {
		return value
	}

	return envRefPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[len("{env:") : len(match)-1]
		return os.Getenv(varName)
	})
}
