package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/yolodolo42/mockchat/internal/llm"
)

const (
	authFileName = "auth.json"
	filePerms    = 0600 // Owner read/write only
)

// Credential is a stored API key for a provider
type Credential struct {
	Key     string    `json:"key"`
	AddedAt time.Time `json:"added_at,omitempty"`
}

// AuthData is the structure of auth.json
type AuthData struct {
	Version         int                           `json:"version"`
	Providers       map[llm.ProviderID]Credential `json:"providers"`
	DefaultProvider llm.ProviderID                `json:"default_provider"`
}

// Store keeps provider credentials in auth.json under the data directory
type Store struct {
	mu       sync.RWMutex
	filePath string
	data     *AuthData
}

// NewStore opens the credential store in dataDir, creating the directory
// when needed. A missing auth.json is not an error.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store := &Store{
		filePath: filepath.Join(dataDir, authFileName),
		data: &AuthData{
			Version:         1,
			Providers:       make(map[llm.ProviderID]Credential),
			DefaultProvider: llm.ProviderGemini,
		},
	}

	if err := store.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load auth data: %w", err)
	}

	return store, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var authData AuthData
	if err := json.Unmarshal(data, &authData); err != nil {
		return fmt.Errorf("failed to parse auth file: %w", err)
	}

	// Providers is never nil, even for a hand-edited file.
	if authData.Providers == nil {
		authData.Providers = make(map[llm.ProviderID]Credential)
	}

	s.data = &authData
	return nil
}

// save writes auth.json through a temp file in the same directory and a
// rename. Callers hold s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal auth data: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), authFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(filePerms); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write auth file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write auth file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write auth file: %w", err)
	}

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save auth file: %w", err)
	}
	return nil
}

// GetCredential returns the credential for a provider
func (s *Store) GetCredential(providerID llm.ProviderID) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.data.Providers[providerID]
	if !ok {
		return Credential{}, fmt.Errorf("no credential found for provider: %s", providerID)
	}
	return cred, nil
}

// SetCredential stores a credential for a provider
func (s *Store) SetCredential(providerID llm.ProviderID, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cred.AddedAt.IsZero() {
		cred.AddedAt = time.Now().UTC()
	}
	s.data.Providers[providerID] = cred
	return s.save()
}

// RemoveCredential removes credentials for a provider
func (s *Store) RemoveCredential(providerID llm.ProviderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data.Providers, providerID)
	return s.save()
}

// GetDefaultProvider returns the default provider ID
func (s *Store) GetDefaultProvider() llm.ProviderID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data.DefaultProvider == "" {
		return llm.ProviderGemini
	}
	return s.data.DefaultProvider
}

// SetDefaultProvider sets the default provider
func (s *Store) SetDefaultProvider(providerID llm.ProviderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.DefaultProvider = providerID
	return s.save()
}

// ListProviders returns the providers with stored credentials, sorted by ID
func (s *Store) ListProviders() []llm.ProviderID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]llm.ProviderID, 0, len(s.data.Providers))
	for id := range s.data.Providers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
