// Package settings persists user-managed secrets to a local file.
package settings

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SecretsStore holds provider API keys and the storage service key.
//
// It is intentionally separate from config.json: the config holds routable,
// shareable settings; secrets.json holds user-provided credentials. Secrets
// must never be surfaced back to callers beyond derived status fields such as
// "api_key_set".
type SecretsStore struct {
	path string
	mu   sync.Mutex
}

func NewSecretsStore(path string) *SecretsStore {
	return &SecretsStore{path: filepath.Clean(strings.TrimSpace(path))}
}

func (s *SecretsStore) Path() string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s.path)
}

type secretsFile struct {
	SchemaVersion int        `json:"schema_version"`
	AI            *aiSecrets `json:"ai,omitempty"`

	// StorageServiceKey authenticates signed-URL generation against the
	// storage provider.
	StorageServiceKey string `json:"storage_service_key,omitempty"`
}

type aiSecrets struct {
	ProviderAPIKeys map[string]string `json:"provider_api_keys,omitempty"`
}

func (s *SecretsStore) GetAIProviderAPIKey(providerID string) (string, bool, error) {
	if s == nil {
		return "", false, errors.New("nil secrets store")
	}
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return "", false, errors.New("missing provider id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.loadLocked()
	if err != nil {
		return "", false, err
	}
	if sf == nil || sf.AI == nil || len(sf.AI.ProviderAPIKeys) == 0 {
		return "", false, nil
	}
	v := strings.TrimSpace(sf.AI.ProviderAPIKeys[providerID])
	if v == "" {
		return "", false, nil
	}
	return v, true, nil
}

func (s *SecretsStore) SetAIProviderAPIKey(providerID, apiKey string) error {
	if s == nil {
		return errors.New("nil secrets store")
	}
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return errors.New("missing provider id")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("missing api key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.loadLocked()
	if err != nil {
		return err
	}
	if sf == nil {
		sf = &secretsFile{SchemaVersion: 1}
	}
	if sf.SchemaVersion == 0 {
		sf.SchemaVersion = 1
	}
	if sf.AI == nil {
		sf.AI = &aiSecrets{}
	}
	if sf.AI.ProviderAPIKeys == nil {
		sf.AI.ProviderAPIKeys = make(map[string]string)
	}
	sf.AI.ProviderAPIKeys[providerID] = apiKey
	return s.saveLocked(sf)
}

func (s *SecretsStore) GetStorageServiceKey() (string, bool, error) {
	if s == nil {
		return "", false, errors.New("nil secrets store")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.loadLocked()
	if err != nil {
		return "", false, err
	}
	if sf == nil {
		return "", false, nil
	}
	v := strings.TrimSpace(sf.StorageServiceKey)
	return v, v != "", nil
}

func (s *SecretsStore) SetStorageServiceKey(key string) error {
	if s == nil {
		return errors.New("nil secrets store")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("missing storage service key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.loadLocked()
	if err != nil {
		return err
	}
	if sf == nil {
		sf = &secretsFile{SchemaVersion: 1}
	}
	if sf.SchemaVersion == 0 {
		sf.SchemaVersion = 1
	}
	sf.StorageServiceKey = key
	return s.saveLocked(sf)
}

func (s *SecretsStore) loadLocked() (*secretsFile, error) {
	path := strings.TrimSpace(s.path)
	if path == "" {
		return nil, errors.New("missing secrets path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var sf secretsFile
	if err := json.Unmarshal(b, &sf); err != nil {
		return nil, err
	}
	return &sf, nil
}

func (s *SecretsStore) saveLocked(sf *secretsFile) error {
	path := strings.TrimSpace(s.path)
	if path == "" {
		return errors.New("missing secrets path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
