package auth

import (
	"encoding/json"
	"fmt"
	"os"
)

// Store persists token state between runs
type Store interface {
	// Load returns the stored state and whether any state existed
	Load() (TokenState, bool, error)
	Save(TokenState) error
}

// FileStore keeps the token state in a JSON file
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed token store
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the token state from disk. A missing file is not an error.
func (s *FileStore) Load() (TokenState, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return TokenState{}, false, nil
		}
		return TokenState{}, false, fmt.Errorf("failed to read token file: %w", err)
	}

	var state TokenState
	if err := json.Unmarshal(data, &state); err != nil {
		return TokenState{}, false, fmt.Errorf("failed to parse token file: %w", err)
	}

	return state, true, nil
}

// Save writes the token state to disk, overwriting any previous state
func (s *FileStore) Save(state TokenState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token state: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}
