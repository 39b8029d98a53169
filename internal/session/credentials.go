package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

// Credentials is what survives between CLI invocations: the bearer token and the
// profile it was issued for.
type Credentials struct {
	Token   string               `json:"token"`
	Profile smartrecruit.Profile `json:"profile"`
	SavedAt time.Time            `json:"savedAt"`
}

// TokenFile persists Credentials as JSON with owner-only permissions.
type TokenFile struct {
	Path string
}

// Load returns nil credentials and no error when the file does not exist yet.
func (f *TokenFile) Load() (*Credentials, error) {
	if f == nil || f.Path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", f.Path, err)
	}
	if creds.Token == "" {
		return nil, nil
	}
	return &creds, nil
}

func (f *TokenFile) Save(creds Credentials) error {
	if f == nil || f.Path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	if creds.SavedAt.IsZero() {
		creds.SavedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o600)
}

func (f *TokenFile) Clear() error {
	if f == nil || f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
