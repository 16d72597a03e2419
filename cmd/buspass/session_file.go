package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/noah-isme/buspass-portal/internal/models"
)

// storedSession mirrors models.Principal including the credential, which the
// model keeps out of JSON.
type storedSession struct {
	ID         models.ID       `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Role       models.UserRole `json:"role"`
	Credential string          `json:"credential"`
}

// sessionFile persists the signed-in principal between invocations.
type sessionFile struct {
	path string
}

func defaultSessionFile() (*sessionFile, error) {
	if path := os.Getenv("BUSPASS_SESSION_FILE"); path != "" {
		return &sessionFile{path: path}, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	return &sessionFile{path: filepath.Join(dir, "buspass", "session.json")}, nil
}

func (s *sessionFile) Save(p models.Principal) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(storedSession{ID: p.ID, Name: p.Name, Email: p.Email, Role: p.Role, Credential: p.Credential})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o600)
}

// Load returns nil when nobody is signed in.
func (s *sessionFile) Load() (*models.Principal, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("session file %s is corrupt, run: buspass login", s.path)
	}
	p := &models.Principal{ID: stored.ID, Name: stored.Name, Email: stored.Email, Role: stored.Role, Credential: strings.TrimSpace(stored.Credential)}
	if !p.Authenticated() {
		return nil, nil
	}
	return p, nil
}

func (s *sessionFile) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
