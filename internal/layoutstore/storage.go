// Package layoutstore persists named layout snapshots as JSON files under
// the user's config directory.
package layoutstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/1broseidon/proptile/internal/grid"
)

// SavedLayout is the on-disk envelope around a layout snapshot.
type SavedLayout struct {
	Name    string        `json:"name"`
	Monitor string        `json:"monitor,omitempty"`
	SavedAt time.Time     `json:"saved_at"`
	Layout  grid.Snapshot `json:"layout"`
}

// Store reads and writes saved layouts in one directory. The zero value is
// not usable; construct with Default or Open.
type Store struct {
	dir string
}

// Default opens the store at ~/.config/proptile/layouts.
func Default() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return Open(filepath.Join(homeDir, ".config", "proptile", "layouts")), nil
}

// Open returns a store rooted at dir. The directory is created lazily on
// the first save.
func Open(dir string) *Store {
	return &Store{dir: dir}
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("layout name is required")
	}
	if name != filepath.Base(name) || name == "." || name == ".." || strings.Contains(name, "..") {
		return fmt.Errorf("invalid layout name %q", name)
	}
	return nil
}

func (s *Store) path(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// Save writes a layout snapshot under the given name, overwriting any
// previous layout with that name.
func (s *Store) Save(name, monitor string, snap grid.Snapshot) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create layout directory: %w", err)
	}

	saved := SavedLayout{
		Name:    name,
		Monitor: monitor,
		SavedAt: time.Now().UTC(),
		Layout:  snap,
	}
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode layout: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write layout %q: %w", name, err)
	}
	return nil
}

// Load reads a saved layout by name.
func (s *Store) Load(name string) (*SavedLayout, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout %q: %w", name, err)
	}
	var saved SavedLayout
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("failed to parse layout %q: %w", name, err)
	}
	if saved.Name == "" {
		saved.Name = name
	}
	return &saved, nil
}

// Delete removes a saved layout.
func (s *Store) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete layout %q: %w", name, err)
	}
	return nil
}

// List returns all saved layout names, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read layout directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
