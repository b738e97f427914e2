package settings

import (
	"fmt"

	"github.com/mrz1836/marksafe/internal/kvstore"
)

// Repository loads and saves the single settings record.
type Repository struct {
	store kvstore.Store
}

// NewRepository creates a repository over store.
func NewRepository(store kvstore.Store) *Repository {
	return &Repository{store: store}
}

// Load returns the stored settings. On first run the defaults are written and returned.
// Fields missing from an older record keep their default values.
func (r *Repository) Load() (Settings, error) {
	s := Defaults()
	found, err := r.store.Get(Key, &s)
	if err != nil {
		return Settings{}, fmt.Errorf("loading settings: %w", err)
	}
	if !found {
		if err := r.store.Set(Key, s); err != nil {
			return Settings{}, fmt.Errorf("saving default settings: %w", err)
		}
	}
	return s, nil
}

// Save validates s and replaces the stored record.
func (r *Repository) Save(s Settings) (Settings, error) {
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	if err := r.store.Set(Key, s); err != nil {
		return Settings{}, fmt.Errorf("saving settings: %w", err)
	}
	return s, nil
}

// Reset restores the defaults. The last backup time is history, not a
// setting, so it survives.
func (r *Repository) Reset() (Settings, error) {
	s := Defaults()
	var current Settings
	if found, err := r.store.Get(Key, &current); err == nil && found {
		s.LastBackup = current.LastBackup
	}
	if err := r.store.Set(Key, s); err != nil {
		return Settings{}, fmt.Errorf("resetting settings: %w", err)
	}
	return s, nil
}
