package ui

import (
	"context"

	"fyne.io/fyne/v2"
)

// PreferencesStore persists countdown settings in the fyne preferences file.
// It implements engine.Store.
type PreferencesStore struct {
	Prefs fyne.Preferences
}

// NewPreferencesStore wraps prefs.
func NewPreferencesStore(prefs fyne.Preferences) *PreferencesStore {
	return &PreferencesStore{Prefs: prefs}
}

// Get returns the value stored under key. fyne stores strings without a
// presence flag, so an empty string reads as absent.
func (s *PreferencesStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	v := s.Prefs.String(key)
	return v, v != "", nil
}

// Set stores value under key. fyne flushes preferences to disk asynchronously.
func (s *PreferencesStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Prefs.SetString(key, value)
	return nil
}
