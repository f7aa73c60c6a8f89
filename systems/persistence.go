package systems

import (
	"encoding/json"
	"fmt"

	"github.com/quasilyte/gdata"
)

// SavedSettings is what the viewer remembers between runs.
type SavedSettings struct {
	LastRelay  string `json:"lastRelay"`
	PlayerName string `json:"playerName"`
	Offline    bool   `json:"offline"`
}

const settingsKey = "settings"

// ItemStore is the slice of gdata.Manager the settings need.
type ItemStore interface {
	LoadItem(key string) ([]byte, error)
	SaveItem(key string, data []byte) error
}

// OpenStore opens the per-user data directory for appName.
func OpenStore(appName string) (ItemStore, error) {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil, fmt.Errorf("open persistence: %w", err)
	}
	return m, nil
}

// LoadSettings returns the saved settings, or nil when none were saved yet.
func LoadSettings(store ItemStore) (*SavedSettings, error) {
	if store == nil {
		return nil, nil
	}

	data, err := store.LoadItem(settingsKey)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var settings SavedSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	return &settings, nil
}

func SaveSettings(store ItemStore, s SavedSettings) error {
	if store == nil {
		return nil
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("serialize settings: %w", err)
	}
	if err := store.SaveItem(settingsKey, data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
