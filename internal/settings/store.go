package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	aqm "github.com/appetiteclub/apt"

	"github.com/oscartejera/josephine-kds/internal/kds"
)

// FileStore persists per-station operator settings as plain JSON files
// under a local directory. Alert and sound settings live in separate
// files because different components own them. There is no versioning:
// a missing or malformed file yields the compiled-in defaults.
type FileStore struct {
	dir       string
	stationID string
	logger    aqm.Logger
}

func NewFileStore(dir, stationID string, logger aqm.Logger) *FileStore {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if dir == "" {
		dir = "./station-settings"
	}
	return &FileStore{
		dir:       dir,
		stationID: stationID,
		logger:    logger,
	}
}

func (s *FileStore) alertPath() string {
	return filepath.Join(s.dir, s.stationID+"_alert_settings.json")
}

func (s *FileStore) soundPath() string {
	return filepath.Join(s.dir, s.stationID+"_sound_settings.json")
}

func (s *FileStore) LoadAlertSettings() kds.AlertSettings {
	settings := kds.DefaultAlertSettings()

	data, err := os.ReadFile(s.alertPath())
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Errorf("Cannot read alert settings, using defaults: %v", err)
		}
		return settings
	}

	// Unmarshal over the defaults so a partial file keeps the missing
	// destinations at their compiled-in values.
	if err := json.Unmarshal(data, &settings); err != nil {
		s.logger.Errorf("Malformed alert settings file, using defaults: %v", err)
		return kds.DefaultAlertSettings()
	}

	return settings
}

func (s *FileStore) SaveAlertSettings(settings kds.AlertSettings) error {
	return s.write(s.alertPath(), settings)
}

func (s *FileStore) LoadSoundSettings() kds.SoundSettings {
	settings := kds.DefaultSoundSettings()

	data, err := os.ReadFile(s.soundPath())
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Errorf("Cannot read sound settings, using defaults: %v", err)
		}
		return settings
	}

	stored := make(kds.SoundSettings)
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logger.Errorf("Malformed sound settings file, using defaults: %v", err)
		return settings
	}

	for category, cfg := range stored {
		settings[category] = cfg
	}
	return settings
}

func (s *FileStore) SaveSoundSettings(settings kds.SoundSettings) error {
	return s.write(s.soundPath(), settings)
}

func (s *FileStore) write(path string, v interface{}) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	return nil
}
