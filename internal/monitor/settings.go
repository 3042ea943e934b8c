package monitor

import (
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// UISettings holds dashboard settings kept between watch sessions.
type UISettings struct {
	HideIgnored bool     `yaml:"hide_ignored"`
	Ignored     []string `yaml:"ignored,omitempty"`
}

const uiSettingsFile = "watch-settings.yaml"

// DefaultUISettings returns the default UI settings.
func DefaultUISettings() *UISettings {
	return &UISettings{}
}

// LoadUISettings loads UI settings from the state directory.
// Falls back to defaults if the file is missing or unreadable.
func LoadUISettings(stateDir string) *UISettings {
	settings := DefaultUISettings()
	if stateDir == "" {
		return settings
	}

	data, err := os.ReadFile(filepath.Join(stateDir, uiSettingsFile))
	if err != nil {
		return settings
	}

	var loaded UISettings
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return settings
	}

	settings.HideIgnored = loaded.HideIgnored
	for _, name := range loaded.Ignored {
		if name != "" && !slices.Contains(settings.Ignored, name) {
			settings.Ignored = append(settings.Ignored, name)
		}
	}
	return settings
}

// SaveUISettings saves UI settings to the state directory.
func SaveUISettings(stateDir string, settings *UISettings) error {
	if stateDir == "" {
		return nil
	}

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(stateDir, uiSettingsFile), data, 0644)
}
