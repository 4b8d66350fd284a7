// Package config loads and saves the viewer settings file.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"comicflux/internal/archive"
)

// Window size constants
const (
	DefaultWidth  = 800
	DefaultHeight = 600
	MinWidth      = 400
	MinHeight     = 300
)

// DefaultMargin is subtracted from each viewport axis to get the area a page
// may occupy.
const DefaultMargin = 100

const (
	defaultCacheSize  = 0
	maxCacheSize      = 64
	defaultScrollStep = 60
	maxScrollStep     = 1000
	maxMargin         = 500
)

// LoadResult contains the result of loading configuration
type LoadResult struct {
	Config   Config
	HasError bool
	Warnings []string
	Status   string // "OK", "Default", "Warning", "Error"
}

type Config struct {
	WindowWidth  int                 `json:"window_width"`
	WindowHeight int                 `json:"window_height"`
	Fullscreen   bool                `json:"fullscreen"`
	Margin       int                 `json:"margin"`
	SortMethod   int                 `json:"sort_method"`
	SupportsRar  bool                `json:"supports_rar"`
	ImagesOnly   bool                `json:"images_only"`
	CacheSize    int                 `json:"cache_size"`
	ScrollStep   int                 `json:"scroll_step"`
	Keybindings  map[string][]string `json:"keybindings"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		WindowWidth:  DefaultWidth,
		WindowHeight: DefaultHeight,
		Fullscreen:   false,
		Margin:       DefaultMargin,
		SortMethod:   archive.SortNatural,
		SupportsRar:  true,
		ImagesOnly:   false,
		CacheSize:    defaultCacheSize, // decode every page on access
		ScrollStep:   defaultScrollStep,
		Keybindings:  GetDefaultKeybindings(),
	}
}

// ArchiveOptions converts the settings into options for archive.Open on the
// OS filesystem.
func (c Config) ArchiveOptions() archive.Options {
	return archive.Options{
		Fs:          afero.NewOsFs(),
		SupportsRar: c.SupportsRar,
		ImagesOnly:  c.ImagesOnly,
		SortMethod:  c.SortMethod,
	}
}

// Path returns the default settings file location
func Path() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "comicflux.json"
	}
	return filepath.Join(homeDir, ".comicflux.json")
}

// LoadFromPath reads settings from configPath. A missing file yields the
// defaults; an unreadable one yields the defaults plus a warning.
func LoadFromPath(configPath string) LoadResult {
	config := Default()

	result := LoadResult{
		Config:   config,
		HasError: false,
		Warnings: []string{},
		Status:   "OK",
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		// Config file not found is not an error - use defaults
		result.Status = "Default"
		return result
	}

	if err := json.Unmarshal(data, &config); err != nil {
		log.Printf("Warning: Invalid config file %s, using defaults: %v", configPath, err)
		result.HasError = true
		result.Status = "Error"
		result.Warnings = append(result.Warnings, fmt.Sprintf("Invalid config file: %v", err))
		return result
	}

	if config.WindowWidth < MinWidth {
		config.WindowWidth = DefaultWidth
	}
	if config.WindowHeight < MinHeight {
		config.WindowHeight = DefaultHeight
	}

	if config.Margin < 0 || config.Margin > maxMargin {
		config.Margin = DefaultMargin
	}

	if config.SortMethod < archive.SortNatural || config.SortMethod > archive.SortEntryOrder {
		config.SortMethod = archive.SortNatural
	}

	// Validate cache size (0 disables the cache, maximum 64)
	if config.CacheSize < 0 {
		config.CacheSize = defaultCacheSize
	} else if config.CacheSize > maxCacheSize {
		config.CacheSize = maxCacheSize
	}

	if config.ScrollStep < 1 || config.ScrollStep > maxScrollStep {
		config.ScrollStep = defaultScrollStep
	}

	if config.Keybindings == nil {
		config.Keybindings = GetDefaultKeybindings()
	} else {
		// Fill in missing keybindings with defaults
		defaults := GetDefaultKeybindings()
		for action, defaultKeys := range defaults {
			if _, exists := config.Keybindings[action]; !exists {
				config.Keybindings[action] = defaultKeys
			}
		}

		if err := ValidateKeybindings(config.Keybindings); err != nil {
			log.Printf("Warning: Invalid keybindings detected, using defaults: %v", err)
			config.Keybindings = GetDefaultKeybindings()
			result.Status = "Warning"
			result.Warnings = append(result.Warnings, fmt.Sprintf("Keybinding errors: %v", err))
		}
	}

	result.Config = config
	return result
}

// SaveToPath writes config as indented JSON. Configs with a window smaller
// than the minimum are not written.
func SaveToPath(config Config, configPath string) {
	if config.WindowWidth < MinWidth || config.WindowHeight < MinHeight {
		log.Printf("Warning: Not saving config with invalid window size: %dx%d",
			config.WindowWidth, config.WindowHeight)
		return
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		log.Printf("Error: Failed to marshal config: %v", err)
		return
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		log.Printf("Error: Failed to save config to %s: %v", configPath, err)
	}
}

// GetSortMethodName returns the human-readable name of a sort method
func GetSortMethodName(sortMethod int) string {
	return archive.GetSortStrategy(sortMethod).Name()
}

// ValidateKeybindings checks key names and rejects a key bound to two actions
func ValidateKeybindings(keybindings map[string][]string) error {
	keyToAction := make(map[string]string)
	validKeys := ValidKeyNames()
	known := GetActionDescriptions()

	for action, keys := range keybindings {
		if _, ok := known[action]; !ok {
			return fmt.Errorf("unknown action '%s'", action)
		}
		for _, keyStr := range keys {
			if err := validateKeyString(keyStr, validKeys); err != nil {
				return fmt.Errorf("invalid key '%s' for action '%s': %v", keyStr, action, err)
			}

			if existingAction, exists := keyToAction[keyStr]; exists {
				return fmt.Errorf("key conflict: '%s' is bound to both '%s' and '%s'", keyStr, existingAction, action)
			}
			keyToAction[keyStr] = action
		}
	}

	return nil
}

// validateKeyString validates a single key string format
func validateKeyString(keyStr string, validKeys map[string]bool) error {
	if keyStr == "" {
		return fmt.Errorf("empty key string")
	}
	parts := strings.Split(keyStr, "+")

	// Last part should be the actual key
	keyName := parts[len(parts)-1]
	if !validKeys[keyName] {
		return fmt.Errorf("unknown key: %s", keyName)
	}

	for i := 0; i < len(parts)-1; i++ {
		modifier := strings.ToLower(parts[i])
		if modifier != "shift" && modifier != "ctrl" && modifier != "alt" {
			return fmt.Errorf("unknown modifier: %s", parts[i])
		}
	}

	return nil
}

// ValidKeyNames returns the set of key names accepted in keybindings
func ValidKeyNames() map[string]bool {
	keys := map[string]bool{
		"Space": true, "Backspace": true, "Enter": true, "Escape": true,
		"Tab": true, "Home": true, "End": true, "PageUp": true, "PageDown": true,
		"ArrowUp": true, "ArrowDown": true, "ArrowLeft": true, "ArrowRight": true,

		"Comma": true, "Period": true, "Slash": true, "Semicolon": true,
		"Quote": true, "Minus": true, "Equal": true,

		"NumpadEnter": true,
	}
	for c := 'A'; c <= 'Z'; c++ {
		keys["Key"+string(c)] = true
	}
	for c := '0'; c <= '9'; c++ {
		keys["Key"+string(c)] = true
		keys["Numpad"+string(c)] = true
	}
	return keys
}
