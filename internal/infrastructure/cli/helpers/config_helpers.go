package helpers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/snapask/internal/domain"
	configinfra "github.com/doeshing/snapask/internal/infrastructure/config"
)

// SaveSettingsWithBackup keeps a .bak of the current file, then saves.
// FileStore.Save validates before writing.
func SaveSettingsWithBackup(ctx context.Context, store *configinfra.FileStore, settings domain.Settings) error {
	if _, err := os.Stat(store.Path()); err == nil {
		if _, err := store.Backup(); err != nil {
			return fmt.Errorf("failed to create settings backup: %w", err)
		}
	}
	if err := store.Save(ctx, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// SettingsToMap converts settings into a generic map keyed by YAML names.
func SettingsToMap(settings domain.Settings) (map[string]interface{}, error) {
	raw, err := yaml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	out := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal to map: %w", err)
	}
	return out, nil
}

// MapToSettings is the inverse of SettingsToMap.
func MapToSettings(m map[string]interface{}) (domain.Settings, error) {
	raw, err := yaml.Marshal(m)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to marshal updated map: %w", err)
	}
	var settings domain.Settings
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return settings, nil
}

// ParseYAMLValue parses a string value as YAML, falling back to literal string
func ParseYAMLValue(input string) (interface{}, error) {
	var parsed interface{}
	if err := yaml.Unmarshal([]byte(input), &parsed); err != nil {
		return input, nil
	}
	return parsed, nil
}

// SetNestedMapValue sets a value in a nested map using a key path
func SetNestedMapValue(root map[string]interface{}, keyPath []string, value interface{}) bool {
	if len(keyPath) == 0 {
		return false
	}

	current := root
	for _, key := range keyPath[:len(keyPath)-1] {
		child, isMap := current[key].(map[string]interface{})
		if !isMap {
			child = map[string]interface{}{}
			current[key] = child
		}
		current = child
	}

	current[keyPath[len(keyPath)-1]] = value
	return true
}

// TraverseNestedMap retrieves a value from a nested map using a key path
func TraverseNestedMap(data interface{}, keyPath []string) (interface{}, bool) {
	if len(keyPath) == 0 {
		return data, true
	}
	node, ok := data.(map[string]interface{})
	if !ok {
		return nil, false
	}
	next, exists := node[keyPath[0]]
	if !exists {
		return nil, false
	}
	return TraverseNestedMap(next, keyPath[1:])
}

// MaskAPIKey keeps the first and last four characters of a key.
func MaskAPIKey(key string) string {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return strings.Repeat("*", len(key))
	default:
		return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
	}
}

// SplitAndTrimCSV splits a comma-separated string and trims whitespace
func SplitAndTrimCSV(input string) []string {
	var result []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
