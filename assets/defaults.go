package assets

import (
	_ "embed"
)

// DefaultSettingsYAML contains the embedded default settings file.
//
//go:embed defaults/settings.yaml
var DefaultSettingsYAML []byte
