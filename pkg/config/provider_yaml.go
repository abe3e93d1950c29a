package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	readOnly bool
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string, readOnly bool) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
		readOnly: readOnly,
	}
}

// LoadConfig loads the complete configuration from the YAML file. Keys missing
// from the file keep their defaults, and a missing file yields the defaults.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	config := Defaults()

	cfgFile, err := os.ReadFile(y.filename)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(cfgFile, config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", y.filename, err)
	}

	return config, nil
}

// SaveConfig writes the configuration next to the target file and renames it
// into place, so a crash never leaves a truncated file behind
func (y *YAMLProvider) SaveConfig(config *ConfigData) error {
	if y.readOnly {
		return ErrReadOnly
	}

	out, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(y.filename), "."+filepath.Base(y.filename)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	return os.Rename(tmp.Name(), y.filename)
}

// IsReadOnly reports whether SaveConfig is refused
func (y *YAMLProvider) IsReadOnly() bool {
	return y.readOnly
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
