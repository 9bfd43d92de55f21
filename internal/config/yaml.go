package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAMLConfig reads a configuration file on its own, without viper's
// environment layering. Environment variables referenced as ${VAR_NAME} in
// the file are expanded before parsing. Unset fields keep their defaults.
func LoadYAMLConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// MarshalYAML renders cfg as YAML.
func MarshalYAML(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// WriteDefaultConfig writes the default configuration to a YAML file. The
// file is created with owner-only permissions since it will hold secrets.
func WriteDefaultConfig(path string) error {
	cfg := Default()
	cfg.Upstream.Driver = "static"
	cfg.Upstream.DSN = "./forms.yaml"

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
