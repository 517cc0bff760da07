package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// config holds conversion defaults. Values come from the optional YAML
// file and are overridden by flags given on the command line.
type config struct {
	Format       string `yaml:"format"`
	Encoding     string `yaml:"encoding"`
	LiteralNames bool   `yaml:"literal_names"`
	Strict       bool   `yaml:"strict"`
	Compress     string `yaml:"compress"`
}

func defaultConfig() config {
	return config{Format: "xml"}
}

func loadConfig(path string, c *config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
