package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ResourceOverride adjusts how one resource is reached upstream.
type ResourceOverride struct {
	Path     string   `yaml:"path"`
	Key      string   `yaml:"key"`
	ItemKey  string   `yaml:"item_key"`
	IDParam  string   `yaml:"id_param"`
	Table    string   `yaml:"table"`
	Roles    []string `yaml:"roles"`
	Disabled bool     `yaml:"disabled"`
}

type resourcesFile struct {
	Resources map[string]ResourceOverride `yaml:"resources"`
}

// LoadResourceOverrides reads the optional YAML override file. An empty
// path yields no overrides.
func LoadResourceOverrides(path string) (map[string]ResourceOverride, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return map[string]ResourceOverride{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resources file: %w", err)
	}
	return ParseResourceOverrides(raw)
}

func ParseResourceOverrides(raw []byte) (map[string]ResourceOverride, error) {
	var file resourcesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse resources file: %w", err)
	}
	out := make(map[string]ResourceOverride, len(file.Resources))
	for name, o := range file.Resources {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		o.Path = strings.Trim(strings.TrimSpace(o.Path), "/")
		out[name] = o
	}
	return out, nil
}
