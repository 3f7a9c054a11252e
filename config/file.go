package config

import (
	goerrors "errors"
	"io/fs"
	"os"

	"github.com/gruntwork-io/go-commons/errors"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file over the defaults. A missing file is not an
// error and yields the defaults.
func Load(path string) (*PlayerConfig, error) {
	cfg := NewPlayerConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if goerrors.Is(err, fs.ErrNotExist) {
		cfg.Logger.WithField("path", path).Debug("Config file not found, using defaults")
		return cfg, nil
	}
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WithStackTrace(err)
	}
	cfg.Normalize()

	if err := ValidatePatch(cfg.DMX.Fixtures, cfg.FixtureProfiles); err != nil {
		return nil, errors.WithStackTrace(err)
	}

	return cfg, nil
}

// SaveMode writes the timing mode into the settings section of the file at
// path, creating the file when needed. Other content is preserved.
func SaveMode(path string, mode Mode) error {
	var doc yaml.Node

	data, err := os.ReadFile(path)
	if err != nil && !goerrors.Is(err, fs.ErrNotExist) {
		return errors.WithStackTrace(err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return errors.WithStackTrace(err)
		}
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}

	settings := mappingEntry(doc.Content[0], "settings")
	if settings.Kind != yaml.MappingNode {
		*settings = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	value := mappingEntry(settings, "mode")
	*value = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(mode)}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return errors.WithStackTrace(err)
	}

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.WithStackTrace(err)
	}

	return nil
}

// mappingEntry returns the value node stored under key, appending an empty
// one when the key is absent.
func mappingEntry(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}

	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	v := &yaml.Node{}
	m.Content = append(m.Content, k, v)

	return v
}
