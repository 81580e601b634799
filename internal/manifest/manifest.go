package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFile is the engine layout file expected in the working directory.
	ConfigFile = "config.yml"
	// HashFile is the file the engine writes once export finishes.
	HashFile = "torch.hash.yml"
)

// RomEntry describes how the engine should process one ROM release.
type RomEntry struct {
	Name   string         `yaml:"name"`
	Path   string         `yaml:"path"`
	Config map[string]any `yaml:"config"`
}

// Config is the parsed config.yml keyed by lowercase ROM digest.
type Config struct {
	Entries map[string]RomEntry
}

// Lookup returns the entry for digest.
func (c *Config) Lookup(digest string) (RomEntry, bool) {
	if c == nil {
		return RomEntry{}, false
	}
	entry, ok := c.Entries[strings.ToLower(strings.TrimSpace(digest))]
	return entry, ok
}

// Digests returns the configured digests in sorted order.
func (c *Config) Digests() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Entries))
	for digest := range c.Entries {
		out = append(out, digest)
	}
	sort.Strings(out)
	return out
}

// LoadConfig parses config.yml from dir.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig decodes config.yml content. Top-level keys that do not decode
// as ROM entries are skipped; the engine tolerates extra keys as well.
func ParseConfig(data []byte) (*Config, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFile, err)
	}
	cfg := &Config{Entries: make(map[string]RomEntry, len(raw))}
	for key, node := range raw {
		if node.Kind != yaml.MappingNode {
			continue
		}
		var entry RomEntry
		if err := node.Decode(&entry); err != nil {
			continue
		}
		cfg.Entries[strings.ToLower(strings.TrimSpace(key))] = entry
	}
	return cfg, nil
}

// HashManifest is the parsed torch.hash.yml.
type HashManifest struct {
	Path    string
	Entries map[string]any
}

// Len returns the number of top-level entries.
func (h *HashManifest) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Entries)
}

// LoadHashManifest reads name (normally HashFile) from dir.
func LoadHashManifest(dir, name string) (*HashManifest, error) {
	if strings.TrimSpace(name) == "" {
		name = HashFile
	}
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	manifest := &HashManifest{Path: path}
	if err := yaml.Unmarshal(data, &manifest.Entries); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if manifest.Entries == nil {
		manifest.Entries = map[string]any{}
	}
	return manifest, nil
}
