// Package config loads fixturegen settings from .fixturegen.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// FileName is the conventional configuration file name.
const FileName = ".fixturegen.yaml"

const (
	DefaultNamespace      = "Twizzar.Fixture"
	DefaultBuilder        = "ItemBuilder"
	DefaultPathProvider   = "PathProvider"
	DefaultProviderSuffix = "Path"
	DefaultOutput         = "obj/fixturegen"
	DefaultCachePath      = "obj/fixturegen/.cache"
	DefaultMaxFileSize    = 1_000_000 // 1 MB
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// API describes the builder API recognized in source.
type API struct {
	// Namespace declares the builder, the path provider base and the
	// configuration methods.
	Namespace string `yaml:"namespace"`
	// Builder is the simple name of the generic builder base type.
	Builder string `yaml:"builder"`
	// PathProvider is the simple name of the generic path provider base.
	PathProvider string `yaml:"pathProvider"`
	// ProviderSuffix is appended to the fixture type name to form default
	// provider names.
	ProviderSuffix string `yaml:"providerSuffix"`
}

// Cache configures the incremental generation cache.
type Cache struct {
	Path string `yaml:"path"`
	// Unscoped compares every member of a fixture type instead of only the
	// members reachable through its path tree.
	Unscoped bool `yaml:"unscoped"`
}

// Config is the complete fixturegen configuration.
type Config struct {
	API         API      `yaml:"api"`
	Output      string   `yaml:"output"`
	Cache       Cache    `yaml:"cache"`
	Jobs        int      `yaml:"jobs"`
	MaxFileSize int      `yaml:"maxFileSize"`
	Exclude     []string `yaml:"exclude"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API:         DefaultAPI(),
		Output:      DefaultOutput,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// DefaultAPI returns the Twizzar fixture API names.
func DefaultAPI() API {
	return API{
		Namespace:      DefaultNamespace,
		Builder:        DefaultBuilder,
		PathProvider:   DefaultPathProvider,
		ProviderSuffix: DefaultProviderSuffix,
	}
}

// Load reads path and overlays it on the defaults. A missing file is not an
// error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) fillDefaults() {
	def := DefaultAPI()
	if c.API.Namespace == "" {
		c.API.Namespace = def.Namespace
	}
	if c.API.Builder == "" {
		c.API.Builder = def.Builder
	}
	if c.API.PathProvider == "" {
		c.API.PathProvider = def.PathProvider
	}
	if c.API.ProviderSuffix == "" {
		c.API.ProviderSuffix = def.ProviderSuffix
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	for _, f := range []struct {
		name, value string
	}{
		{"api.builder", c.API.Builder},
		{"api.pathProvider", c.API.PathProvider},
		{"api.providerSuffix", c.API.ProviderSuffix},
	} {
		if !identRe.MatchString(f.value) {
			return fmt.Errorf("%s: %q is not a valid identifier", f.name, f.value)
		}
	}
	if c.API.Namespace == "" {
		return errors.New("api.namespace: must not be empty")
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs: must not be negative, got %d", c.Jobs)
	}
	return nil
}

// Marshal renders c as YAML.
func Marshal(c Config) ([]byte, error) {
	return yaml.Marshal(c)
}

var keyComments = map[string]string{
	"api":         "Builder API recognized in C# sources.",
	"output":      "Directory receiving generated *.g.cs files, relative to the project root.",
	"cache":       "Incremental cache. An empty path disables it.",
	"jobs":        "Worker count. 0 uses every CPU.",
	"maxFileSize": "C# files larger than this many bytes are skipped.",
	"exclude":     "Gitignore-style patterns of files to skip.",
}

// Commented renders c as YAML with a comment above each top-level key.
func Commented(c Config) ([]byte, error) {
	var body yaml.Node
	if err := body.Encode(c); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	for i := 0; i+1 < len(body.Content); i += 2 {
		body.Content[i].HeadComment = keyComments[body.Content[i].Value]
	}
	doc := yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: "fixturegen configuration",
		Content:     []*yaml.Node{&body},
	}
	return yaml.Marshal(&doc)
}

// IsIdentifier reports whether s is a valid C# identifier in the ASCII
// subset fixturegen emits.
func IsIdentifier(s string) bool {
	return identRe.MatchString(s)
}
