// Package config provides configuration loading and discovery for stagewise.
//
// Configuration is loaded from multiple sources with the following priority
// (highest to lowest):
//  1. CLI flags
//  2. Environment variables (STAGEWISE_* prefix)
//  3. Config file (closest .stagewise.toml or stagewise.toml)
//  4. Built-in defaults
//
// Config file discovery follows a cascading pattern: starting from the
// target file's directory, walk up the filesystem until a config file is
// found. The closest config wins (no merging).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigFileNames defines the config file names to search for, in priority order.
var ConfigFileNames = []string{".stagewise.toml", "stagewise.toml"}

// EnvPrefix is the prefix for environment variables.
const EnvPrefix = "STAGEWISE_"

// Config represents the complete stagewise configuration.
type Config struct {
	// Output configures output format and destination.
	Output OutputConfig `json:"output" koanf:"output"`

	// Sizing configures how layer sizes are estimated.
	Sizing SizingConfig `json:"sizing" koanf:"sizing"`

	// Advisor configures the optimization rules.
	Advisor AdvisorConfig `json:"advisor" koanf:"advisor"`

	// ConfigFile is the path to the config file that was loaded (if any).
	// This is metadata, not loaded from config.
	ConfigFile string `json:"-" koanf:"-"`
}

// OutputConfig configures output formatting and behavior.
type OutputConfig struct {
	// Format specifies the output format (text, json, markdown).
	Format string `json:"format,omitempty" koanf:"format"`

	// Path specifies where to write output ("stdout", "stderr", or a file).
	Path string `json:"path,omitempty" koanf:"path"`

	// ShowSource enables source line snippets in text output.
	ShowSource bool `json:"show-source,omitempty" koanf:"show-source"`

	// Color controls colored output: auto, always, never.
	Color string `json:"color,omitempty" koanf:"color"`
}

// SizingConfig configures layer size estimation.
//
// Example TOML configuration:
//
//	[sizing]
//	registry = "auto"
//	timeout = "20s"
//	manifest-hint-bytes = 2048
type SizingConfig struct {
	// Registry controls registry manifest lookups: auto (on unless the
	// run looks offline), on, off.
	Registry string `json:"registry,omitempty" koanf:"registry"`

	// Timeout is the wall-clock budget for all registry lookups per run.
	Timeout string `json:"timeout,omitempty" koanf:"timeout"`

	// MaxTries bounds the retry budget per registry reference.
	MaxTries uint `json:"max-tries,omitempty" koanf:"max-tries"`

	// CacheEntries bounds the memoized reference cache.
	CacheEntries int `json:"cache-entries,omitempty" koanf:"cache-entries"`

	// ManifestHintBytes scales dependency-install estimates from the size
	// of the dependency manifest (0 disables the hint).
	ManifestHintBytes int64 `json:"manifest-hint-bytes,omitempty" koanf:"manifest-hint-bytes"`
}

// AdvisorConfig configures the optimization rules.
//
// Example TOML configuration:
//
//	[advisor]
//	ignore = ["server-swap"]
type AdvisorConfig struct {
	// Ignore lists suggestion categories to drop from the output.
	Ignore []string `json:"ignore,omitempty" koanf:"ignore"`
}

// RegistryTimeout returns the parsed sizing timeout.
func (c *Config) RegistryTimeout() (time.Duration, error) {
	if c.Sizing.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Sizing.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid sizing.timeout: %w", err)
	}
	return d, nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Format:     "text",
			Path:       "stdout",
			ShowSource: true,
			Color:      "auto",
		},
		Sizing: SizingConfig{
			Registry:     "auto",
			Timeout:      "20s",
			MaxTries:     3,
			CacheEntries: 512,
		},
		Advisor: AdvisorConfig{},
	}
}

// Load loads configuration for a target file path.
// It discovers the closest config file, loads it, and applies
// environment variable overrides.
func Load(targetPath string) (*Config, error) {
	return loadWithConfigPath(Discover(targetPath))
}

// LoadFromFile loads configuration from a specific config file path.
// Unlike Load, it does not perform config discovery.
func LoadFromFile(configPath string) (*Config, error) {
	return loadWithConfigPath(configPath)
}

func loadWithConfigPath(configPath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}

	// 2. Load config file if provided
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	// 3. Load environment variables (STAGEWISE_* prefix)
	// STAGEWISE_SIZING_MANIFEST_HINT_BYTES -> sizing.manifest-hint-bytes
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKeyTransform,
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.ConfigFile = configPath
	return &cfg, nil
}

// knownHyphenatedKeys maps dot-separated patterns to their hyphenated
// equivalents. Add new entries here when adding hyphenated config keys.
var knownHyphenatedKeys = map[string]string{
	"show.source":         "show-source",
	"max.tries":           "max-tries",
	"cache.entries":       "cache-entries",
	"manifest.hint.bytes": "manifest-hint-bytes",
}

var allowedEnvTopLevelKeys = map[string]struct{}{
	"output":  {},
	"sizing":  {},
	"advisor": {},
}

// envKeyTransform converts environment variable names to config keys.
// STAGEWISE_OUTPUT_FORMAT -> output.format
// STAGEWISE_SIZING_MAX_TRIES -> sizing.max-tries
func envKeyTransform(k, v string) (string, any) {
	s := strings.TrimPrefix(k, EnvPrefix)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", ".")
	for pattern, replacement := range knownHyphenatedKeys {
		s = strings.ReplaceAll(s, pattern, replacement)
	}

	topLevel := s
	if before, _, ok := strings.Cut(s, "."); ok {
		topLevel = before
	}
	if _, ok := allowedEnvTopLevelKeys[topLevel]; !ok {
		return "", nil
	}

	return s, v
}

// Discover finds the closest config file for a target file path.
// It walks up the directory tree from the target's directory, checking for
// config files at each level. Returns empty string if none is found.
func Discover(targetPath string) string {
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return ""
	}

	dir := filepath.Dir(absPath)
	for {
		for _, name := range ConfigFileNames {
			configPath := filepath.Join(dir, name)
			if fileExists(configPath) {
				return configPath
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
