package treeutils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
)

// Config represents the treeutils configuration
type Config struct {
	configPath string
	ini        *ini.File
}

// HashConfig represents hash algorithm configuration
type HashConfig struct {
	Default string // Default hash algorithm
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Color string // Colour mode: auto, always, never
}

// VerboseConfig represents verbosity configuration
type VerboseConfig struct {
	Level int    // Default verbose level (0=quiet, 1=basic, 2=detailed, 3=trace)
	Debug string // Default debug flags (comma-separated)
}

// PerformanceConfig represents performance-related configuration
type PerformanceConfig struct {
	HashWorkers   int    // Number of concurrent hash workers (0 = one per CPU)
	HashBuffer    string // Hash read buffer size (default: "64K")
	CompareBuffer string // Stream comparison buffer size (default: "8K")
}

// DefaultConfigPath returns the config file location: $TREEUTILS_CONFIG if set,
// otherwise ~/.config/treeutils/config
func DefaultConfigPath() string {
	if path := os.Getenv("TREEUTILS_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "treeutils", "config")
}

// LoadConfig loads configuration from the given path (DefaultConfigPath when
// empty). A missing config file is not an error: the tools are read-only and
// never create one, so built-in defaults apply instead.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := &Config{
		configPath: path,
	}

	if path == "" {
		cfg.ini = ini.Empty()
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.ini = ini.Empty()
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	cfg.ini = iniFile

	return cfg, nil
}

// Path returns the config file path this configuration was resolved against
func (c *Config) Path() string {
	return c.configPath
}

// GetHashConfig returns the hash configuration
func (c *Config) GetHashConfig() *HashConfig {
	hashConfig := &HashConfig{
		Default: DefaultHashName, // fallback default
	}

	if c.ini.HasSection("filehash") {
		section := c.ini.Section("filehash")
		if section.HasKey("default") {
			hashConfig.Default = section.Key("default").String()
		}
	}

	return hashConfig
}

// GetOutputConfig returns the output configuration
func (c *Config) GetOutputConfig() *OutputConfig {
	outputConfig := &OutputConfig{
		Color: "auto", // fallback default
	}

	if c.ini.HasSection("output") {
		section := c.ini.Section("output")
		if section.HasKey("color") {
			outputConfig.Color = section.Key("color").String()
		}
	}

	return outputConfig
}

// GetVerboseConfig returns the verbose configuration
func (c *Config) GetVerboseConfig() *VerboseConfig {
	verboseConfig := &VerboseConfig{
		Level: 0,  // fallback default
		Debug: "", // fallback default
	}

	if c.ini.HasSection("verbose") {
		section := c.ini.Section("verbose")
		if section.HasKey("level") {
			if level, err := section.Key("level").Int(); err == nil {
				verboseConfig.Level = level
			}
		}
		if section.HasKey("debug") {
			verboseConfig.Debug = section.Key("debug").String()
		}
	}

	return verboseConfig
}

// GetPerformanceConfig returns the performance configuration
func (c *Config) GetPerformanceConfig() *PerformanceConfig {
	performanceConfig := &PerformanceConfig{
		HashWorkers:   0,     // fallback default - one worker per CPU
		HashBuffer:    "64K", // fallback default
		CompareBuffer: "8K",  // fallback default
	}

	if c.ini.HasSection("performance") {
		section := c.ini.Section("performance")
		if section.HasKey("hash_workers") {
			if workers, err := section.Key("hash_workers").Int(); err == nil {
				performanceConfig.HashWorkers = workers
			}
		}
		if section.HasKey("hash_buffer") {
			if bufferSize := section.Key("hash_buffer").String(); bufferSize != "" {
				performanceConfig.HashBuffer = bufferSize
			}
		}
		if section.HasKey("compare_buffer") {
			if bufferSize := section.Key("compare_buffer").String(); bufferSize != "" {
				performanceConfig.CompareBuffer = bufferSize
			}
		}
	}

	return performanceConfig
}

// GetExcludePatterns returns the exclude patterns from the [exclude] section.
// Every key in the section holds one pattern; key names are ignored.
func (c *Config) GetExcludePatterns() []string {
	var patterns []string

	if c.ini.HasSection("exclude") {
		section := c.ini.Section("exclude")
		for _, key := range section.Keys() {
			if pattern := key.String(); pattern != "" {
				patterns = append(patterns, pattern)
			}
		}
	}

	return patterns
}

// ApplyOverrides applies command-line overrides to the configuration.
// Accepts strings like "default:sha1", "color:never", "level:2", "debug:walk",
// "hash_workers:8", "hash_buffer:1M", "compare_buffer:16K"
func (c *Config) ApplyOverrides(overrides []string) error {
	for _, override := range overrides {
		parts := strings.SplitN(override, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid override format '%s', expected 'key:value'", override)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "default":
			// filehash.default override
			section := c.ini.Section("filehash")
			section.Key("default").SetValue(value)
		case "color":
			// output.color override
			section := c.ini.Section("output")
			section.Key("color").SetValue(value)
		case "level":
			// verbose.level override
			section := c.ini.Section("verbose")
			section.Key("level").SetValue(value)
		case "debug":
			// verbose.debug override
			section := c.ini.Section("verbose")
			section.Key("debug").SetValue(value)
		case "hash_workers":
			// performance.hash_workers override
			section := c.ini.Section("performance")
			section.Key("hash_workers").SetValue(value)
		case "hash_buffer":
			// performance.hash_buffer override
			section := c.ini.Section("performance")
			section.Key("hash_buffer").SetValue(value)
		case "compare_buffer":
			// performance.compare_buffer override
			section := c.ini.Section("performance")
			section.Key("compare_buffer").SetValue(value)
		default:
			return fmt.Errorf("unsupported override key '%s' (supported: default, color, level, debug, hash_workers, hash_buffer, compare_buffer)", key)
		}
	}

	return nil
}

// ValidateHashAlgorithm validates that a hash algorithm is supported
func ValidateHashAlgorithm(algorithm string) error {
	switch strings.ToLower(algorithm) {
	case "sha1", "sha256", "sha512":
		return nil
	default:
		return fmt.Errorf("unsupported hash algorithm: %s (supported: sha1, sha256, sha512)", algorithm)
	}
}

// ValidateColorMode validates that a colour mode is supported
func ValidateColorMode(mode string) error {
	switch strings.ToLower(mode) {
	case "auto", "always", "never":
		return nil
	default:
		return fmt.Errorf("unsupported colour mode: %s (supported: auto, always, never)", mode)
	}
}

// ValidateOutputFormat validates that a duplicate-listing format is supported
func ValidateOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case "human", "json", "fdupes":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s (supported: human, json, fdupes)", format)
	}
}

// ValidateVerboseLevel validates that a verbose level is valid
func ValidateVerboseLevel(level int) error {
	if level < 0 || level > 3 {
		return fmt.Errorf("invalid verbose level: %d (supported: 0-3)", level)
	}
	return nil
}

// ValidateHashWorkers validates that the hash worker count is reasonable
func ValidateHashWorkers(workers int) error {
	if workers < 0 {
		return fmt.Errorf("hash workers must not be negative, got: %d", workers)
	}
	if workers > 64 {
		return fmt.Errorf("hash workers should not exceed 64, got: %d", workers)
	}
	return nil
}
