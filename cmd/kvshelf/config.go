package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// ConfigFileName is the default config file name, looked up in the
// working directory when --config isn't given.
const ConfigFileName = ".kvshelf.json"

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigFileRead     = errors.New("cannot read config file")
	errConfigInvalid      = errors.New("invalid config file")
	errPathEmpty          = errors.New("path cannot be empty")
)

// Config holds the settings that drive kvshelf.Open.
type Config struct {
	Path      string `json:"path"`
	IndexSize uint32 `json:"index_size,omitempty"`
	Truncate  bool   `json:"truncate,omitempty"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{Path: "kvshelf.db"}
}

// LoadConfig loads configuration with the following precedence (highest
// wins): defaults, project config file (.kvshelf.json or an explicit
// --config path), CLI flag overrides.
func LoadConfig(workDir, configPath string, overrides Config, hasPathOverride bool) (Config, error) {
	cfg := DefaultConfig()

	fileCfg, err := loadConfigFile(workDir, configPath)
	if err != nil {
		return Config{}, err
	}

	cfg = mergeConfig(cfg, fileCfg)

	if hasPathOverride {
		cfg.Path = overrides.Path
	}

	if overrides.IndexSize != 0 {
		cfg.IndexSize = overrides.IndexSize
	}

	if overrides.Truncate {
		cfg.Truncate = overrides.Truncate
	}

	if cfg.Path == "" {
		return Config{}, errPathEmpty
	}

	return cfg, nil
}

func loadConfigFile(workDir, configPath string) (Config, error) {
	var cfgFile string

	var mustExist bool

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		if _, statErr := os.Stat(cfgFile); statErr != nil {
			return Config{}, fmt.Errorf("%w: %s", errConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, ConfigFileName)
		mustExist = false
	}

	data, err := os.ReadFile(cfgFile) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, nil
		}

		return Config{}, fmt.Errorf("%w: %s", errConfigFileRead, cfgFile)
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, cfgFile, err)
	}

	return cfg, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Path != "" {
		base.Path = overlay.Path
	}

	if overlay.IndexSize != 0 {
		base.IndexSize = overlay.IndexSize
	}

	if overlay.Truncate {
		base.Truncate = overlay.Truncate
	}

	return base
}

// FormatConfig returns cfg as formatted JSON, for kvshelf's "info"
// command.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}
