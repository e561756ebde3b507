package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pkgpatch/pkgpatch/domain"
)

// Config is the top-level configuration for pkgpatch. Everything is
// optional; an absent config file is equivalent to the zero value.
type Config struct {
	// Mode is the default build mode ("deb" or "rpm") when no --mode flag
	// is given.
	Mode string `yaml:"mode"`

	Deb DebConfig `yaml:"deb"`
	Rpm RpmConfig `yaml:"rpm"`
}

// DebConfig overrides the Debian build invocation.
type DebConfig struct {
	BuildCommand []string `yaml:"build_command"` // default: [debuild]
	BuildEnv     []string `yaml:"build_env"`     // default: [DEB_BUILD_OPTIONS=nocheck]
}

// RpmConfig overrides the RPM build invocation.
type RpmConfig struct {
	BuildCommand []string `yaml:"build_command"` // default: [rpmbuild, -ba]
	ExtraArgs    []string `yaml:"extra_args"`    // default: [--nocheck]
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg Config
	if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	if validateErr := Validate(&cfg); validateErr != nil {
		return nil, validateErr
	}

	return &cfg, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
// Only dot-prefixed names are searched: the plain pkgpatch.yaml name marks
// a ship-context directory and must not be read as tool configuration.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".pkgpatch.yaml",
		".pkgpatch.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// Validate checks the configuration values that have a constrained domain.
func Validate(cfg *Config) error {
	if cfg.Mode != "" {
		if _, err := parseMode(cfg.Mode); err != nil {
			return fmt.Errorf("mode: %w", err)
		}
	}
	return nil
}

// ResolveMode determines the active build mode with the precedence
// flag > config file > BUILD_MODE environment variable.
func ResolveMode(flagValue string, cfg *Config) (domain.BuildMode, error) {
	for _, candidate := range []string{flagValue, cfg.Mode, os.Getenv("BUILD_MODE")} {
		if candidate == "" {
			continue
		}
		return parseMode(candidate)
	}

	return "", domain.ErrModeUnresolved
}

func parseMode(raw string) (domain.BuildMode, error) {
	switch strings.ToLower(raw) {
	case string(domain.ModeDeb):
		return domain.ModeDeb, nil
	case string(domain.ModeRpm):
		return domain.ModeRpm, nil
	default:
		return "", fmt.Errorf("%w: unsupported value %q", domain.ErrModeUnresolved, raw)
	}
}
