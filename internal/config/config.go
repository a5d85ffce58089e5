// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

// Package config loads the application configuration with Koanf v2,
// layering three sources in increasing priority:
//
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (CINETASTE_ prefix)
//
// Environment variable names map to config paths by stripping the prefix
// and treating the first underscore as the section separator:
//
//	CINETASTE_SERVER_PORT          -> server.port
//	CINETASTE_EMBEDDING_API_KEY    -> embedding.api_key
//	CINETASTE_API_RATE_LIMIT_REQUESTS -> api.rate_limit_requests
//
// Config is immutable after Load and safe for concurrent reads.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/cinetaste/cinetaste/internal/api"
	"github.com/cinetaste/cinetaste/internal/catalog"
	"github.com/cinetaste/cinetaste/internal/embedding"
	"github.com/cinetaste/cinetaste/internal/justify"
	"github.com/cinetaste/cinetaste/internal/logging"
	"github.com/cinetaste/cinetaste/internal/profile"
	"github.com/cinetaste/cinetaste/internal/taste"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cinetaste/config.yaml",
	"/etc/cinetaste/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CINETASTE_CONFIG"

const envPrefix = "CINETASTE_"

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host" json:"host"`
	Port            int           `koanf:"port" json:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout"`
}

// StorageConfig holds the profile store settings. An empty path opens an
// in-memory store, which does not survive restarts.
type StorageConfig struct {
	Path string `koanf:"path" json:"path"`
}

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig          `koanf:"server"`
	Logging   logging.Config        `koanf:"logging"`
	Storage   StorageConfig         `koanf:"storage"`
	Taste     taste.Config          `koanf:"taste"`
	Builder   profile.BuilderConfig `koanf:"builder"`
	Embedding embedding.Config      `koanf:"embedding"`
	Catalog   catalog.Config        `koanf:"catalog"`
	Justify   justify.Config        `koanf:"justify"`
	API       api.Config            `koanf:"api"`
}

// defaultConfig assembles the built-in defaults from each package.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8484,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: logging.DefaultConfig(),
		Storage: StorageConfig{
			Path: "/data/cinetaste/profiles",
		},
		Taste:     *taste.DefaultConfig(),
		Builder:   profile.DefaultBuilderConfig(),
		Embedding: embedding.DefaultConfig(),
		Catalog:   catalog.DefaultConfig(),
		Justify:   justify.DefaultConfig(),
		API:       api.DefaultConfig(),
	}
}

// Load reads configuration from defaults, an optional YAML file, and
// CINETASTE_* environment variables, then validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the composed configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	if c.Builder.MinHistory < 1 {
		return fmt.Errorf("builder.min_history must be at least 1, got %d", c.Builder.MinHistory)
	}
	if c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding.base_url is required")
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required")
	}
	if err := c.Taste.Validate(); err != nil {
		return fmt.Errorf("taste: %w", err)
	}
	return nil
}

// findConfigFile returns the first config file that exists, honoring the
// CINETASTE_CONFIG override.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps CINETASTE_SECTION_KEY_NAME to section.key_name.
// All sections are single words, so the first underscore separates the
// section from the key.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	return section + "." + rest
}

// sliceConfigPaths are the paths that accept comma-separated values from
// environment variables.
var sliceConfigPaths = []string{
	"api.cors_allowed_origins",
}

// processSliceFields splits comma-separated env values into slices. YAML
// sources already deliver slices and are left untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
