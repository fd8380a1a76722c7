package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default values applied when the project configuration file is absent or
// leaves a field unset.
const (
	DefaultListName   = "runners"
	DefaultOutputDir  = "dist"
	DefaultConfigFile = "runnerforge.yaml"
	DefaultAssetsDir  = "assets"
	ArtifactExtension = ".mjs"
	RunnersSubdir     = "runners"
	ManifestFileName  = "runners.json"
	CatalogPageName   = "index.html"
)

// Config represents the project configuration. Every field is optional; the
// zero configuration plus defaults describes a complete build.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Bundle  BundleConfig  `yaml:"bundle"`
	Catalog CatalogConfig `yaml:"catalog"`
	Assets  AssetsConfig  `yaml:"assets"`
	Daemon  DaemonConfig  `yaml:"daemon"`
}

// SourceConfig is the module-resolution configuration: the root set plus
// include/exclude rules applied while resolving the project file set.
type SourceConfig struct {
	Roots   []string `yaml:"roots,omitempty"`
	Include []string `yaml:"include,omitempty"` // file extensions, e.g. ".js"
	Exclude []string `yaml:"exclude,omitempty"` // directory names skipped during walk
}

// BundleConfig configures the bundling engine invocation.
type BundleConfig struct {
	// External lists host-provided modules left unbundled; the execution
	// host supplies them at load time.
	External []string `yaml:"external,omitempty"`
	Minify   *bool    `yaml:"minify,omitempty"`
}

// CatalogConfig configures manifest assembly.
type CatalogConfig struct {
	ListName  string `yaml:"listName,omitempty"`
	OutputDir string `yaml:"outputDir,omitempty"`
}

// AssetsConfig points at a static assets directory mirrored into the output
// tree when present.
type AssetsConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// DaemonConfig configures continuous-build mode.
type DaemonConfig struct {
	DebounceMS  int           `yaml:"debounce_ms,omitempty"`
	Schedule    string        `yaml:"schedule,omitempty"` // cron expression, optional
	MetricsAddr string        `yaml:"metrics_addr,omitempty"`
	Events      EventsConfig  `yaml:"events"`
	History     HistoryConfig `yaml:"history"`
}

// EventsConfig configures optional NATS build-event publishing.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// HistoryConfig configures the optional SQLite build-history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// Load loads configuration from the specified file. A missing file is not an
// error: the catalog contract works from pure defaults. A present but
// malformed file is fatal and aborts before any output mutation.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	if configPath == "" {
		configPath = DefaultConfigFile
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills unset fields with their documented defaults.
func (c *Config) applyDefaults() {
	if len(c.Source.Roots) == 0 {
		c.Source.Roots = []string{"src"}
	}
	if len(c.Source.Include) == 0 {
		c.Source.Include = []string{".js", ".mjs", ".ts"}
	}
	if len(c.Source.Exclude) == 0 {
		c.Source.Exclude = []string{"node_modules", ".git", "dist"}
	}
	if len(c.Bundle.External) == 0 {
		c.Bundle.External = []string{"@runnerforge/host", "node:*"}
	}
	if c.Bundle.Minify == nil {
		minify := true
		c.Bundle.Minify = &minify
	}
	if c.Catalog.ListName == "" {
		c.Catalog.ListName = DefaultListName
	}
	if c.Catalog.OutputDir == "" {
		c.Catalog.OutputDir = DefaultOutputDir
	}
	if c.Assets.Dir == "" {
		c.Assets.Dir = DefaultAssetsDir
	}
	if c.Daemon.DebounceMS <= 0 {
		c.Daemon.DebounceMS = 500
	}
	if c.Daemon.Events.Subject == "" {
		c.Daemon.Events.Subject = "runnerforge.builds"
	}
	if c.Daemon.History.Path == "" {
		c.Daemon.History.Path = ".runnerforge/history.db"
	}
}
