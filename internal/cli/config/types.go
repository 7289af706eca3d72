// Package config loads pgdef CLI configuration.
//
// Values are layered, lowest to highest precedence: built-in defaults,
// pgdef.yaml, PGDEF_* environment variables, then command line flags.
package config

import (
	"time"

	"github.com/leapstack-labs/pgdef/internal/template"
	"github.com/leapstack-labs/pgdef/pkg/codedef"
	"github.com/leapstack-labs/pgdef/pkg/object"
	"github.com/leapstack-labs/pgdef/pkg/spi"
)

// Config holds all CLI configuration options.
type Config struct {
	TemplatesDir   string         `koanf:"templates_dir"`
	MacrosDir      string         `koanf:"macros_dir"`
	Mode           spi.Mode       `koanf:"mode"`
	IDBase         uint32         `koanf:"id_base"`
	MaxDepth       int            `koanf:"max_depth"`
	CacheSize      int            `koanf:"cache_size"`
	LogLevel       string         `koanf:"log_level"`
	OutputFormat   string         `koanf:"output"`
	DatabaseURL    string         `koanf:"database_url"`
	ConnectTimeout time.Duration  `koanf:"connect_timeout"`
	Globals        map[string]any `koanf:"globals"`

	// ProjectRoot anchors relative paths: the config file's directory, or
	// the working directory without one.
	ProjectRoot string `koanf:"-"`
	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultMacrosDir      = "macros"
	DefaultLogLevel       = "warn"
	DefaultOutput         = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultConnectTimeout = 10 * time.Second
)

// ConfigFileNames are looked up in the working directory, in order.
var ConfigFileNames = []string{"pgdef.yaml", "pgdef.yml"}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		MacrosDir:      DefaultMacrosDir,
		Mode:           spi.ModeSQL,
		IDBase:         object.DefaultIDBase,
		MaxDepth:       codedef.DefaultMaxDepth,
		CacheSize:      template.DefaultCacheSize,
		LogLevel:       DefaultLogLevel,
		OutputFormat:   DefaultOutput,
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// defaults is Default flattened for the confmap provider.
func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"templates_dir":   d.TemplatesDir,
		"macros_dir":      d.MacrosDir,
		"mode":            d.Mode.String(),
		"id_base":         d.IDBase,
		"max_depth":       d.MaxDepth,
		"cache_size":      d.CacheSize,
		"log_level":       d.LogLevel,
		"output":          d.OutputFormat,
		"database_url":    d.DatabaseURL,
		"connect_timeout": d.ConnectTimeout.String(),
	}
}
