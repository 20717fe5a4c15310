// Package config loads routekit.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/routekit/internal/logger"
	"github.com/abdul-hamid-achik/routekit/pkg/cache"
	"github.com/abdul-hamid-achik/routekit/pkg/datastore"
	"github.com/abdul-hamid-achik/routekit/pkg/scanner"
	"github.com/abdul-hamid-achik/routekit/pkg/table"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/viper"
)

// FileName is the config file name without extension.
const FileName = "routekit"

// Config is the routekit.yaml configuration.
type Config struct {
	Dir           string   `mapstructure:"dir" json:"dir" yaml:"dir"`
	Extensions    []string `mapstructure:"extensions" json:"extensions" yaml:"extensions"`
	URLPrefix     string   `mapstructure:"url_prefix" json:"url_prefix" yaml:"url_prefix"`
	URLSuffix     string   `mapstructure:"url_suffix" json:"url_suffix" yaml:"url_suffix"`
	Cache         bool     `mapstructure:"cache" json:"cache" yaml:"cache"`
	Concurrency   int      `mapstructure:"concurrency" json:"concurrency" yaml:"concurrency"`
	FallbackRoute string   `mapstructure:"fallback_route" json:"fallback_route" yaml:"fallback_route"`

	Data   DataConfig   `mapstructure:"data" json:"data" yaml:"data"`
	Server ServerConfig `mapstructure:"server" json:"server" yaml:"server"`
	Log    LogConfig    `mapstructure:"log" json:"log" yaml:"log"`

	// Meta is merged into navigation nodes keyed by stem.
	Meta map[string]map[string]any `mapstructure:"meta" json:"meta,omitempty" yaml:"meta,omitempty"`

	workdir string
	file    string
}

// DataConfig configures the data store.
type DataConfig struct {
	Dir         string   `mapstructure:"dir" json:"dir" yaml:"dir"`
	LocalSuffix string   `mapstructure:"local_suffix" json:"local_suffix" yaml:"local_suffix"`
	Extensions  []string `mapstructure:"extensions" json:"extensions" yaml:"extensions"`
	Merge       bool     `mapstructure:"merge" json:"merge" yaml:"merge"`
}

// ServerConfig configures the dev server.
type ServerConfig struct {
	Host      string `mapstructure:"host" json:"host" yaml:"host"`
	Port      int    `mapstructure:"port" json:"port" yaml:"port"`
	PageCache int    `mapstructure:"page_cache" json:"page_cache" yaml:"page_cache"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level" json:"level" yaml:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dir", "pages")
	v.SetDefault("extensions", scanner.DefaultExtensions)
	v.SetDefault("url_prefix", "/")
	v.SetDefault("url_suffix", ".html")
	v.SetDefault("cache", true)
	v.SetDefault("concurrency", scanner.DefaultConcurrency)
	v.SetDefault("fallback_route", "/404")
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.local_suffix", ".data")
	v.SetDefault("data.extensions", datastore.DefaultExtensions)
	v.SetDefault("data.merge", true)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.page_cache", 256)
	v.SetDefault("log.level", "info")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ROUTEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the default configuration rooted at the working directory.
func Default() *Config {
	cfg := &Config{workdir: "."}
	_ = newViper().Unmarshal(cfg)
	return cfg
}

// Load reads routekit.yaml from workdir, or file when set. A missing
// routekit.yaml yields the defaults; a missing explicit file is an error.
func Load(workdir, file string) (*Config, error) {
	if workdir == "" {
		workdir = "."
	}

	v := newViper()
	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(workdir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return decode(v, workdir, v.ConfigFileUsed())
}

func decode(v *viper.Viper, workdir, file string) (*Config, error) {
	cfg := &Config{workdir: workdir, file: file}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Workdir returns the directory paths in the config are relative to.
func (c *Config) Workdir() string {
	return c.workdir
}

// File returns the config file that was read, or "" when none was found.
func (c *Config) File() string {
	return c.file
}

// Path joins p onto the working directory.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.workdir, p)
}

// FS returns the filesystem rooted at the working directory.
func (c *Config) FS() billy.Filesystem {
	if c.workdir == "" || c.workdir == "." {
		return osfs.New("")
	}
	return osfs.New(c.workdir)
}

// LoggerConfig returns the logger configuration. ROUTEKIT_DEV=true forces
// debug output.
func (c *Config) LoggerConfig() logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = logger.ParseLevel(c.Log.Level)
	if os.Getenv("ROUTEKIT_DEV") == "true" {
		lc.Level = logger.LevelDebug
	}
	return lc
}

// ScannerOptions maps the configuration onto scanner options.
func (c *Config) ScannerOptions() scanner.Options {
	opts := scanner.Options{
		Dir:         c.Dir,
		Extensions:  c.Extensions,
		URLPrefix:   c.URLPrefix,
		URLSuffix:   c.URLSuffix,
		Concurrency: c.Concurrency,
		FS:          c.FS(),
	}
	if c.Cache {
		opts.Cache = cache.NewRoutes()
	}
	return opts
}

// DataOptions maps the configuration onto data store options. Local data
// files are looked up in the routes directory.
func (c *Config) DataOptions() datastore.Options {
	return datastore.Options{
		Dir:         c.Data.Dir,
		LocalDir:    c.Dir,
		LocalSuffix: c.Data.LocalSuffix,
		Extensions:  c.Data.Extensions,
		Merge:       c.Data.Merge,
		FS:          c.FS(),
	}
}

// NewTable builds an unloaded route table from the configuration.
func (c *Config) NewTable(log *logger.Logger) *table.Table {
	so := c.ScannerOptions()

	do := c.DataOptions()
	do.FS = so.FS
	do.Logger = log

	return table.New(table.Options{
		Dir:           so.Dir,
		Extensions:    so.Extensions,
		URLPrefix:     so.URLPrefix,
		URLSuffix:     so.URLSuffix,
		FallbackRoute: c.FallbackRoute,
		Concurrency:   so.Concurrency,
		Data:          datastore.New(do),
		Cache:         so.Cache,
		FS:            so.FS,
		Logger:        log,
	})
}
