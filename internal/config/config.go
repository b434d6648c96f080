package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBackend   = "json"
	DefaultDataDir   = "."
	DefaultKey       = "todos"
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
	DefaultTheme     = "classic"
)

var (
	themes     = []string{"classic", "neon", "mono"}
	logLevels  = []string{"debug", "info", "warn", "warning", "error"}
	logFormats = []string{"text", "json", "logfmt"}
)

type Config struct {
	Backend   string `toml:"backend" yaml:"backend"`
	DataDir   string `toml:"data_dir" yaml:"data_dir"`
	Key       string `toml:"key" yaml:"key"`
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format"`
	Theme     string `toml:"theme" yaml:"theme"`
	Group     bool   `toml:"group" yaml:"group"`

	// Files lists the config files that were applied, in order.
	Files []string `toml:"-" yaml:"-"`
}

func Defaults() *Config {
	return &Config{
		Backend:   DefaultBackend,
		DataDir:   DefaultDataDir,
		Key:       DefaultKey,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Theme:     DefaultTheme,
	}
}

// flagValues holds what the command line said, before layering.
type flagValues struct {
	configFile, backend, dataDir, key, logLevel, logFormat, theme string
	group                                                          bool
}

// Load parses root flags from args, layers every source and returns the
// result together with the arguments left after the flags.
func Load(fs *flag.FlagSet, args []string) (*Config, []string, error) {
	if fs == nil {
		fs = flag.NewFlagSet("todo", flag.ContinueOnError)
	}
	var fv flagValues
	fs.StringVar(&fv.configFile, "config", "", "path to a config file (.toml or .yaml)")
	fs.StringVar(&fv.backend, "backend", "", "storage backend: json, sqlite or memory")
	fs.StringVar(&fv.dataDir, "data-dir", "", "directory holding the data file")
	fs.StringVar(&fv.key, "key", "", "storage key the list is saved under")
	fs.StringVar(&fv.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&fv.logFormat, "log-format", "", "log format: text, json, logfmt")
	fs.StringVar(&fv.theme, "theme", "", "output theme: classic, neon, mono")
	fs.BoolVar(&fv.group, "group", false, "group output by pending/done")
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := Defaults()

	if p := findUserConfigFile(); p != "" {
		if err := loadFile(cfg, p); err != nil {
			return nil, nil, fmt.Errorf("loading user config file %s: %w", p, err)
		}
	}
	if p := findProjectConfigFile(); p != "" {
		if err := loadFile(cfg, p); err != nil {
			return nil, nil, fmt.Errorf("loading project config file %s: %w", p, err)
		}
	}
	if fv.configFile != "" {
		if err := loadFile(cfg, fv.configFile); err != nil {
			return nil, nil, fmt.Errorf("loading config file %s: %w", fv.configFile, err)
		}
	}

	loadFromEnv(cfg)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = fv.backend
		case "data-dir":
			cfg.DataDir = fv.dataDir
		case "key":
			cfg.Key = fv.key
		case "log-level":
			cfg.LogLevel = fv.logLevel
		case "log-format":
			cfg.LogFormat = fv.logFormat
		case "theme":
			cfg.Theme = fv.theme
		case "group":
			cfg.Group = fv.group
		}
	})

	if err := finalize(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

// loadFile decodes a TOML or YAML file over cfg. Keys absent from the file
// keep their current value.
func loadFile(cfg *Config, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return fmt.Errorf("yaml unmarshal: %w", err)
		}
	default:
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("toml decode: %w", err)
		}
	}
	cfg.Files = append(cfg.Files, path)
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TADA_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("TADA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TADA_KEY"); v != "" {
		cfg.Key = v
	}
	if v := os.Getenv("TADA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TADA_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("TADA_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("TADA_GROUP"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Group = b
		}
	}
}

func finalize(cfg *Config) error {
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch cfg.Backend {
	case "json", "sqlite", "memory":
	default:
		return fmt.Errorf("invalid backend %q (want json, sqlite or memory)", cfg.Backend)
	}
	cfg.Theme = strings.ToLower(strings.TrimSpace(cfg.Theme))
	if !slices.Contains(themes, cfg.Theme) {
		return fmt.Errorf("invalid theme %q (want classic, neon or mono)", cfg.Theme)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if !slices.Contains(logLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level %q (want debug, info, warn or error)", cfg.LogLevel)
	}
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if !slices.Contains(logFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format %q (want text, json or logfmt)", cfg.LogFormat)
	}
	if strings.TrimSpace(cfg.Key) == "" {
		return errors.New("key must not be empty")
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	cfg.DataDir = expandPath(cfg.DataDir)
	return nil
}
