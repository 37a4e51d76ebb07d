// Package config loads and validates declscan settings.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"

	"github.com/phobologic/declscan/internal/errs"
)

// DefaultFileName is looked up in the working directory when no --config is
// given.
const DefaultFileName = "declscan.toml"

const (
	DefaultMaxFileSize = 1_000_000 // 1 MB
	DefaultTimeout     = 10 * time.Second
)

// Formats lists the accepted output formats.
var Formats = []string{"json", "text", "html", "symbols", "toon"}

// DefaultIgnoreDirs is the ignore-directory set used when none is configured.
var DefaultIgnoreDirs = []string{
	".git", ".hg", ".svn",
	"node_modules", "__pycache__",
	"venv", ".venv", "env", ".env",
	"build", "dist", "target",
	".tox", ".mypy_cache", ".ruff_cache", ".pytest_cache",
}

type Config struct {
	Language         string              `toml:"language"`
	Format           string              `toml:"format"`
	Output           string              `toml:"output"`
	IgnoreDirs       []string            `toml:"ignore_dirs"`
	MaxDepth         *int                `toml:"max_depth"`
	ExcludeFiles     []string            `toml:"exclude_files"`
	RespectGitignore bool                `toml:"respect_gitignore"`
	MaxFileSize      int64               `toml:"max_file_size"`
	Parse            Parse               `toml:"parse"`
	Classify         Classify            `toml:"classify"`
	Cache            Cache               `toml:"cache"`
	Metrics          Metrics             `toml:"metrics"`
	FrontEnds        map[string]FrontEnd `toml:"frontends"`
}

type Parse struct {
	Timeout time.Duration `toml:"timeout"`
	Workers int           `toml:"workers"`
}

type Classify struct {
	ClassmethodStatic bool `toml:"classmethod_static"`
}

type Cache struct {
	Path string `toml:"path"`
}

type Metrics struct {
	File string `toml:"file"`
}

// FrontEnd configures an external front-end process for one language.
type FrontEnd struct {
	Command                []string `toml:"command"`
	Extensions             []string `toml:"extensions"`
	ConstructorNames       []string `toml:"constructor_names"`
	ConstructorIsClassName bool     `toml:"constructor_is_class_name"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the TOML file at path, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(err, errs.ConfigError, "reading config")
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errs.Wrap(err, errs.ConfigError, "parsing %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errs.New(errs.ConfigError, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOptional loads path when it is set, else DefaultFileName when that file
// exists, else the defaults.
func LoadOptional(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFileName); err == nil {
		return Load(DefaultFileName)
	}
	return Default(), nil
}

func applyDefaults(cfg *Config) {
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.IgnoreDirs == nil {
		cfg.IgnoreDirs = slices.Clone(DefaultIgnoreDirs)
	}
	if cfg.MaxDepth == nil {
		unlimited := -1
		cfg.MaxDepth = &unlimited
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Parse.Timeout == 0 {
		cfg.Parse.Timeout = DefaultTimeout
	}
	cfg.Language = strings.ToLower(strings.TrimSpace(cfg.Language))
}

// Validate checks the settings that would otherwise fail deep inside a run.
func (cfg *Config) Validate() error {
	if !slices.Contains(Formats, cfg.Format) {
		return errs.New(errs.ConfigError, "unknown output format %q (want one of %s)", cfg.Format, strings.Join(Formats, ", "))
	}
	if cfg.MaxDepth != nil && *cfg.MaxDepth < -1 {
		return errs.New(errs.ConfigError, "max_depth must be -1 (unlimited) or >= 0, got %d", *cfg.MaxDepth)
	}
	if cfg.MaxFileSize < 0 {
		return errs.New(errs.ConfigError, "max_file_size must not be negative")
	}
	if cfg.Parse.Workers < 0 {
		return errs.New(errs.ConfigError, "parse.workers must not be negative")
	}
	if cfg.Parse.Timeout < 0 {
		return errs.New(errs.ConfigError, "parse.timeout must not be negative")
	}
	for _, pattern := range cfg.ExcludeFiles {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return errs.Wrap(err, errs.ConfigError, "exclude_files: bad pattern %q", pattern)
		}
	}
	for name, fe := range cfg.FrontEnds {
		if len(fe.Command) == 0 || fe.Command[0] == "" {
			return errs.New(errs.ConfigError, "frontends.%s: command is empty", name)
		}
		for _, ext := range fe.Extensions {
			if !strings.HasPrefix(ext, ".") {
				return errs.New(errs.ConfigError, "frontends.%s: extension %q must start with a dot", name, ext)
			}
		}
	}
	return nil
}

// Depth returns the configured maximum depth; -1 means unlimited.
func (cfg *Config) Depth() int {
	if cfg.MaxDepth == nil {
		return -1
	}
	return *cfg.MaxDepth
}

// Starter returns the contents of a commented starter configuration file.
func Starter() string {
	var b strings.Builder
	b.WriteString("# declscan configuration\n\n")
	b.WriteString("# language = \"python\"\n")
	b.WriteString("format = \"json\"\n")
	b.WriteString("max_depth = -1\n")
	fmt.Fprintf(&b, "max_file_size = %d\n", DefaultMaxFileSize)
	b.WriteString("respect_gitignore = false\n")
	b.WriteString("exclude_files = []\n")
	b.WriteString("ignore_dirs = [\n")
	for _, d := range DefaultIgnoreDirs {
		fmt.Fprintf(&b, "  %q,\n", d)
	}
	b.WriteString("]\n\n")
	b.WriteString("[parse]\n")
	fmt.Fprintf(&b, "timeout = %q\n", DefaultTimeout.String())
	b.WriteString("workers = 0 # 0 uses every CPU\n\n")
	b.WriteString("[classify]\n")
	b.WriteString("classmethod_static = false\n\n")
	b.WriteString("[cache]\n")
	b.WriteString("path = \"\"\n\n")
	b.WriteString("[metrics]\n")
	b.WriteString("file = \"\"\n\n")
	b.WriteString("# [frontends.kotlin]\n")
	b.WriteString("# command = [\"kotlin-decls\", \"--json\"]\n")
	b.WriteString("# extensions = [\".kt\"]\n")
	b.WriteString("# constructor_is_class_name = true\n")
	return b.String()
}
