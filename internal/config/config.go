package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"

	"github.com/Someblueman/phpattr/internal/metadata"
	"github.com/Someblueman/phpattr/internal/rewrite"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "phpattr.toml"

//go:embed example.toml
var exampleConfig []byte

// ErrExists is returned by WriteExample when the target already exists.
var ErrExists = errors.New("config file already exists")

// Config is the migration configuration.
type Config struct {
	Dirs                    []string          `toml:"dirs"`
	Index                   string            `toml:"index"`
	CacheDir                string            `toml:"cache_dir"`
	Strategy                string            `toml:"strategy"`
	DryRun                  bool              `toml:"dry_run"`
	CatchContinue           bool              `toml:"catch_continue"`
	ErrorContinue           bool              `toml:"error_continue"`
	Jobs                    int               `toml:"jobs"`
	LogLevel                string            `toml:"log_level"`
	PromoteCommentTypes     bool              `toml:"promote_comment_types"`
	AnnotationBase          string            `toml:"annotation_base"`
	DataParam               string            `toml:"data_param"`
	GlobalIgnoredNames      []string          `toml:"global_ignored_names"`
	GlobalIgnoredNamespaces []string          `toml:"global_ignored_namespaces"`
	GlobalImports           map[string]string `toml:"global_imports"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	opts := rewrite.DefaultOptions()
	return Config{
		Dirs:           []string{"src"},
		Index:          "annotations.yaml",
		CacheDir:       ".phpattr-cache",
		Strategy:       opts.Strategy,
		CatchContinue:  true,
		ErrorContinue:  true,
		Jobs:           1,
		LogLevel:       "warn",
		AnnotationBase: opts.AnnotationBase,
		DataParam:      opts.DataParam,
	}
}

// Load reads path on top of DefaultConfig. A missing file is not an error
// unless required is set; the bool result reports whether it was read.
func Load(path string, required bool) (Config, bool, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = FileName
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, false, nil
		}
		return cfg, false, errors.Wrapf(err, "stat %s", path)
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, false, errors.Wrapf(err, "%s: parse TOML", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return cfg, false, errors.Newf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, false, errors.Wrapf(err, "%s", path)
	}
	return cfg, true, nil
}

// Validate checks values that cannot be checked by decoding alone.
func (c Config) Validate() error {
	if len(c.Dirs) == 0 {
		return errors.New("dirs must name at least one directory")
	}
	if c.Index == "" {
		return errors.New("index is required")
	}
	if c.Jobs < 0 {
		return errors.Newf("jobs must not be negative, got %d", c.Jobs)
	}
	registry := rewrite.DefaultStrategyRegistry()
	if _, ok := registry.StrategyFor(c.Strategy); !ok {
		return errors.Newf("unknown strategy %q (known: %s)", c.Strategy, strings.Join(registry.Names(), ", "))
	}
	return nil
}

// MetadataOptions returns the index options derived from c.
func (c Config) MetadataOptions() metadata.Options {
	return metadata.Options{
		IgnoredNames:      c.GlobalIgnoredNames,
		IgnoredNamespaces: c.GlobalIgnoredNamespaces,
		GlobalImports:     c.GlobalImports,
	}
}

// RewriteOptions returns the generation options derived from c.
func (c Config) RewriteOptions() rewrite.Options {
	return rewrite.Options{
		Strategy:            c.Strategy,
		PromoteCommentTypes: c.PromoteCommentTypes,
		AnnotationBase:      c.AnnotationBase,
		DataParam:           c.DataParam,
	}
}

// WriteExample writes the commented example configuration to path. It
// refuses to overwrite an existing file.
func WriteExample(path string) error {
	if path == "" {
		path = FileName
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return errors.Mark(errors.Newf("%s already exists", path), ErrExists)
		}
		return errors.Wrapf(err, "create %s", path)
	}
	if _, err := f.Write(exampleConfig); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return f.Close()
}
