package main

import (
	"encoding/binary"
	"os"
	"runtime"

	"github.com/docker/go-units"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// Config holds the converter settings.  Values come from the defaults, then
// an optional TOML file, then any flags set on the command line.
type Config struct {
	Format     string `toml:"format"`
	BufferSize string `toml:"buffer_size"`
	Encoding   string `toml:"encoding"`
	MaxDepth   int    `toml:"max_depth"`
	Workers    int    `toml:"workers"`
	Decompress string `toml:"decompress"`
	LogLevel   string `toml:"log_level"`
	OutputDir  string `toml:"output_dir"`

	// Resolved by validate.
	bufferBytes int
	order       binary.ByteOrder
	level       logrus.Level
}

// defaultConfig returns the built-in settings.
func defaultConfig() *Config {
	return &Config{
		Format:     "json",
		BufferSize: "8KiB",
		Encoding:   "utf-8",
		Workers:    runtime.NumCPU(),
		Decompress: "auto",
		LogLevel:   "info",
	}
}

// loadConfigFile overlays the TOML file at path on cfg.  Keys absent from the
// file keep their current values.
func loadConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading config file")
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}
	return nil
}

// installFlags registers the command-line form of every config key.
func installFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.StringVarP(&cfg.Format, "format", "f", cfg.Format, "Output format (json|bson)")
	flags.StringVar(&cfg.BufferSize, "buffer-size", cfg.BufferSize, "Input buffer size, e.g. 64KiB")
	flags.StringVar(&cfg.Encoding, "encoding", cfg.Encoding, "JSON text encoding (utf-8|utf-16le|utf-16be)")
	flags.IntVar(&cfg.MaxDepth, "max-depth", cfg.MaxDepth, "Maximum container nesting, 0 for no limit")
	flags.IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "Number of files converted concurrently")
	flags.StringVar(&cfg.Decompress, "decompress", cfg.Decompress, "Input compression (auto|none|gzip|zstd)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Logging level (debug|info|warn|error)")
	flags.StringVarP(&cfg.OutputDir, "output-dir", "o", cfg.OutputDir, "Directory for converted files")
}

// mergeFlags copies the flags that were set explicitly from flagCfg into
// cfg, so they win over the config file.
func mergeFlags(cfg, flagCfg *Config, flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "format":
			cfg.Format = flagCfg.Format
		case "buffer-size":
			cfg.BufferSize = flagCfg.BufferSize
		case "encoding":
			cfg.Encoding = flagCfg.Encoding
		case "max-depth":
			cfg.MaxDepth = flagCfg.MaxDepth
		case "workers":
			cfg.Workers = flagCfg.Workers
		case "decompress":
			cfg.Decompress = flagCfg.Decompress
		case "log-level":
			cfg.LogLevel = flagCfg.LogLevel
		case "output-dir":
			cfg.OutputDir = flagCfg.OutputDir
		}
	})
}

// validate checks every key and resolves the derived settings.
func (cfg *Config) validate() error {
	switch cfg.Format {
	case "json", "bson":
	default:
		return errors.Errorf("format: invalid value %q (want json or bson)", cfg.Format)
	}

	size, err := units.RAMInBytes(cfg.BufferSize)
	if err != nil {
		return errors.Wrap(err, "buffer_size")
	}
	if size <= 0 || size > 1<<30 {
		return errors.Errorf("buffer_size: %s is out of range", cfg.BufferSize)
	}
	cfg.bufferBytes = int(size)

	switch cfg.Encoding {
	case "utf-8":
		cfg.order = nil
	case "utf-16le":
		cfg.order = binary.LittleEndian
	case "utf-16be":
		cfg.order = binary.BigEndian
	default:
		return errors.Errorf("encoding: invalid value %q (want utf-8, utf-16le or utf-16be)", cfg.Encoding)
	}
	if cfg.order != nil && cfg.Format != "json" {
		return errors.Errorf("encoding: %s only applies to json output", cfg.Encoding)
	}

	if cfg.MaxDepth < 0 {
		return errors.Errorf("max_depth: must not be negative, got %d", cfg.MaxDepth)
	}
	if cfg.Workers < 1 {
		return errors.Errorf("workers: must be at least 1, got %d", cfg.Workers)
	}

	switch cfg.Decompress {
	case "auto", "none", "gzip", "zstd":
	default:
		return errors.Errorf("decompress: invalid value %q (want auto, none, gzip or zstd)", cfg.Decompress)
	}

	cfg.level, err = logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, "log_level")
	}
	return nil
}

// extension is the output file suffix for the configured format.
func (cfg *Config) extension() string {
	return "." + cfg.Format
}
