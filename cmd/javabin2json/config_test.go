package main

import (
	"encoding/binary"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
	"gotest.tools/v3/fs"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	assert.NilError(t, cfg.validate())
	assert.Check(t, is.Equal(cfg.bufferBytes, 8192))
	assert.Check(t, cfg.order == nil)
	assert.Check(t, is.Equal(cfg.level, logrus.InfoLevel))
	assert.Check(t, is.Equal(cfg.extension(), ".json"))
}

func TestLoadConfigFile(t *testing.T) {
	dir := fs.NewDir(t, "javabin2json", fs.WithFile("config.toml", `
format = "bson"
buffer_size = "64KiB"
max_depth = 32
workers = 3
`))
	defer dir.Remove()

	cfg := defaultConfig()
	assert.NilError(t, loadConfigFile(cfg, dir.Join("config.toml")))
	assert.NilError(t, cfg.validate())

	assert.Check(t, is.Equal(cfg.Format, "bson"))
	assert.Check(t, is.Equal(cfg.bufferBytes, 64*1024))
	assert.Check(t, is.Equal(cfg.MaxDepth, 32))
	assert.Check(t, is.Equal(cfg.Workers, 3))
	// Untouched keys keep their defaults.
	assert.Check(t, is.Equal(cfg.Decompress, "auto"))
	assert.Check(t, is.Equal(cfg.Encoding, "utf-8"))
}

func TestLoadConfigFileErrors(t *testing.T) {
	dir := fs.NewDir(t, "javabin2json", fs.WithFile("broken.toml", `format = `))
	defer dir.Remove()

	err := loadConfigFile(defaultConfig(), dir.Join("broken.toml"))
	assert.ErrorContains(t, err, "parsing config file")

	err = loadConfigFile(defaultConfig(), dir.Join("missing.toml"))
	assert.ErrorContains(t, err, "reading config file")
}

func TestFlagsOverrideFile(t *testing.T) {
	dir := fs.NewDir(t, "javabin2json", fs.WithFile("config.toml", `
format = "bson"
workers = 3
log_level = "debug"
`))
	defer dir.Remove()

	flagCfg := defaultConfig()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	installFlags(flags, flagCfg)
	assert.NilError(t, flags.Parse([]string{"--format", "json", "--encoding=utf-16be"}))

	cfg := defaultConfig()
	assert.NilError(t, loadConfigFile(cfg, dir.Join("config.toml")))
	mergeFlags(cfg, flagCfg, flags)
	assert.NilError(t, cfg.validate())

	assert.Check(t, is.Equal(cfg.Format, "json"))
	assert.Check(t, is.Equal(cfg.order, binary.ByteOrder(binary.BigEndian)))
	// Flags left at their defaults do not clobber the file.
	assert.Check(t, is.Equal(cfg.Workers, 3))
	assert.Check(t, is.Equal(cfg.level, logrus.DebugLevel))
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		label  string
		modify func(*Config)
		errStr string
	}{
		{
			label:  "format",
			modify: func(c *Config) { c.Format = "xml" },
			errStr: `format: invalid value "xml"`,
		},
		{
			label:  "buffer size syntax",
			modify: func(c *Config) { c.BufferSize = "lots" },
			errStr: "buffer_size",
		},
		{
			label:  "buffer size range",
			modify: func(c *Config) { c.BufferSize = "4GiB" },
			errStr: "buffer_size: 4GiB is out of range",
		},
		{
			label:  "encoding",
			modify: func(c *Config) { c.Encoding = "latin1" },
			errStr: `encoding: invalid value "latin1"`,
		},
		{
			label: "encoding with bson",
			modify: func(c *Config) {
				c.Format = "bson"
				c.Encoding = "utf-16le"
			},
			errStr: "encoding: utf-16le only applies to json output",
		},
		{
			label:  "max depth",
			modify: func(c *Config) { c.MaxDepth = -1 },
			errStr: "max_depth",
		},
		{
			label:  "workers",
			modify: func(c *Config) { c.Workers = 0 },
			errStr: "workers: must be at least 1",
		},
		{
			label:  "decompress",
			modify: func(c *Config) { c.Decompress = "xz" },
			errStr: `decompress: invalid value "xz"`,
		},
		{
			label:  "log level",
			modify: func(c *Config) { c.LogLevel = "chatty" },
			errStr: "log_level",
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.label, func(t *testing.T) {
			cfg := defaultConfig()
			c.modify(cfg)
			assert.ErrorContains(t, cfg.validate(), c.errStr)
		})
	}
}
