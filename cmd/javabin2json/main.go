// Command javabin2json converts Solr javabin responses to JSON text or BSON.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	configFile string
	flagConfig *Config
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

func newCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := options{
		flagConfig: defaultConfig(),
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
	}

	cmd := &cobra.Command{
		Use:   "javabin2json [OPTIONS] [FILE...]",
		Short: "Convert javabin to JSON or BSON",
		Long: `Convert javabin to JSON or BSON.

With no FILE, or when FILE is -, read standard input and write standard
output.  Otherwise each FILE is converted to a file of the same base name in
the output directory.  A file may hold several javabin values in a row.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "TOML configuration file")
	installFlags(flags, opts.flagConfig)

	return cmd
}

func run(cmd *cobra.Command, opts options, args []string) error {
	cfg := defaultConfig()
	if opts.configFile != "" {
		if err := loadConfigFile(cfg, opts.configFile); err != nil {
			return err
		}
	}
	mergeFlags(cfg, opts.flagConfig, cmd.Flags())
	if err := cfg.validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	logger := logrus.New()
	logger.SetOutput(opts.stderr)
	logger.SetLevel(cfg.level)

	stdio := len(args) == 0 || (len(args) == 1 && args[0] == "-" && cfg.OutputDir == "")
	if stdio {
		n, err := convertStream(opts.stdin, opts.stdout, cfg)
		if err != nil {
			logger.WithField("input", "-").WithError(err).Error("conversion failed")
			return errors.Wrap(err, "converting standard input")
		}
		logger.WithField("values", n).Debug("converted standard input")
		return nil
	}

	for _, arg := range args {
		if arg == "-" {
			return errors.New("- cannot be combined with other inputs or an output directory")
		}
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	return convertFiles(args, cfg, logger)
}

func main() {
	cmd := newCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "javabin2json: %s\n", err)
		os.Exit(1)
	}
}
