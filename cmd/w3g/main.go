package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/condor/w3g-decoder/internal/config"
	"github.com/condor/w3g-decoder/pkg/w3g"
)

type rootFlags struct {
	configPath string
	logLevel   string
	strict     bool
	workers    int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	var conf config.Config

	root := &cobra.Command{
		Use:           "w3g",
		Short:         "Decode Warcraft III replay files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if conf, err = loadConfig(flags.configPath); err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				conf.Log.Level = flags.logLevel
			}
			if cmd.Flags().Changed("strict") {
				conf.Decode.Strict = flags.strict
			}
			if cmd.Flags().Changed("workers") {
				conf.Decode.Workers = flags.workers
			}
			setupLogger(conf.Log)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "w3g.toml", "path to config file")
	pf.StringVar(&flags.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.BoolVar(&flags.strict, "strict", false, "require the magic string and verify block checksums")
	pf.IntVar(&flags.workers, "workers", 1, "number of blocks inflated concurrently")

	root.AddCommand(
		newParseCmd(&conf),
		newInfoCmd(&conf),
		newHeaderCmd(),
	)
	return root
}

// loadConfig reads the config file, falling back to defaults when it does not exist.
func loadConfig(path string) (config.Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	c, err := config.Load(f)
	if err != nil {
		return c, fmt.Errorf("load config %s: %w", path, err)
	}
	return c, nil
}

func setupLogger(c config.Log) {
	zerolog.SetGlobalLevel(c.ZerologLevel())
	if c.Format == config.LogFormatConsole {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

func newParser(conf *config.Config, diag w3g.Diagnostics) *w3g.Parser {
	return w3g.NewParser(
		w3g.WithStrict(conf.Decode.Strict),
		w3g.WithWorkers(conf.Decode.Workers),
		w3g.WithDiagnostics(diag),
	)
}
