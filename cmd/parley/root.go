package main

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nathoo/parley/config"
	"github.com/nathoo/parley/logging"
)

// defaultConfigFile is read when present and --config is not given.
const defaultConfigFile = "parley.yaml"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "parley [game_directory]",
		Short:         "Parley plays NPC conversations and the quests they hand out",
		Long:          `Parley loads Lua content (Game, Quest, NPC and Dialogue definitions) and plays it in a terminal.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "configuration file (default ./"+defaultConfigFile+" when present)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")

	play := newPlayCmd()
	root.Flags().AddFlagSet(play.Flags())
	root.RunE = play.RunE

	root.AddCommand(play, newValidateCmd(), newGraphCmd(), newVersionCmd())
	return root
}

// loadConfig reads the configuration named by --config, or the default
// file when it exists, and applies the --log-level override.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	var (
		cfg config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOptional(defaultConfigFile)
	}
	if err != nil {
		return config.Config{}, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

// contentDir picks the positional game directory over the configured one.
func contentDir(cfg config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.ContentDir
}

// newLogger logs to stderr, or to the configured file when the terminal
// belongs to the full screen UI. The returned closer is never nil.
func newLogger(cfg config.Config, fullScreen bool) (*log.Logger, io.Closer, error) {
	if !fullScreen {
		return logging.New(os.Stderr, cfg.Log.Level), nopCloser{}, nil
	}
	if cfg.Log.File == "" {
		return logging.Discard(), nopCloser{}, nil
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return logging.New(f, cfg.Log.Level), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
