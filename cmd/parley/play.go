package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/nathoo/parley/cli"
	"github.com/nathoo/parley/config"
	"github.com/nathoo/parley/engine"
	"github.com/nathoo/parley/loader"
	"github.com/nathoo/parley/tui"
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play [game_directory]",
		Short: "Play a game (the default command)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPlay,
	}
	cmd.Flags().Bool("plain", false, "use the line-oriented interface even on a terminal")
	cmd.Flags().String("script", "", "play commands from a file, echoing each one")
	cmd.Flags().Bool("trace", false, "print effects, notifications and diagnostics after each command")
	return cmd
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	plain, _ := cmd.Flags().GetBool("plain")
	trace, _ := cmd.Flags().GetBool("trace")
	script, _ := cmd.Flags().GetString("script")

	fullScreen := script == "" && !plain && isTerminal()
	logger, closer, err := newLogger(cfg, fullScreen)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closer.Close()

	// Load and compile Lua game content.
	defs, err := loader.Load(contentDir(cfg, args), loader.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("loading game: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	eng := engine.New(defs, engine.WithLogger(logger), engine.WithPrompts(prompts(cfg)))

	if fullScreen {
		return tui.Run(ctx, eng, st)
	}

	c := cli.New(eng, st)
	c.Out = cmd.OutOrStdout()
	c.Trace = trace

	// Script mode: read commands from the file and echo them.
	if script != "" {
		f, err := os.Open(script)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		c.In = f
		c.EchoInput = true
	} else {
		c.In = cmd.InOrStdin()
	}
	c.Run(ctx)
	return nil
}

func prompts(cfg config.Config) engine.Prompts {
	return engine.Prompts{
		CanTalk:          cfg.Prompts.CanTalk,
		ConditionsNotMet: cfg.Prompts.ConditionsNotMet,
		NoDialogue:       cfg.Prompts.NoDialogue,
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
