package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nathoo/parley/loader"
	"github.com/nathoo/parley/logging"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [game_directory]",
		Short: "Check game content for broken references and malformed dialogue graphs",
		Long: `Loads the content like play does and prints every error and warning.
Exits non-zero when there are errors; warnings alone pass.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dir := contentDir(cfg, args)
	logger := logging.New(cmd.ErrOrStderr(), cfg.Log.Level)

	defs, report, err := loader.Check(dir, loader.WithLogger(logger))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range report.Errors {
		fmt.Fprintf(out, "error: %s\n", e)
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	if len(report.Errors) > 0 {
		return fmt.Errorf("%s: %d error(s), %d warning(s)", dir, len(report.Errors), len(report.Warnings))
	}

	fmt.Fprintf(out, "%s: ok (%d quests, %d NPCs, %d dialogues, %d warning(s))\n",
		dir, len(defs.Quests), len(defs.NPCs), len(defs.Graphs), len(report.Warnings))
	return nil
}
