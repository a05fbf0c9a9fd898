package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nathoo/parley/engine"
	"github.com/nathoo/parley/loader"
	"github.com/nathoo/parley/logging"
)

func newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph <game_directory> <dialogue>",
		Short: "Export a dialogue graph as a Mermaid diagram",
		Long: `Prints the dialogue as a Mermaid flowchart (graph TD). Nodes hidden
under a fresh playthrough's quest state are marked.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defs, err := loader.Load(args[0], loader.WithLogger(logging.New(cmd.ErrOrStderr(), cfg.Log.Level)))
			if err != nil {
				return fmt.Errorf("loading game: %w", err)
			}
			out, err := engine.New(defs).Diagram(args[1])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
