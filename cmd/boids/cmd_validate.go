package main

import (
	"encoding/json"
	"fmt"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/simulation"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a JSON, YAML or TOML configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := simulation.LoadConfig(args[0])
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}
			nx, ny := cellCount(cfg)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d agents, cell size %.3f, %dx%d cells)\n",
				args[0], cfg.NumAgents, cfg.CellSize(), nx, ny)
			return nil
		},
	}
}

func cellCount(cfg *simulation.Config) (int, int) {
	g, err := simulation.NewGrid(regionOf(cfg), cfg.CellSize())
	if err != nil {
		return 0, 0
	}
	return g.Dims()
}
