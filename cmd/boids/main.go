package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	golog "github.com/tochemey/goakt/v3/log"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "boids",
		Short: "Headless 2-D boids flocking engine",
		Long: `boids runs a 2-D flock of self-propelled agents (separation, alignment,
cohesion) on a periodic rectangle, using a uniform grid for neighbour search.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newValidateCmd(),
		newRunCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "boids version %s\n", version)
			}
		},
	}
}

// newLogger builds the goakt logger for the level named by --log-level.
func newLogger(cmd *cobra.Command) (golog.Logger, error) {
	name, _ := cmd.Flags().GetString("log-level")
	var level golog.Level
	switch strings.ToLower(name) {
	case "debug":
		level = golog.DebugLevel
	case "info", "":
		level = golog.InfoLevel
	case "warn", "warning":
		level = golog.WarningLevel
	case "error":
		level = golog.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level %q", name)
	}
	return golog.New(level, cmd.ErrOrStderr()), nil
}
