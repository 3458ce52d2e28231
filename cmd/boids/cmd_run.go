package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/stats"
	"github.com/spf13/cobra"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
)

type runSummary struct {
	RunID   string                `json:"runId,omitempty"`
	Steps   uint64                `json:"steps"`
	Elapsed string                `json:"elapsed"`
	Final   stats.OrderParameters `json:"final"`
	Config  *simulation.Config    `json:"config"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation headless for a number of steps",
		Long: `Run builds the engine from the defaults or --config, starts it and steps
it through the engine actor. Order parameters (polarization, mean speed,
centroid) are logged every --report-every steps and, with --stats-db,
stored in a SQLite database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			cfg, err := runConfig(cmd)
			if err != nil {
				return err
			}
			steps, _ := cmd.Flags().GetUint64("steps")
			reportEvery, _ := cmd.Flags().GetUint64("report-every")
			statsDB, _ := cmd.Flags().GetString("stats-db")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := runSimulation(ctx, cfg, steps, reportEvery, statsDB, logger)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			f := summary.Final
			fmt.Fprintf(cmd.OutOrStdout(), "%d steps in %s: t=%.2f agents=%d polarization=%.3f mean speed=%.3f centroid=%s\n",
				summary.Steps, summary.Elapsed, f.Time, f.Agents, f.Polarization, f.MeanSpeed, f.Centroid)
			if summary.RunID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "recorded as run %s in %s\n", summary.RunID, statsDB)
			}
			return nil
		},
	}

	cmd.Flags().StringP("config", "c", "", "Configuration file (.json, .yaml, .toml)")
	cmd.Flags().Uint64("steps", 1000, "Number of steps to run, 0 runs until interrupted")
	cmd.Flags().Uint64("seed", 0, "Population seed, overrides the configuration")
	cmd.Flags().Int("agents", 0, "Number of agents, overrides the configuration")
	cmd.Flags().Int("workers", 0, "Force phase workers, overrides the configuration")
	cmd.Flags().Uint64("report-every", 100, "Log order parameters every N steps, 0 disables")
	cmd.Flags().String("stats-db", "", "SQLite database receiving the order parameters")
	return cmd
}

// runConfig loads --config (or the defaults) and applies the flag overrides.
func runConfig(cmd *cobra.Command) (*simulation.Config, error) {
	cfg := simulation.DefaultConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := simulation.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed, _ = cmd.Flags().GetUint64("seed")
	}
	if cmd.Flags().Changed("agents") {
		cfg.NumAgents, _ = cmd.Flags().GetInt("agents")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func regionOf(cfg *simulation.Config) geometry.Region {
	return geometry.NewRegion(cfg.RegionX, cfg.RegionY, cfg.RegionWidth, cfg.RegionHeight)
}

// runSimulation drives the engine actor for steps steps (forever when 0)
// or until ctx is cancelled. Cancellation ends the loop, not the run: the
// final state is still measured and recorded.
func runSimulation(ctx context.Context, cfg *simulation.Config, steps, reportEvery uint64, statsDB string, logger golog.Logger) (*runSummary, error) {
	askCtx := context.WithoutCancel(ctx)

	system, err := actor.NewActorSystem("BoidsEngine", actor.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(askCtx); err != nil {
		return nil, fmt.Errorf("failed to start actor system: %w", err)
	}
	defer func() {
		if err := system.Stop(askCtx); err != nil {
			logger.Errorf("actor system stop: %v", err)
		}
	}()

	ctrl, err := simulation.NewController(askCtx, system, "engine", cfg)
	if err != nil {
		return nil, err
	}

	var rec *stats.Recorder
	if statsDB != "" {
		rec, err = stats.OpenRecorder(askCtx, statsDB, cfg, logger)
		if err != nil {
			return nil, err
		}
		defer rec.Close()
	}

	if _, err := ctrl.SetRunning(askCtx, true); err != nil {
		return nil, err
	}

	measure := func() (stats.OrderParameters, uint64, error) {
		snap, err := ctrl.Snapshot(askCtx)
		if err != nil {
			return stats.OrderParameters{}, 0, err
		}
		return stats.Measure(snap.Time, snap.Velocities, snap.Positions), snap.Steps, nil
	}
	report := func(p stats.OrderParameters, step uint64) error {
		logger.Infof("step %d t=%.2f polarization=%.3f mean speed=%.3f centroid=%s",
			step, p.Time, p.Polarization, p.MeanSpeed, p.Centroid)
		if rec == nil {
			return nil
		}
		return rec.Record(askCtx, step, p)
	}

	start := time.Now()
	initial, _, err := measure()
	if err != nil {
		return nil, err
	}
	if err := report(initial, 0); err != nil {
		return nil, err
	}

	var done uint64
	for steps == 0 || done < steps {
		if ctx.Err() != nil {
			logger.Infof("interrupted after %d steps", done)
			break
		}
		if _, err := ctrl.Step(askCtx, cfg.TimeStep); err != nil {
			return nil, err
		}
		done++
		if reportEvery > 0 && done%reportEvery == 0 {
			p, step, err := measure()
			if err != nil {
				return nil, err
			}
			if err := report(p, step); err != nil {
				return nil, err
			}
		}
	}

	final, step, err := measure()
	if err != nil {
		return nil, err
	}
	if reportEvery == 0 || done%reportEvery != 0 {
		if err := report(final, step); err != nil {
			return nil, err
		}
	}

	summary := &runSummary{
		Steps:   step,
		Elapsed: time.Since(start).Round(time.Millisecond).String(),
		Final:   final,
		Config:  cfg,
	}
	if rec != nil {
		summary.RunID = rec.RunID()
	}
	return summary, nil
}
