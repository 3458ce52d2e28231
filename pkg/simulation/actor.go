package simulation

import (
	"fmt"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// EngineActor owns an Engine and serialises every access to it through its
// mailbox, so step and reset can never overlap.
//
// Protocol:
//
//	*wrapperspb.DoubleValue  step(dt), replies the clock as DoubleValue
//	*wrapperspb.BoolValue    set running, replies the new flag as BoolValue
//	*wrapperspb.UInt64Value  reset with seed (0 keeps the configured seed, a nonzero
//	                         seed becomes the configured one), replies Empty
//	*emptypb.Empty           snapshot, replies a Struct (see snapshotToProto)
//
// Failures reply a *wrapperspb.StringValue holding the error text.
type EngineActor struct {
	cfg    *Config
	opts   []Option
	engine *Engine

	// --- Benchmark Stats ---
	stepCount   int
	lastLogTime time.Time
}

var _ actor.Actor = (*EngineActor)(nil)

// NewEngineActor creates the actor; the engine itself is built in PreStart.
func NewEngineActor(cfg *Config, opts ...Option) *EngineActor {
	return &EngineActor{
		cfg:  cfg,
		opts: opts,
	}
}

func (w *EngineActor) PreStart(ctx *actor.Context) error {
	opts := append([]Option{WithLogger(ctx.ActorSystem().Logger())}, w.opts...)
	engine, err := NewEngine(w.cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	w.engine = engine
	w.lastLogTime = time.Now()
	return nil
}

func (w *EngineActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {

	case *goaktpb.PostStart:
		ctx.Logger().Infof("Engine started with %d agents", w.engine.ActiveCount())

	case *wrapperspb.DoubleValue:
		if err := w.engine.Step(msg.GetValue()); err != nil {
			ctx.Logger().Errorf("step failed: %v", err)
			ctx.Response(wrapperspb.String(err.Error()))
			return
		}
		w.stepCount++
		w.logBenchmarks(ctx)
		ctx.Response(wrapperspb.Double(w.engine.Time()))

	case *wrapperspb.BoolValue:
		w.engine.SetRunning(msg.GetValue())
		ctx.Response(wrapperspb.Bool(w.engine.IsRunning()))

	case *wrapperspb.UInt64Value:
		cfg := w.engine.Config()
		if msg.GetValue() != 0 {
			cfg.Seed = msg.GetValue()
		}
		if err := w.engine.Reset(&cfg); err != nil {
			ctx.Logger().Errorf("reset failed: %v", err)
			ctx.Response(wrapperspb.String(err.Error()))
			return
		}
		ctx.Response(&emptypb.Empty{})

	case *emptypb.Empty:
		snap, err := snapshotToProto(w.engine.Snapshot())
		if err != nil {
			ctx.Response(wrapperspb.String(err.Error()))
			return
		}
		ctx.Response(snap)

	default:
		ctx.Unhandled()
	}
}

func (w *EngineActor) logBenchmarks(ctx *actor.ReceiveContext) {
	if time.Since(w.lastLogTime) >= time.Second {
		ctx.Logger().Debugf("📊 STEP RATE: %d/sec | t=%.2f | Agents: %d",
			w.stepCount, w.engine.Time(), w.engine.ActiveCount())
		w.stepCount = 0
		w.lastLogTime = time.Now()
	}
}

func (w *EngineActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Info("Engine is shutdown...")
	return nil
}

// snapshotToProto flattens a Snapshot into a Struct with the fields
// time, steps, running, positions [x0,y0,x1,y1,...] and velocities.
func snapshotToProto(s *Snapshot) (*structpb.Struct, error) {
	positions := make([]interface{}, 0, 2*len(s.Positions))
	for _, p := range s.Positions {
		positions = append(positions, p.X, p.Y)
	}
	velocities := make([]interface{}, 0, 2*len(s.Velocities))
	for _, v := range s.Velocities {
		velocities = append(velocities, v.X, v.Y)
	}
	return structpb.NewStruct(map[string]interface{}{
		"time":       s.Time,
		"steps":      float64(s.Steps),
		"running":    s.Running,
		"positions":  positions,
		"velocities": velocities,
	})
}
