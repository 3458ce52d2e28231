package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
	"github.com/tochemey/goakt/v3/actor"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// DefaultAskTimeout bounds every request sent to the engine actor.
const DefaultAskTimeout = 5 * time.Second

// Controller is the driving side of the engine: it spawns an EngineActor
// and talks to it with request/response messages.
type Controller struct {
	system  actor.ActorSystem
	pid     *actor.PID
	timeout time.Duration
}

// NewController spawns the engine actor named name in system.
func NewController(ctx context.Context, system actor.ActorSystem, name string, cfg *Config, opts ...Option) (*Controller, error) {
	pid, err := system.Spawn(ctx, name, NewEngineActor(cfg, opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to spawn engine: %w", err)
	}
	return &Controller{
		system:  system,
		pid:     pid,
		timeout: DefaultAskTimeout,
	}, nil
}

// Step asks the engine for one step of dt and returns the clock after it.
func (c *Controller) Step(ctx context.Context, dt float64) (float64, error) {
	resp, err := c.ask(ctx, wrapperspb.Double(dt))
	if err != nil {
		return 0, err
	}
	v, ok := resp.(*wrapperspb.DoubleValue)
	if !ok {
		return 0, unexpected(resp)
	}
	return v.GetValue(), nil
}

// SetRunning starts or pauses the engine.
func (c *Controller) SetRunning(ctx context.Context, running bool) (bool, error) {
	resp, err := c.ask(ctx, wrapperspb.Bool(running))
	if err != nil {
		return false, err
	}
	v, ok := resp.(*wrapperspb.BoolValue)
	if !ok {
		return false, unexpected(resp)
	}
	return v.GetValue(), nil
}

// Reset draws a new population. A zero seed keeps the configured one, so
// it reproduces the same population when Config.Seed is set and draws a
// random one only when Config.Seed is 0. A nonzero seed replaces the
// configured one for this and later resets. Use ResetRandom to get a fresh
// population whatever the configuration.
func (c *Controller) Reset(ctx context.Context, seed uint64) error {
	resp, err := c.ask(ctx, wrapperspb.UInt64(seed))
	if err != nil {
		return err
	}
	if _, ok := resp.(*emptypb.Empty); !ok {
		return unexpected(resp)
	}
	return nil
}

// ResetRandom draws a population from a new random seed and returns that
// seed, so the run can be reproduced later with Reset.
func (c *Controller) ResetRandom(ctx context.Context) (uint64, error) {
	seed := rand.Uint64()
	for seed == 0 {
		seed = rand.Uint64()
	}
	if err := c.Reset(ctx, seed); err != nil {
		return 0, err
	}
	return seed, nil
}

// Snapshot fetches a copy of the engine state.
func (c *Controller) Snapshot(ctx context.Context) (*Snapshot, error) {
	resp, err := c.ask(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	st, ok := resp.(*structpb.Struct)
	if !ok {
		return nil, unexpected(resp)
	}
	return snapshotFromProto(st), nil
}

// Stop shuts the engine actor down.
func (c *Controller) Stop(ctx context.Context) error {
	return c.pid.Shutdown(ctx)
}

func (c *Controller) ask(ctx context.Context, msg proto.Message) (proto.Message, error) {
	resp, err := actor.Ask(ctx, c.pid, msg, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	if failure, ok := resp.(*wrapperspb.StringValue); ok {
		return nil, errors.New(failure.GetValue())
	}
	return resp, nil
}

func unexpected(resp proto.Message) error {
	return fmt.Errorf("unexpected engine response %T", resp)
}

func snapshotFromProto(st *structpb.Struct) *Snapshot {
	fields := st.GetFields()
	return &Snapshot{
		Time:       fields["time"].GetNumberValue(),
		Steps:      uint64(fields["steps"].GetNumberValue()),
		Running:    fields["running"].GetBoolValue(),
		Positions:  pairs(fields["positions"].GetListValue()),
		Velocities: pairs(fields["velocities"].GetListValue()),
	}
}

func pairs(list *structpb.ListValue) []geometry.Vector2D {
	values := list.GetValues()
	out := make([]geometry.Vector2D, 0, len(values)/2)
	for i := 0; i+1 < len(values); i += 2 {
		out = append(out, geometry.Vector2D{
			X: values[i].GetNumberValue(),
			Y: values[i+1].GetNumberValue(),
		})
	}
	return out
}
