package stats

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
)

func openTestRecorder(t *testing.T, path string) *Recorder {
	t.Helper()
	r, err := OpenRecorder(context.Background(), path, map[string]any{"numAgents": 3}, nil)
	if err != nil {
		t.Fatalf("OpenRecorder: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRecorder_RecordAndSeries(t *testing.T) {
	ctx := context.Background()
	r := openTestRecorder(t, ":memory:")

	if _, err := uuid.Parse(r.RunID()); err != nil {
		t.Errorf("RunID() = %q is not a UUID: %v", r.RunID(), err)
	}

	for step := uint64(3); step >= 1; step-- {
		p := OrderParameters{
			Time:         float64(step) * 0.1,
			Agents:       3,
			Polarization: 0.25 * float64(step),
			MeanSpeed:    0.3,
			Centroid:     geometry.Vector2D{X: float64(step), Y: 2},
		}
		if err := r.Record(ctx, step, p); err != nil {
			t.Fatalf("Record(%d): %v", step, err)
		}
	}

	series, err := r.Series(ctx, "")
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("len(Series) = %d; want 3", len(series))
	}
	for i, s := range series {
		want := uint64(i + 1)
		if s.Step != want {
			t.Errorf("series[%d].Step = %d; want %d (ordered by step)", i, s.Step, want)
		}
		if s.Polarization != 0.25*float64(want) || s.Centroid.X != float64(want) || s.Agents != 3 {
			t.Errorf("series[%d] = %+v", i, s)
		}
	}
}

func TestRecorder_RecordSameStepOverwrites(t *testing.T) {
	ctx := context.Background()
	r := openTestRecorder(t, ":memory:")

	if err := r.Record(ctx, 1, OrderParameters{Polarization: 0.1}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := r.Record(ctx, 1, OrderParameters{Polarization: 0.9}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	series, err := r.Series(ctx, r.RunID())
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if len(series) != 1 || series[0].Polarization != 0.9 {
		t.Errorf("Series = %+v; want a single overwritten sample", series)
	}
}

func TestRecorder_RunsAreSeparated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stats.db")

	first := openTestRecorder(t, path)
	if err := first.Record(ctx, 1, OrderParameters{Agents: 10}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := openTestRecorder(t, path)
	if second.RunID() == first.RunID() {
		t.Fatal("two recorders share a run id")
	}
	own, err := second.Series(ctx, "")
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if len(own) != 0 {
		t.Errorf("new run already has %d samples", len(own))
	}
	old, err := second.Series(ctx, first.RunID())
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if len(old) != 1 || old[0].Agents != 10 {
		t.Errorf("previous run samples = %+v", old)
	}
}
