package geometry

import (
	"math"
	"testing"
)

// floatEquals is a helper for testing scalar float values with epsilon.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

func TestNewVector(t *testing.T) {
	v := NewVector(1, 2)
	if v.X != 1 || v.Y != 2 {
		t.Errorf("NewVector(1, 2) = %v; want (1, 2)", v)
	}
}

func TestVector_String(t *testing.T) {
	v := Vector2D{1.234, 5.678}
	want := "(1.23, 5.68)"
	if got := v.String(); got != want {
		t.Errorf("Vector2D.String() = %q; want %q", got, want)
	}
}

func TestVector_Arithmetic(t *testing.T) {
	v1 := Vector2D{1, 2}
	v2 := Vector2D{3, 4}

	t.Run("Add", func(t *testing.T) {
		want := Vector2D{4, 6}
		if got := v1.Add(v2); !got.Eq(want) {
			t.Errorf("%v.Add(%v) = %v; want %v", v1, v2, got, want)
		}
	})

	t.Run("Sub", func(t *testing.T) {
		want := Vector2D{-2, -2}
		if got := v1.Sub(v2); !got.Eq(want) {
			t.Errorf("%v.Sub(%v) = %v; want %v", v1, v2, got, want)
		}
		// Sub must not touch its operands
		if v1 != (Vector2D{1, 2}) || v2 != (Vector2D{3, 4}) {
			t.Errorf("Sub mutated its operands: %v %v", v1, v2)
		}
	})

	t.Run("Mul", func(t *testing.T) {
		want := Vector2D{2, 4}
		if got := v1.Mul(2); !got.Eq(want) {
			t.Errorf("%v.Mul(2) = %v; want %v", v1, got, want)
		}
	})

	t.Run("AddScaled", func(t *testing.T) {
		v := Vector2D{1, 1}
		v.AddScaled(Vector2D{2, -4}, 0.5)
		if want := (Vector2D{2, -1}); !v.Eq(want) {
			t.Errorf("AddScaled = %v; want %v", v, want)
		}
	})
}

func TestVector_Dot(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector2D
		want float64
	}{
		{"Orthogonal", Vector2D{1, 0}, Vector2D{0, 1}, 0},
		{"Parallel", Vector2D{1, 0}, Vector2D{2, 0}, 2},
		{"Opposite", Vector2D{1, 2}, Vector2D{-1, -2}, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Dot(tt.b); !floatEquals(got, tt.want) {
				t.Errorf("%v.Dot(%v) = %v; want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestVector_Len(t *testing.T) {
	v := Vector2D{3, 4}
	if got := v.Len(); !floatEquals(got, 5) {
		t.Errorf("Len() = %v; want 5", got)
	}
	if got := v.LenSqr(); !floatEquals(got, 25) {
		t.Errorf("LenSqr() = %v; want 25", got)
	}
	if got := v.DistanceTo(Vector2D{0, 0}); !floatEquals(got, 5) {
		t.Errorf("DistanceTo() = %v; want 5", got)
	}
}

func TestVector_Unit(t *testing.T) {
	t.Run("ZeroStaysZero", func(t *testing.T) {
		v := Vector2D{0, 0}
		v.Unit()
		if v.X != 0 || v.Y != 0 {
			t.Errorf("Unit() of zero vector = %v; want (0, 0)", v)
		}
	})

	tests := []Vector2D{{3, 4}, {-0.001, 0}, {1e6, -2e6}, {0, -7}}
	for _, in := range tests {
		t.Run(in.String(), func(t *testing.T) {
			v := in
			v.Unit()
			if !floatEquals(v.Len(), 1) {
				t.Errorf("Unit(%v) has magnitude %v; want 1", in, v.Len())
			}
			// same direction: parallel and same sign
			if !floatEquals(v.Dot(in)/in.Len(), 1) {
				t.Errorf("Unit(%v) = %v changed direction", in, v)
			}
		})
	}

	t.Run("NormalizeIsPure", func(t *testing.T) {
		v := Vector2D{0, 2}
		got := v.Normalize()
		if !got.Eq(Vector2D{0, 1}) || v != (Vector2D{0, 2}) {
			t.Errorf("Normalize() = %v, receiver %v", got, v)
		}
	})
}

func TestVector_LimitMax(t *testing.T) {
	t.Run("ShortVectorUnchanged", func(t *testing.T) {
		v := Vector2D{0.3, 0.4}
		v.LimitMax(0.6)
		if v != (Vector2D{0.3, 0.4}) {
			t.Errorf("LimitMax changed a vector below the limit: %v", v)
		}
	})

	t.Run("RescalesToLimit", func(t *testing.T) {
		v := Vector2D{3, 4}
		v.LimitMax(1)
		if !floatEquals(v.Len(), 1) {
			t.Errorf("LimitMax(1) magnitude = %v; want 1", v.Len())
		}
		if !v.Eq(Vector2D{0.6, 0.8}) {
			t.Errorf("LimitMax(1) = %v; want (0.6, 0.8)", v)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		for _, in := range []Vector2D{{10, -10}, {0.1, 0.1}, {0, 0}, {-5, 0}} {
			once := in
			once.LimitMax(2)
			twice := once
			twice.LimitMax(2)
			if !once.Eq(twice) {
				t.Errorf("LimitMax not idempotent for %v: %v then %v", in, once, twice)
			}
		}
	})
}

func TestVector_Angle(t *testing.T) {
	if got := (Vector2D{0, 1}).Angle(); !floatEquals(got, math.Pi/2) {
		t.Errorf("Angle() = %v; want Pi/2", got)
	}
}
