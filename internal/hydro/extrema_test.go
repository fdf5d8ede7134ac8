package hydro

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"slices"
	"testing"
)

func ex(index int, k Kind) Extremum {
	return Extremum{Index: index, Kind: k}
}

func TestFindExtrema(t *testing.T) {
	sine := make([]float64, 60)
	for i := range sine {
		sine[i] = math.Sin(2 * math.Pi * float64(i) / 20)
	}

	tests := []struct {
		name      string
		h         []float64
		deltan    int
		want      []Extremum
		wantAdded []int
	}{
		{
			name:   "sine wave",
			h:      sine,
			deltan: 5,
			want: []Extremum{
				ex(0, Minimum), ex(5, Maximum), ex(15, Minimum), ex(25, Maximum),
				ex(35, Minimum), ex(45, Maximum), ex(55, Minimum), ex(59, Maximum),
			},
		},
		{
			name:   "plateaus report their midpoint",
			h:      []float64{0, 1, 2, 3, 3, 3, 2, 1, 0, 0, 1, 2, 3},
			deltan: 2,
			want:   []Extremum{ex(0, Minimum), ex(4, Maximum), ex(8, Minimum), ex(12, Maximum)},
		},
		{
			name:   "monotonic series wider than the scale",
			h:      []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
			deltan: 10,
			want:   []Extremum{ex(0, Minimum), ex(9, Maximum)},
		},
		{
			name:      "weak rebounds get inserted extrema",
			h:         []float64{1, 6, 3, 3, 3, 6, 4, 3, 5, 6},
			deltan:    3,
			want:      []Extremum{ex(0, Minimum), ex(1, Maximum), ex(3, Minimum), ex(5, Maximum), ex(7, Minimum)},
			wantAdded: []int{2, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, added, err := FindExtrema(context.Background(), tt.h, tt.deltan)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("extrema = %v, expected %v", got, tt.want)
			}
			if !slices.Equal(added, tt.wantAdded) {
				t.Errorf("added = %v, expected %v", added, tt.wantAdded)
			}
		})
	}
}

func TestFindExtremaInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		h      []float64
		deltan int
	}{
		{"zero scale", []float64{1, 2, 3}, 0},
		{"negative scale", []float64{1, 2, 3}, -4},
		{"single sample", []float64{1}, 3},
		{"empty", nil, 3},
		{"NaN level", []float64{1, math.NaN(), 3}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, added, err := FindExtrema(context.Background(), tt.h, tt.deltan)
			if !IsInputError(err) {
				t.Fatalf("expected InputError, got %v", err)
			}
			if got != nil || added != nil {
				t.Errorf("expected no output on error, got %v %v", got, added)
			}
		})
	}
}

func TestFindExtremaCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := FindExtrema(ctx, []float64{1, 3, 2, 4, 1}, 1)
	if !IsCancelled(err) {
		t.Fatalf("expected CancelledError, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected the context error to be wrapped, got %v", err)
	}
}

// Alternation, bounds and determinism over random quantized series, which are
// rich in plateaus and same-kind runs.
func TestFindExtremaProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 2000; trial++ {
		n := 2 + rng.Intn(60)
		h := make([]float64, n)
		for i := range h {
			h[i] = float64(rng.Intn(6))
		}
		deltan := 1 + rng.Intn(8)

		got, added, err := FindExtrema(context.Background(), h, deltan)
		if err != nil {
			t.Fatalf("h=%v deltan=%d: unexpected error: %v", h, deltan, err)
		}

		for i, e := range got {
			if e.Index < 0 || e.Index >= n {
				t.Fatalf("h=%v deltan=%d: extremum %d at %d out of bounds", h, deltan, i, e.Index)
			}
			if i > 0 && got[i-1].Kind == e.Kind {
				t.Fatalf("h=%v deltan=%d: extrema %d and %d are both %v", h, deltan, i-1, i, e.Kind)
			}
		}
		for _, k := range added {
			if k < 0 || k >= len(got) {
				t.Fatalf("h=%v deltan=%d: added ordinal %d out of range", h, deltan, k)
			}
		}

		again, againAdded, _ := FindExtrema(context.Background(), h, deltan)
		if !slices.Equal(got, again) || !slices.Equal(added, againAdded) {
			t.Fatalf("h=%v deltan=%d: repeated call differs", h, deltan)
		}
	}
}

func TestExtremumSigned(t *testing.T) {
	if got := ex(7, Maximum).Signed(); got != 7 {
		t.Errorf("maximum at 7 signed = %d, expected 7", got)
	}
	if got := ex(7, Minimum).Signed(); got != -7 {
		t.Errorf("minimum at 7 signed = %d, expected -7", got)
	}
}

func TestKindText(t *testing.T) {
	for _, k := range []Kind{Maximum, Minimum} {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", k, err)
		}
		var back Kind
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if back != k {
			t.Errorf("round trip of %v gave %v", k, back)
		}
	}
	var k Kind
	if err := k.UnmarshalText([]byte("peak")); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}
