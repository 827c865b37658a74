package seedrand

import (
	"errors"
	"math"
	"testing"
)

func TestChoiceEmpty(t *testing.T) {
	_, err := Choice[string](New("empty"), nil)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Choice(nil) error = %v, want ErrInvalidArgument", err)
	}
}

func TestChoiceInvalidWeights(t *testing.T) {
	tests := []struct {
		name  string
		items []Weighted[string]
	}{
		{"negative", []Weighted[string]{{"a", 1}, {"b", -1}}},
		{"all zero", []Weighted[string]{{"a", 0}, {"b", 0}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Choice(New("weights"), tc.items)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Choice error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestChoiceSkipsZeroWeight(t *testing.T) {
	src := New("zero")
	items := []Weighted[string]{{"never", 0}, {"always", 3}, {"nope", 0}}
	for i := 0; i < 200; i++ {
		got, err := Choice(src, items)
		if err != nil {
			t.Fatalf("Choice failed: %v", err)
		}
		if got != "always" {
			t.Fatalf("Choice = %q, want %q", got, "always")
		}
	}
}

func TestChoiceProportional(t *testing.T) {
	src := New("distribution")
	items := []Weighted[string]{{"a", 1}, {"b", 3}, {"c", 6}}
	counts := make(map[string]int)
	const draws = 20000

	for i := 0; i < draws; i++ {
		got, err := Choice(src, items)
		if err != nil {
			t.Fatalf("Choice failed: %v", err)
		}
		counts[got]++
	}

	want := map[string]float64{"a": 0.1, "b": 0.3, "c": 0.6}
	for item, p := range want {
		got := float64(counts[item]) / draws
		if math.Abs(got-p) > 0.03 {
			t.Errorf("Choice frequency of %q = %.3f, want about %.2f", item, got, p)
		}
	}
}

func TestChoiceDeterministic(t *testing.T) {
	items := []Weighted[int]{{1, 2}, {2, 2}, {3, 1}}
	a, b := New("same"), New("same")
	for i := 0; i < 100; i++ {
		x, _ := Choice(a, items)
		y, _ := Choice(b, items)
		if x != y {
			t.Fatalf("draw %d: %d != %d", i, x, y)
		}
	}
}
