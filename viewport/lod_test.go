package viewport

import "testing"

func TestSelectTier(t *testing.T) {
	cases := []struct {
		name string
		zoom float64
		want Tier
	}{
		{"far_out", 0.25, TierLow},
		{"just_below_low_cut", 0.49, TierLow},
		{"at_low_cut", 0.5, TierMedium},
		{"mid", 1.0, TierMedium},
		{"just_below_medium_cut", 1.49, TierMedium},
		{"at_medium_cut", 1.5, TierHigh},
		{"far_in", 4.0, TierHigh},
	}

	sel := NewLODSelector(true)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := sel.Select(c.zoom); got != c.want {
				t.Fatalf("zoom %v: expected %v, got %v", c.zoom, c.want, got)
			}
		})
	}
}

func TestSelectTierMonotonic(t *testing.T) {
	sel := NewLODSelector(true)
	prev := TierLow
	for z := 0.25; z <= 4.0; z += 0.01 {
		tier := sel.Select(z)
		if tier < prev {
			t.Fatalf("tier dropped from %v to %v at zoom %v", prev, tier, z)
		}
		prev = tier
	}
}

func TestSelectTierDisabled(t *testing.T) {
	sel := NewLODSelector(false)
	for _, z := range []float64{0.25, 0.5, 1.0, 4.0} {
		if got := sel.Select(z); got != TierHigh {
			t.Fatalf("disabled selector at zoom %v: expected high, got %v", z, got)
		}
	}
}
