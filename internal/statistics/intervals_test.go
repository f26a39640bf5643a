package statistics

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestWilsonCI_ZeroTotal(t *testing.T) {
	ci := WilsonCI(0, 0, DefaultZ)
	if ci.Lower != 0 || ci.Upper != 0 {
		t.Errorf("WilsonCI(0, 0) = (%f, %f), want (0, 0)", ci.Lower, ci.Upper)
	}
}

func TestWilsonCI_BoundsContainProportion(t *testing.T) {
	tests := []struct {
		name      string
		successes int
		total     int
	}{
		{"none_of_ten", 0, 10},
		{"one_of_ten", 1, 10},
		{"half", 5, 10},
		{"all", 10, 10},
		{"three_of_fifty", 3, 50},
		{"single_trial_hit", 1, 1},
		{"single_trial_miss", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ci := WilsonCI(tt.successes, tt.total, DefaultZ)
			p := float64(tt.successes) / float64(tt.total)
			if ci.Lower < 0 || ci.Upper > 1 {
				t.Errorf("interval (%f, %f) escapes [0, 1]", ci.Lower, ci.Upper)
			}
			if ci.Lower > p+epsilon || ci.Upper < p-epsilon {
				t.Errorf("interval (%f, %f) does not contain p=%f", ci.Lower, ci.Upper, p)
			}
		})
	}
}

func TestWilsonCI_ZeroSuccessesLowerIsZero(t *testing.T) {
	for _, n := range []int{1, 5, 10, 100, 1000} {
		ci := WilsonCI(0, n, DefaultZ)
		if ci.Lower != 0 {
			t.Errorf("WilsonCI(0, %d).Lower = %f, want 0", n, ci.Lower)
		}
		if ci.Upper < 0 {
			t.Errorf("WilsonCI(0, %d).Upper = %f, want >= 0", n, ci.Upper)
		}
	}
}

func TestWilsonCI_WidthTightensWithSamples(t *testing.T) {
	// Fixed proportion 0.3, growing n: the interval must not widen.
	prev := math.Inf(1)
	for _, n := range []int{10, 20, 50, 100, 500, 1000} {
		ci := WilsonCI(3*n/10, n, DefaultZ)
		width := ci.Upper - ci.Lower
		if width > prev+epsilon {
			t.Errorf("width grew from %f to %f at n=%d", prev, width, n)
		}
		prev = width
	}
}

func TestMeanCI(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		wantMean float64
		wantLo   float64
		wantHi   float64
	}{
		{"empty", nil, 0, 0, 0},
		{"single", []float64{2.5}, 2.5, 2.5, 2.5},
		{"uniform", []float64{3, 3, 3, 3}, 3, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, ci := MeanCI(tt.input, DefaultZ)
			if !approxEqual(mean, tt.wantMean) || !approxEqual(ci.Lower, tt.wantLo) || !approxEqual(ci.Upper, tt.wantHi) {
				t.Errorf("MeanCI(%v) = (%f, %f, %f), want (%f, %f, %f)",
					tt.input, mean, ci.Lower, ci.Upper, tt.wantMean, tt.wantLo, tt.wantHi)
			}
		})
	}
}

func TestMeanCI_TwoValues(t *testing.T) {
	// mean=5, sample variance=2, stderr=1, margin=1.96
	mean, ci := MeanCI([]float64{4, 6}, DefaultZ)
	if !approxEqual(mean, 5.0) || !approxEqual(ci.Lower, 5.0-1.96) || !approxEqual(ci.Upper, 5.0+1.96) {
		t.Errorf("got (%f, %f, %f), want (5, 3.04, 6.96)", mean, ci.Lower, ci.Upper)
	}
}

func TestTwoProportionZTest_Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		p1     float64
		n1     int
		p2     float64
		n2     int
	}{
		{"empty_a", 0.5, 0, 0.5, 50},
		{"empty_b", 0.5, 50, 0.5, 0},
		{"both_zero_rate", 0.0, 50, 0.0, 50},
		{"both_full_rate", 1.0, 50, 1.0, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z, p := TwoProportionZTest(tt.p1, tt.n1, tt.p2, tt.n2)
			if z != 0.0 || p != 1.0 {
				t.Errorf("got z=%f p=%f, want z=0 p=1", z, p)
			}
		})
	}
}

func TestTwoProportionZTest_Identical(t *testing.T) {
	z, p := TwoProportionZTest(0.4, 50, 0.4, 50)
	if z != 0.0 {
		t.Errorf("z = %f, want 0", z)
	}
	if p != 1.0 {
		t.Errorf("p = %f, want 1", p)
	}
}

func TestTwoProportionZTest_LargeShift(t *testing.T) {
	// 0.2 vs 0.5 at n=50 each is a clearly significant difference.
	z, p := TwoProportionZTest(0.2, 50, 0.5, 50)
	if z >= 0 {
		t.Errorf("z = %f, want negative (p1 < p2)", z)
	}
	if p >= 0.05 {
		t.Errorf("p = %f, want < 0.05", p)
	}
}

func TestNormalCDF(t *testing.T) {
	if !approxEqual(NormalCDF(0), 0.5) {
		t.Errorf("NormalCDF(0) = %f, want 0.5", NormalCDF(0))
	}
	if got := NormalCDF(1.96); math.Abs(got-0.975) > 1e-3 {
		t.Errorf("NormalCDF(1.96) = %f, want ~0.975", got)
	}
}

func TestRoundTo(t *testing.T) {
	if got := RoundTo(0.123456789, 4); !approxEqual(got, 0.1235) {
		t.Errorf("RoundTo 4dp = %f, want 0.1235", got)
	}
	if got := RoundTo(2.5, 0); !approxEqual(got, 3.0) {
		t.Errorf("RoundTo(2.5, 0) = %f, want 3", got)
	}
}
