package statistics

import "math"

// DefaultZ is the z-score for a 95% confidence level.
const DefaultZ = 1.96

// Interval holds the bounds of a confidence interval for a proportion or mean.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// WilsonCI computes the Wilson score interval for a proportion. It degrades
// gracefully at small n and at proportions near 0 or 1, which is why it is
// used instead of the normal approximation. Returns (0, 0) when total == 0.
func WilsonCI(successes, total int, z float64) Interval {
	if total == 0 {
		return Interval{}
	}

	p := float64(successes) / float64(total)
	n := float64(total)

	denominator := 1 + z*z/n
	centre := p + z*z/(2*n)
	spread := z * math.Sqrt((p*(1-p)+z*z/(4*n))/n)

	lower := (centre - spread) / denominator
	upper := (centre + spread) / denominator
	return Interval{
		Lower: math.Max(0.0, lower),
		Upper: math.Min(1.0, upper),
	}
}

// MeanCI computes a confidence interval for the mean of values using the
// sample standard error. With exactly one sample the interval collapses to
// that sample; an empty slice yields all zeros.
func MeanCI(values []float64, z float64) (mean float64, ci Interval) {
	n := len(values)
	if n == 0 {
		return 0, Interval{}
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	if n == 1 {
		return mean, Interval{Lower: mean, Upper: mean}
	}

	// Sample variance (Bessel's correction).
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	variance := sumSq / float64(n-1)
	stdErr := math.Sqrt(variance / float64(n))

	return mean, Interval{
		Lower: mean - z*stdErr,
		Upper: mean + z*stdErr,
	}
}

// TwoProportionZTest compares two observed proportions with a pooled-proportion
// standard error and returns the z-score and the two-tailed p-value. Degenerate
// inputs (empty samples, pooled proportion of exactly 0 or 1) yield (0, 1),
// i.e. no detectable difference.
func TwoProportionZTest(p1 float64, n1 int, p2 float64, n2 int) (z, pValue float64) {
	if n1 == 0 || n2 == 0 {
		return 0.0, 1.0
	}

	// Recover approximate success counts so the pooled estimate matches the
	// samples the proportions came from.
	x1 := math.Round(p1 * float64(n1))
	x2 := math.Round(p2 * float64(n2))
	pHat := (x1 + x2) / float64(n1+n2)

	if pHat == 0 || pHat == 1 {
		return 0.0, 1.0
	}

	se := math.Sqrt(pHat * (1 - pHat) * (1/float64(n1) + 1/float64(n2)))
	if se == 0 {
		return 0.0, 1.0
	}

	z = (p1 - p2) / se
	pValue = 2 * (1 - NormalCDF(math.Abs(z)))
	return RoundTo(z, 4), RoundTo(pValue, 6)
}

// NormalCDF evaluates the standard normal CDF via the error function.
func NormalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
