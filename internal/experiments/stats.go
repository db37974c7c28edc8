package experiments

import "math"

// ConfidenceThreshold is the confidence at which a leader is declared.
const ConfidenceThreshold = 0.95

// WilsonInterval returns the Wilson score interval of a conversion rate.
// Zero trials yield [0, 0]. Successes beyond trials count as trials.
func WilsonInterval(successes, trials int, confidence float64) (lower, upper float64) {
	if trials <= 0 {
		return 0, 0
	}
	successes = clampSuccesses(successes, trials)
	z := zScore(confidence)
	n := float64(trials)
	p := float64(successes) / n

	denom := 1 + z*z/n
	center := (p + z*z/(2*n)) / denom
	spread := (z / denom) * math.Sqrt(p*(1-p)/n+z*z/(4*n*n))

	return math.Max(0, center-spread), math.Min(1, center+spread)
}

// zScore returns the two-sided critical value for the usual confidence levels.
func zScore(confidence float64) float64 {
	switch {
	case confidence >= 0.99:
		return 2.576
	case confidence >= 0.95:
		return 1.96
	case confidence >= 0.90:
		return 1.645
	default:
		return 1.28
	}
}

// SignificanceTest is a two-proportion z-test. It returns the confidence (0..1) that
// variant A converts better than variant B; 0.5 when either side has no views.
func SignificanceTest(aConv, aViews, bConv, bViews int) float64 {
	if aViews <= 0 || bViews <= 0 {
		return 0.5
	}
	aConv = clampSuccesses(aConv, aViews)
	bConv = clampSuccesses(bConv, bViews)
	pA := float64(aConv) / float64(aViews)
	pB := float64(bConv) / float64(bViews)
	pooled := float64(aConv+bConv) / float64(aViews+bViews)
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(aViews) + 1/float64(bViews)))
	if se == 0 {
		switch {
		case pA > pB:
			return 1
		case pA < pB:
			return 0
		default:
			return 0.5
		}
	}
	return normalCDF((pA - pB) / se)
}

// normalCDF is the standard normal CDF.
func normalCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// clampSuccesses bounds successes to [0, trials]. Conversions are recorded without
// requiring a view, so a variant can report more conversions than views.
func clampSuccesses(successes, trials int) int {
	return max(0, min(successes, trials))
}
