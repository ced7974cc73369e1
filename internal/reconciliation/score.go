package reconciliation

import (
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
)

// computeCompositeScore combines the four health dimensions with a
// harmonic mean, which punishes imbalance: one weak dimension drags the
// overall score far more than an arithmetic mean would. Inputs are clamped
// to [0, 100] first; a zero dimension degenerates the overall score to
// zero rather than dividing by zero.
func computeCompositeScore(service, cost, capital, document float64) CompositeScore {
	score := CompositeScore{
		ServiceScore:  clampScore(service),
		CostScore:     clampScore(cost),
		CapitalScore:  clampScore(capital),
		DocumentScore: clampScore(document),
	}
	dims := score.dimensionValues()

	zero := false
	reciprocalSum := 0.0
	for _, d := range enums.ScoreDimensionPriority {
		v := dims[d]
		if v <= 0 {
			zero = true
			continue
		}
		reciprocalSum += 1 / v
	}
	if !zero {
		score.OverallScore = float64(len(dims)) / reciprocalSum
	}

	minDim, maxDim := enums.ScoreDimensionPriority[0], enums.ScoreDimensionPriority[0]
	for _, d := range enums.ScoreDimensionPriority[1:] {
		if dims[d] < dims[minDim] {
			minDim = d
		}
		if dims[d] > dims[maxDim] {
			maxDim = d
		}
	}
	score.WeakestDimension = minDim
	score.StrongestDimension = maxDim

	// Balance is the min/max ratio. All-equal dimensions, including the
	// all-zero case, are perfectly even.
	if dims[maxDim] == 0 {
		score.BalanceIndex = 1
	} else {
		score.BalanceIndex = dims[minDim] / dims[maxDim]
	}
	return score
}

func (s CompositeScore) dimensionValues() map[enums.ScoreDimension]float64 {
	return map[enums.ScoreDimension]float64{
		enums.ScoreDimensionService:  s.ServiceScore,
		enums.ScoreDimensionCost:     s.CostScore,
		enums.ScoreDimensionCapital:  s.CapitalScore,
		enums.ScoreDimensionDocument: s.DocumentScore,
	}
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
