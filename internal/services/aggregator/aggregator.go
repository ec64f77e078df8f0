// Package aggregator folds weighted factor scores into one signal and a
// confidence index.
package aggregator

import (
	"math"

	"EquityLens/internal/domain/models"
)

const (
	StrongBuyThreshold  = 0.6
	BuyThreshold        = 0.2
	SellThreshold       = -0.2
	StrongSellThreshold = -0.6

	// scores this close to a threshold are classified as sitting on it
	boundaryEpsilon = 1e-9
)

type Result struct {
	Score      float64
	Signal     models.Signal
	Confidence float64
}

// Aggregate computes the weighted mean score, its signal bucket, and a
// confidence of 100 * (1 - weighted variance). Scores lie in [-1, 1] so the
// variance never exceeds 1. No scores yields a zero-confidence Hold.
func Aggregate(scores []models.FactorScore) Result {
	total := 0.0
	for _, s := range scores {
		total += s.Weight
	}
	if len(scores) == 0 || total <= 0 {
		return Result{Signal: models.SignalHold}
	}

	mean := 0.0
	for _, s := range scores {
		mean += s.Weight * s.Score
	}
	mean /= total

	variance := 0.0
	for _, s := range scores {
		d := s.Score - mean
		variance += s.Weight * d * d
	}
	variance /= total

	score := clamp(mean, -1, 1)
	return Result{
		Score:      score,
		Signal:     Classify(score),
		Confidence: clamp(100*(1-variance), 0, 100),
	}
}

// Classify buckets an aggregate score. Buy and Sell include their inner
// boundary (0.2 is Buy, -0.2 is Sell).
func Classify(score float64) models.Signal {
	score = snap(score)
	switch {
	case score >= StrongBuyThreshold:
		return models.SignalStrongBuy
	case score >= BuyThreshold:
		return models.SignalBuy
	case score > SellThreshold:
		return models.SignalHold
	case score > StrongSellThreshold:
		return models.SignalSell
	default:
		return models.SignalStrongSell
	}
}

func snap(score float64) float64 {
	for _, b := range [...]float64{StrongBuyThreshold, BuyThreshold, SellThreshold, StrongSellThreshold} {
		if math.Abs(score-b) < boundaryEpsilon {
			return b
		}
	}
	return score
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
