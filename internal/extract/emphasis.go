// internal/extract/emphasis.go
package extract

import "math"

const emphasisCorrection = 5.33

// Weights are the sub-score weights of one emphasis.
type Weights struct {
	Verbal, Quantitative, English float64
}

var (
	VerbalWeights       = Weights{Verbal: 0.6, Quantitative: 0.2, English: 0.2}
	QuantitativeWeights = Weights{Verbal: 0.2, Quantitative: 0.6, English: 0.2}
	MultiWeights        = Weights{Verbal: 0.4, Quantitative: 0.4, English: 0.2}
)

// Emphases are the three weighted psychometric scores, each in [200,800].
type Emphases struct {
	Quantitative int
	Verbal       int
	Multi        int
}

// Ordered returns the emphases in the order the program form lists them.
func (e Emphases) Ordered() []int {
	return []int{e.Quantitative, e.Verbal, e.Multi}
}

// ComputeEmphases derives the emphasis scores from the total and the three
// sub-scores. Each weighted sub-score is compared to the plain sub-score mean
// and the difference, scaled by a fixed correction, is applied to the total.
// Rounding is half-to-even.
func ComputeEmphases(total, verbal, quantitative, english int) Emphases {
	return Emphases{
		Quantitative: emphasis(total, verbal, quantitative, english, QuantitativeWeights),
		Verbal:       emphasis(total, verbal, quantitative, english, VerbalWeights),
		Multi:        emphasis(total, verbal, quantitative, english, MultiWeights),
	}
}

func emphasis(total, verbal, quantitative, english int, w Weights) int {
	v, q, e := float64(verbal), float64(quantitative), float64(english)
	weighted := math.RoundToEven(v*w.Verbal + q*w.Quantitative + e*w.English)
	mean := (v + q + e) / 3
	score := math.RoundToEven(float64(total) + (weighted-mean)*emphasisCorrection)
	return clamp(int(score), 200, 800)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
