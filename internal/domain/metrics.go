package domain

import "math"

type ConfusionCounts struct {
	TP int
	TN int
	FP int
	FN int
}

func (c *ConfusionCounts) Add(label Confusion) {
	switch label {
	case TruePositive:
		c.TP++
	case TrueNegative:
		c.TN++
	case FalsePositive:
		c.FP++
	case FalseNegative:
		c.FN++
	}
}

func (c ConfusionCounts) Total() int {
	return c.TP + c.TN + c.FP + c.FN
}

// Metrics holds the derived confusion-matrix scores. Undefined ratios
// (zero denominators) are NaN, not zero, so they render as absent rather
// than as a perfectly bad score.
type Metrics struct {
	Sensitivity float64
	Specificity float64
	Precision   float64
	Accuracy    float64
	F1          float64
	MCC         float64
}

func (c ConfusionCounts) Metrics() Metrics {
	tp := float64(c.TP)
	tn := float64(c.TN)
	fp := float64(c.FP)
	fn := float64(c.FN)

	return Metrics{
		Sensitivity: safeDivide(tp, tp+fn),
		Specificity: safeDivide(tn, tn+fp),
		Precision:   safeDivide(tp, tp+fp),
		Accuracy:    safeDivide(tp+tn, tp+tn+fp+fn),
		F1:          safeDivide(2*tp, 2*tp+fp+fn),
		MCC:         safeDivide(tp*tn-fp*fn, math.Sqrt((tp+fp)*(tp+fn)*(tn+fp)*(tn+fn))),
	}
}

func safeDivide(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}
