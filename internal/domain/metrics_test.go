package domain

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMetrics(t *testing.T) {
	var c ConfusionCounts
	for _, label := range []Confusion{TruePositive, TruePositive, FalsePositive, FalseNegative, TrueNegative} {
		c.Add(label)
	}
	if c.Total() != 5 {
		t.Fatalf("Total = %d", c.Total())
	}

	m := c.Metrics()
	if !almostEqual(m.Sensitivity, 2.0/3.0) {
		t.Errorf("Sensitivity = %v", m.Sensitivity)
	}
	if !almostEqual(m.Precision, 2.0/3.0) {
		t.Errorf("Precision = %v", m.Precision)
	}
	if !almostEqual(m.Specificity, 0.5) {
		t.Errorf("Specificity = %v", m.Specificity)
	}
	if !almostEqual(m.Accuracy, 0.6) {
		t.Errorf("Accuracy = %v", m.Accuracy)
	}
	if !almostEqual(m.F1, 2.0/3.0) {
		t.Errorf("F1 = %v", m.F1)
	}
	if !almostEqual(m.MCC, 1.0/6.0) {
		t.Errorf("MCC = %v", m.MCC)
	}
}

func TestMetricsEmptyCountsAreNaN(t *testing.T) {
	m := ConfusionCounts{}.Metrics()
	for name, v := range map[string]float64{
		"sensitivity": m.Sensitivity,
		"specificity": m.Specificity,
		"precision":   m.Precision,
		"accuracy":    m.Accuracy,
		"f1":          m.F1,
		"mcc":         m.MCC,
	} {
		if !math.IsNaN(v) {
			t.Errorf("%s = %v, want NaN", name, v)
		}
	}
}
