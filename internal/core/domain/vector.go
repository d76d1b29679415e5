package domain

import (
	"math"
	"strings"
)

// DistanceMetric is the fixed metric shared by embedding time and search time.
type DistanceMetric string

// Distance metrics. Lower distance is always better.
const (
	// MetricCosine is 1 - cosine similarity.
	MetricCosine DistanceMetric = "cosine"

	// MetricL2 is Euclidean distance.
	MetricL2 DistanceMetric = "l2"
)

// IsValid returns true if the metric is recognised.
func (m DistanceMetric) IsValid() bool {
	return m == MetricCosine || m == MetricL2
}

// Distance computes the distance between a and b.
// Vectors of different length are compared over their common prefix.
func (m DistanceMetric) Distance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	if m == MetricL2 {
		var sum float64
		for i := 0; i < n; i++ {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return math.Sqrt(sum)
	}

	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// EstimateTokens gives a rough token count from the word count.
// Exact tokenisation is not needed for budgeting.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	// Roughly 0.75 words per token for English text.
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
