// Package similarity derives pooling-style and overall similarity
// scores for truncated variants of a text.
//
// DESIGN: When the external analyzer supplies real scores they pass
// through unchanged (after legacy-alias normalization at the
// boundary). When it does not, the estimator returns FIXED documented
// constants rather than fabricated pseudo-random numbers, so test
// expectations and visualizations stay stable.
package similarity

import (
	"math"

	"github.com/compresr/truncation-engine/internal/truncate"
)

// Placeholder scores used in degraded mode. Documented constants, not
// measurements.
const (
	DefaultMeanPooling      = 0.78
	DefaultAttentionPooling = 0.85
	DefaultSlidingWindow    = 0.82
	DefaultChunkSimilarity  = 0.95
)

// classifyMargin is the pooling gap beyond which one strategy is
// reported as outperforming the other.
const classifyMargin = 0.10

// Scores holds the overall similarity of truncated text against the
// original. Both values live in [0, 1].
type Scores struct {
	SlidingWindow float64 `json:"sliding_window_similarity"`
	SBERT         float64 `json:"sbert_similarity"`
}

// Placeholder returns the degraded-mode Scores constants.
func Placeholder() Scores {
	return Scores{
		SlidingWindow: DefaultSlidingWindow,
		SBERT:         DefaultChunkSimilarity,
	}
}

// PlaceholderPooling returns the degraded-mode pooling constants.
func PlaceholderPooling() truncate.Pooling {
	return truncate.Pooling{
		MeanPooling:      DefaultMeanPooling,
		AttentionPooling: DefaultAttentionPooling,
	}
}

// Classify compares attention pooling against mean pooling and returns
// advisory narrative text. Never a gating condition anywhere.
func Classify(p truncate.Pooling) string {
	switch {
	case p.AttentionPooling-p.MeanPooling > classifyMargin:
		return "attention outperforms"
	case p.MeanPooling-p.AttentionPooling > classifyMargin:
		return "mean outperforms"
	default:
		return "balanced"
	}
}

// Cosine returns the cosine similarity of two equal-width vectors,
// 0 when either has zero magnitude or widths differ.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		return 0
	}
	return Sanitize(dot / denom)
}

// Centroid returns the element-wise mean of vectors. Nil when empty.
func Centroid(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	c := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		for i := range c {
			c[i] += v[i]
		}
	}
	for i := range c {
		c[i] /= float64(len(vectors))
	}
	return c
}

// Sanitize maps NaN and infinities to 0 and rounds to 4 decimals so
// every score is JSON-safe.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*10000) / 10000
}
