// Package truncate compresses long text to a bounded length while
// preserving hierarchical structure.
//
// DESIGN: Paragraph topic sentences carry most of a document's meaning.
// The truncator keeps as many topic sentences as the budget allows,
// then spends any remaining budget on a lead prefix of the original
// text, trimmed so no word or sentence is severed mid-token.
//
// The truncator is pure text transformation: pooling metrics on Result
// are filled in by the similarity estimator, never computed here.
package truncate

import (
	"math"
	"strings"
	"unicode"

	"github.com/compresr/truncation-engine/internal/text"
)

// Ellipsis marks the truncation point in output text.
const Ellipsis = "..."

// ellipsisReserve is the budget held back for the ellipsis marker.
const ellipsisReserve = len(Ellipsis)

// Pooling holds mean- and attention-pooling similarity scores for a
// truncated variant. Filled by the similarity estimator.
type Pooling struct {
	MeanPooling      float64 `json:"mean_pooling"`
	AttentionPooling float64 `json:"attention_pooling"`
}

// Result is the outcome of one truncation request. Created once,
// immutable thereafter.
type Result struct {
	OriginalText     string       `json:"original_text"`
	OriginalMetrics  text.Metrics `json:"original_metrics"`
	TruncatedText    string       `json:"truncated_text"`
	TruncatedMetrics text.Metrics `json:"truncated_metrics"`
	ReductionPercent int          `json:"reduction_percent"`
	Pooling          Pooling      `json:"pooling_metrics"`
}

// Truncate compresses input to at most maxLength characters (plus the
// ellipsis marker). Total on any input: a maxLength below 1 is
// normalized to 1 rather than erroring, and text already within budget
// is returned unchanged.
func Truncate(input string, maxLength, windowSize int) Result {
	if maxLength <= 0 {
		maxLength = 1
	}
	if windowSize <= 0 {
		windowSize = 1
	}

	origMetrics := text.Measure(input)
	if origMetrics.Length <= maxLength {
		return Result{
			OriginalText:     input,
			OriginalMetrics:  origMetrics,
			TruncatedText:    input,
			TruncatedMetrics: origMetrics,
			ReductionPercent: 0,
		}
	}

	budget := maxLength - ellipsisReserve
	key := KeyContent(input, budget)
	keyLen := len([]rune(key))

	var out string
	if budget-keyLen > windowSize {
		lead := leadPrefix(input, maxLength-keyLen-ellipsisReserve, windowSize)
		out = lead + Ellipsis
		if key != "" {
			out += " " + key
		}
	} else {
		out = key + Ellipsis
	}

	truncMetrics := text.Measure(out)
	return Result{
		OriginalText:     input,
		OriginalMetrics:  origMetrics,
		TruncatedText:    out,
		TruncatedMetrics: truncMetrics,
		ReductionPercent: ReductionPercent(origMetrics.Length, truncMetrics.Length),
	}
}

// TopicSentences returns the first sentence of each paragraph, in
// document order.
func TopicSentences(input string) []string {
	var topics []string
	for _, p := range text.Paragraphs(input) {
		if ts := text.FirstSentence(p); ts != "" {
			topics = append(topics, ts)
		}
	}
	return topics
}

// KeyContent accumulates topic sentences into a space-joined buffer
// while the budget permits, stopping at the first sentence that would
// not fit.
func KeyContent(input string, budget int) string {
	var b strings.Builder
	used := 0
	for _, ts := range TopicSentences(input) {
		cost := len([]rune(ts))
		if used > 0 {
			cost++ // joining space
		}
		if used+cost > budget {
			break
		}
		if used > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(ts)
		used += cost
	}
	return b.String()
}

// leadPrefix takes the first n characters of input and trims back to
// the nearest sentence-ending punctuation. When none falls within
// windowSize characters of the cut, it trims to the nearest preceding
// space instead so no word is severed.
func leadPrefix(input string, n, windowSize int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(input)
	if n > len(runes) {
		n = len(runes)
	}
	lead := runes[:n]

	// Prefer a sentence boundary close to the cut.
	for i := len(lead) - 1; i >= 0 && len(lead)-i <= windowSize; i-- {
		if text.IsTerminator(lead[i]) {
			return strings.TrimSpace(string(lead[:i+1]))
		}
	}

	// Otherwise back up to a space.
	for i := len(lead) - 1; i >= 0; i-- {
		if unicode.IsSpace(lead[i]) {
			return strings.TrimSpace(string(lead[:i]))
		}
	}
	return strings.TrimSpace(string(lead))
}

// ReductionPercent implements round(100 * (1 - truncated/original)),
// clamped to 0 for empty originals.
func ReductionPercent(originalLen, truncatedLen int) int {
	if originalLen == 0 {
		return 0
	}
	pct := int(math.Round(100 * (1 - float64(truncatedLen)/float64(originalLen))))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}
