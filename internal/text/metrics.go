package text

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Metrics holds display measurements for a piece of text. Values are
// derived purely from the input; Measure is total on any string.
// TokenEstimate is the cheap display heuristic; TokenCount is the
// exact cl100k_base count when the encoding is available and the
// heuristic otherwise.
type Metrics struct {
	Length        int `json:"length"`
	WordCount     int `json:"word_count"`
	SentenceCount int `json:"sentence_count"`
	TokenEstimate int `json:"token_estimate"`
	TokenCount    int `json:"token_count"`
}

// Measure computes Metrics for s. Length is counted in runes so that
// multi-byte text measures the same way it truncates.
func Measure(s string) Metrics {
	words := strings.Fields(s)
	return Metrics{
		Length:        utf8.RuneCountInString(s),
		WordCount:     len(words),
		SentenceCount: len(Sentences(s)),
		TokenEstimate: estimateTokens(words),
		TokenCount:    TokenCount(s),
	}
}

// estimateTokens is word count plus a surcharge for tokens that real
// tokenizers split aggressively: URLs and compound identifiers. The
// value is display-only; TokenCount gives an exact count when a BPE
// encoding is available.
func estimateTokens(words []string) int {
	n := len(words)
	for _, w := range words {
		switch {
		case strings.Contains(w, "://") || strings.HasPrefix(w, "www."):
			n += 2
		case strings.ContainsAny(w, "_-") || strings.Count(w, ".") > 1:
			n++
		}
	}
	return n
}

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// TokenCount returns the cl100k_base token count for s. When the
// encoding cannot be loaded (offline environments) it falls back to
// the heuristic estimate.
func TokenCount(s string) int {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})
	if encoding == nil {
		return estimateTokens(strings.Fields(s))
	}
	return len(encoding.Encode(s, nil, nil))
}
