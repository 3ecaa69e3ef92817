// Package text provides the segmentation and measurement primitives
// shared by the truncator, chunker, and simulation snapshots.
//
// DESIGN: One sentence-boundary rule for the whole engine. A sentence
// ends at '.', '!' or '?' followed by whitespace (or end of text).
// Every component segments through this package; a diverging copy of
// the rule elsewhere is a bug.
package text

import (
	"regexp"
	"strings"
	"unicode"
)

// paragraphSplitter matches blank-line boundaries between paragraphs.
var paragraphSplitter = regexp.MustCompile(`\n[ \t]*\n`)

// IsTerminator reports whether r ends a sentence.
func IsTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Sentences splits s into sentences. Empty sentences are dropped and
// surrounding whitespace is trimmed. Text with no terminator at all
// comes back as a single sentence.
func Sentences(s string) []string {
	var out []string
	runes := []rune(s)
	start := 0

	for i := 0; i < len(runes); i++ {
		if !IsTerminator(runes[i]) {
			continue
		}
		// Terminator counts only when followed by whitespace or EOF.
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if sent := strings.TrimSpace(string(runes[start : i+1])); sent != "" {
			out = append(out, sent)
		}
		start = i + 1
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		out = append(out, tail)
	}
	return out
}

// Paragraphs splits s on blank-line boundaries. Empty paragraphs are
// dropped. Text with no blank lines is a single paragraph.
func Paragraphs(s string) []string {
	var out []string
	for _, p := range paragraphSplitter.Split(s, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FirstSentence returns the first sentence of a paragraph. A paragraph
// with no sentence punctuation is its own topic sentence.
func FirstSentence(paragraph string) string {
	sents := Sentences(paragraph)
	if len(sents) == 0 {
		return ""
	}
	return sents[0]
}
