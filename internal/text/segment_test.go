package text_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/compresr/truncation-engine/internal/text"
)

// =============================================================================
// SENTENCE SEGMENTATION TESTS
// =============================================================================

func TestSentences_BasicSplit(t *testing.T) {
	got := text.Sentences("Sentence one. Sentence two. Sentence three.")

	assert.Equal(t, []string{
		"Sentence one.",
		"Sentence two.",
		"Sentence three.",
	}, got)
}

func TestSentences_AllTerminators(t *testing.T) {
	got := text.Sentences("Really? Yes! Fine.")

	assert.Equal(t, []string{"Really?", "Yes!", "Fine."}, got)
}

func TestSentences_TerminatorMidToken_NotABoundary(t *testing.T) {
	// A period inside a token (version numbers, hostnames) is not
	// followed by whitespace and must not split.
	got := text.Sentences("Deploy v1.2.3 to example.com today.")

	assert.Equal(t, []string{"Deploy v1.2.3 to example.com today."}, got)
}

func TestSentences_TerminatorAtEOF(t *testing.T) {
	got := text.Sentences("Ends at the very last rune.")

	assert.Len(t, got, 1)
}

func TestSentences_UnterminatedTail(t *testing.T) {
	got := text.Sentences("First sentence. trailing fragment without punctuation")

	assert.Equal(t, []string{
		"First sentence.",
		"trailing fragment without punctuation",
	}, got)
}

func TestSentences_NoPunctuationAtAll(t *testing.T) {
	got := text.Sentences("just a bag of words here")

	assert.Equal(t, []string{"just a bag of words here"}, got, "text without terminators is a single sentence")
}

func TestSentences_Empty(t *testing.T) {
	assert.Empty(t, text.Sentences(""))
	assert.Empty(t, text.Sentences("   \n\t  "))
}

func TestSentences_SurroundingWhitespaceTrimmed(t *testing.T) {
	got := text.Sentences("  First.   Second.  ")

	assert.Equal(t, []string{"First.", "Second."}, got)
}

// =============================================================================
// PARAGRAPH SEGMENTATION TESTS
// =============================================================================

func TestParagraphs_BlankLineBoundaries(t *testing.T) {
	input := "First paragraph here.\n\nSecond paragraph here.\n \t\nThird."

	got := text.Paragraphs(input)

	assert.Equal(t, []string{
		"First paragraph here.",
		"Second paragraph here.",
		"Third.",
	}, got)
}

func TestParagraphs_SingleNewlineIsNotABoundary(t *testing.T) {
	got := text.Paragraphs("line one\nline two")

	assert.Len(t, got, 1, "a single newline stays inside the paragraph")
}

func TestParagraphs_EmptyParagraphsDropped(t *testing.T) {
	got := text.Paragraphs("First.\n\n\n\nSecond.")

	assert.Equal(t, []string{"First.", "Second."}, got)
}

func TestParagraphs_Empty(t *testing.T) {
	assert.Empty(t, text.Paragraphs(""))
}

func TestFirstSentence_TakesTheFirst(t *testing.T) {
	assert.Equal(t, "Topic here.", text.FirstSentence("Topic here. Supporting detail follows."))
}

func TestFirstSentence_NoPunctuation_WholeParagraph(t *testing.T) {
	assert.Equal(t, "no punctuation here", text.FirstSentence("no punctuation here"))
}

func TestFirstSentence_Empty(t *testing.T) {
	assert.Equal(t, "", text.FirstSentence(""))
}

func TestIsTerminator(t *testing.T) {
	assert.True(t, text.IsTerminator('.'))
	assert.True(t, text.IsTerminator('!'))
	assert.True(t, text.IsTerminator('?'))
	assert.False(t, text.IsTerminator(','))
	assert.False(t, text.IsTerminator(';'))
}
