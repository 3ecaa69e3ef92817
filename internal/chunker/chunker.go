// Package chunker segments text into sentence-level chunks for
// semantic analysis and builds a representative-sentence summary.
//
// EMBEDDINGS: No embedding model runs locally. The vectors attached to
// chunks are placeholders drawn uniformly from [-1, 1] so downstream
// code has correctly-shaped data to work with. They carry NO semantic
// signal and must never be treated as one. The random source is
// injectable so tests are reproducible.
package chunker

import (
	"math/rand"
	"strings"
	"time"

	"github.com/compresr/truncation-engine/internal/text"
)

// EmbeddingDim is the width of placeholder vectors. Matches the
// all-MiniLM-L6-v2 dimension the production analyzer uses.
const EmbeddingDim = 384

// DefaultMaxChunks bounds how many sentences a ChunkSet retains.
const DefaultMaxChunks = 10

// ChunkSet holds the ordered sentence chunks of a document, their
// placeholder embeddings (aligned 1:1), and a representative summary.
type ChunkSet struct {
	Chunks      []string    `json:"chunks"`
	Embeddings  [][]float64 `json:"embeddings"`
	SummaryText string      `json:"summary_text"`
}

// Chunker produces ChunkSets. Safe for reuse; not safe for concurrent
// use because of the shared random source.
type Chunker struct {
	maxChunks int
	rng       *rand.Rand
}

// New creates a Chunker keeping at most maxChunks sentences. A nil rng
// gets a time-seeded source; tests pass a fixed seed.
func New(maxChunks int, rng *rand.Rand) *Chunker {
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Chunker{maxChunks: maxChunks, rng: rng}
}

// Chunk splits input into sentence chunks, keeping the first maxChunks
// in appearance order, and attaches one placeholder embedding per
// chunk. Empty input yields an empty ChunkSet, not an error.
func (c *Chunker) Chunk(input string) ChunkSet {
	sentences := text.Sentences(input)
	if len(sentences) > c.maxChunks {
		sentences = sentences[:c.maxChunks]
	}
	if len(sentences) == 0 {
		return ChunkSet{}
	}

	embeddings := make([][]float64, len(sentences))
	for i := range sentences {
		embeddings[i] = c.placeholderVector()
	}
	return ChunkSet{Chunks: sentences, Embeddings: embeddings}
}

// Summarize picks up to three representative sentences from the set:
// the first, the middle when at least 4 chunks exist, and the last
// when at least 2 exist. The concatenation is hard-capped at maxLength
// characters with a trailing ellipsis.
func Summarize(set ChunkSet, maxLength int) string {
	n := len(set.Chunks)
	if n == 0 {
		return ""
	}

	picks := []string{set.Chunks[0]}
	if n >= 4 {
		picks = append(picks, set.Chunks[n/2])
	}
	if n >= 2 {
		picks = append(picks, set.Chunks[n-1])
	}

	summary := strings.Join(picks, " ")
	runes := []rune(summary)
	if maxLength > 0 && len(runes) > maxLength {
		summary = string(runes[:maxLength]) + "..."
	}
	return summary
}

func (c *Chunker) placeholderVector() []float64 {
	v := make([]float64, EmbeddingDim)
	for i := range v {
		v[i] = c.rng.Float64()*2 - 1
	}
	return v
}
