package simulation

import (
	"fmt"
	"math"
	"strings"

	"github.com/compresr/truncation-engine/internal/text"
	"github.com/compresr/truncation-engine/internal/truncate"
)

// Band boundaries for the hierarchical method: five contiguous bands,
// each covering 20% of the progress range.
const (
	hierEmphasisStart = 0.2
	hierWindowStart   = 0.4
	hierAssembleStart = 0.6
	hierFinalStart    = 0.8
)

// Band boundaries for the semantic chunk method: three bands.
const (
	chunkEmbedStart     = 0.3
	chunkRelevanceStart = 0.6
)

// leadCapRatio caps the band-4 lead reveal at 60% of maxLength; the
// key content starts appearing once the lead passes 30%.
const (
	leadCapRatio   = 0.6
	leadKeyTrigger = 0.3
)

// Snapshot renders the intermediate text for one tick. Pure: equal
// arguments always produce equal output. Counts revealed within a band
// use floor (ceil only where noted) so the reveal is monotonic and
// never flickers as step increases.
func Snapshot(method Method, step, maxSteps int, in Inputs) string {
	if maxSteps <= 0 {
		return in.Text
	}
	progress := float64(step) / float64(maxSteps)
	if progress > 1 {
		progress = 1
	}

	switch method {
	case MethodSemanticChunk:
		return chunkSnapshot(progress, in)
	default:
		return hierarchicalSnapshot(progress, in)
	}
}

// subProgress maps global progress into [0,1] within a band.
func subProgress(progress, start, width float64) float64 {
	sub := (progress - start) / width
	if sub < 0 {
		return 0
	}
	if sub > 1 {
		return 1
	}
	return sub
}

func hierarchicalSnapshot(progress float64, in Inputs) string {
	switch {
	case progress < hierEmphasisStart:
		// Establish structure: paragraph-joined text, unchanged.
		return strings.Join(text.Paragraphs(in.Text), "\n\n")

	case progress < hierWindowStart:
		sub := subProgress(progress, hierEmphasisStart, 0.2)
		return emphasizeTopics(in.Text, sub)

	case progress < hierAssembleStart:
		sub := subProgress(progress, hierWindowStart, 0.2)
		return slideWindow(in.Text, in.WindowSize, sub)

	case progress < hierFinalStart:
		sub := subProgress(progress, hierAssembleStart, 0.2)
		return assemblePreview(in, sub)

	default:
		return in.Truncated.TruncatedText
	}
}

// emphasizeTopics wraps a growing prefix of topic sentences in an
// emphasis marker. Count revealed = floor(sub * total).
func emphasizeTopics(input string, sub float64) string {
	paragraphs := text.Paragraphs(input)
	n := int(sub * float64(len(paragraphs)))

	out := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		if i < n {
			if ts := text.FirstSentence(p); ts != "" {
				p = strings.Replace(p, ts, "**"+ts+"**", 1)
			}
		}
		out[i] = p
	}
	return strings.Join(out, "\n\n")
}

// slideWindow highlights a fixed-width window whose position advances
// linearly across the full text length over the band.
func slideWindow(input string, windowSize int, sub float64) string {
	runes := []rune(input)
	if windowSize <= 0 {
		windowSize = 1
	}
	if windowSize >= len(runes) {
		return "[[" + input + "]]"
	}

	span := len(runes) - windowSize
	pos := int(sub * float64(span))
	if pos > span {
		pos = span
	}
	return string(runes[:pos]) + "[[" + string(runes[pos:pos+windowSize]) + "]]" + string(runes[pos+windowSize:])
}

// assemblePreview reveals a linearly growing lead prefix capped at 60%
// of maxLength, then a growing slice of the key content once the lead
// has passed 30% of maxLength.
func assemblePreview(in Inputs, sub float64) string {
	runes := []rune(in.Text)
	leadLen := int(sub * leadCapRatio * float64(in.MaxLength))
	if leadLen > len(runes) {
		leadLen = len(runes)
	}
	out := string(runes[:leadLen]) + truncate.Ellipsis

	if float64(leadLen) > leadKeyTrigger*float64(in.MaxLength) {
		key := []rune(truncate.KeyContent(in.Text, in.MaxLength-len(truncate.Ellipsis)))
		shown := int(sub * float64(len(key)))
		if shown > 0 {
			out += " " + string(key[:shown])
		}
	}
	return out
}

func chunkSnapshot(progress float64, in Inputs) string {
	switch {
	case progress < chunkEmbedStart:
		sub := subProgress(progress, 0, chunkEmbedStart)
		return markProcessed(in.Text, sub)

	case progress < chunkRelevanceStart:
		sub := subProgress(progress, chunkEmbedStart, 0.3)
		return revealEmbeddings(in, sub)

	default:
		sub := subProgress(progress, chunkRelevanceStart, 0.4)
		return revealRelevance(in, sub)
	}
}

// markProcessed marks a growing prefix of sentences as processed.
// Count = floor(sub * total).
func markProcessed(input string, sub float64) string {
	sentences := text.Sentences(input)
	n := int(sub * float64(len(sentences)))

	lines := make([]string, len(sentences))
	for i, s := range sentences {
		if i < n {
			lines[i] = "[processed] " + s
		} else {
			lines[i] = s
		}
	}
	return strings.Join(lines, "\n")
}

// revealEmbeddings interleaves one placeholder embedding line per
// chunk already processed. Count = floor(sub * chunks).
func revealEmbeddings(in Inputs, sub float64) string {
	chunks := in.Chunks.Chunks
	m := int(sub * float64(len(chunks)))

	var b strings.Builder
	for i, c := range chunks {
		b.WriteString(c)
		b.WriteByte('\n')
		if i < m && i < len(in.Chunks.Embeddings) {
			b.WriteString(embeddingPreview(in.Chunks.Embeddings[i]))
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// revealRelevance shows up to 3 chunks with a relevance percentage,
// then appends the real summary once sub-progress exceeds 0.8.
// Count revealed uses ceil so the first chunk appears immediately on
// entering the band.
func revealRelevance(in Inputs, sub float64) string {
	chunks := in.Chunks.Chunks
	limit := 3
	if len(chunks) < limit {
		limit = len(chunks)
	}
	shown := int(math.Ceil(sub * float64(limit)))
	if shown > limit {
		shown = limit
	}

	var b strings.Builder
	for i := 0; i < shown; i++ {
		fmt.Fprintf(&b, "chunk %d (relevance %d%%): %s\n", i+1, relevancePercent(in, i), chunks[i])
	}
	if sub > 0.8 {
		b.WriteString("\n")
		b.WriteString(in.Summary)
	}
	return strings.TrimRight(b.String(), "\n")
}

// relevancePercent reads the precomputed per-chunk relevance, falling
// back to a fixed descending series when none was supplied. Simulated
// display data either way.
func relevancePercent(in Inputs, i int) int {
	if i < len(in.Relevance) {
		return int(math.Round(in.Relevance[i] * 100))
	}
	pct := 92 - 7*i
	if pct < 50 {
		pct = 50
	}
	return pct
}

// embeddingPreview renders the first dimensions of a vector.
func embeddingPreview(v []float64) string {
	n := 3
	if len(v) < n {
		n = len(v)
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("%.4f", v[i])
	}
	return fmt.Sprintf("  vec[%d] = [%s ...]", len(v), strings.Join(parts, " "))
}
