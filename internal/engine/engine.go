// Package engine orchestrates the truncation pipeline.
//
// FLOW:
//  1. Request arrives → validate, look up the analysis cache
//  2. If an analyzer endpoint is configured, ask it for real scores
//  3. On ErrUnavailable, fall back to fully local computation —
//     degraded mode is logged, never surfaced as a failure
//  4. Cache the analysis so the same input+config pair is computed
//     at most once
//
// Simulations replay a completed analysis tick by tick; starting one
// without an analysis is rejected with ErrNotReady.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/compresr/truncation-engine/external"
	"github.com/compresr/truncation-engine/internal/chunker"
	"github.com/compresr/truncation-engine/internal/monitoring"
	"github.com/compresr/truncation-engine/internal/similarity"
	"github.com/compresr/truncation-engine/internal/simulation"
	"github.com/compresr/truncation-engine/internal/store"
	"github.com/compresr/truncation-engine/internal/text"
	"github.com/compresr/truncation-engine/internal/truncate"
)

// ErrInvalidInput is surfaced when required text is missing or empty.
// No local recovery.
var ErrInvalidInput = errors.New("text is required")

// Config holds the engine's default truncation parameters. Request
// fields override them per call.
type Config struct {
	MaxLength  int `yaml:"max_length"`
	WindowSize int `yaml:"window_size"`
	MaxChunks  int `yaml:"max_chunks"`
}

// Request is one truncation request.
type Request struct {
	Text       string `json:"text"`
	MaxLength  int    `json:"max_length"`
	WindowSize int    `json:"window_size"`
}

// ChunkingResult couples a ChunkSet with its reduction and per-chunk
// relevance percentages.
type ChunkingResult struct {
	chunker.ChunkSet
	ReductionPercent int `json:"reduction_percent"`
	// Relevance holds per-chunk cosine similarity to the chunk
	// centroid in [0,1]. Derived from placeholder embeddings unless
	// the analyzer supplied real ones — display only either way.
	Relevance []float64 `json:"relevance"`
}

// Analysis is the complete result for one input+config pair. Created
// once, immutable thereafter.
type Analysis struct {
	Original       text.Metrics      `json:"original"`
	Hierarchical   truncate.Result   `json:"hierarchical"`
	Chunking       ChunkingResult    `json:"chunking"`
	Semantic       similarity.Scores `json:"semantic"`
	PoolingVerdict string            `json:"pooling_verdict"`
	Degraded       bool              `json:"degraded"`

	MaxLength  int `json:"max_length"`
	WindowSize int `json:"window_size"`
}

// Analyzer is the upstream collaborator contract. Satisfied by
// *external.Client; faked in tests.
type Analyzer interface {
	Analyze(ctx context.Context, req external.Request) (*external.Response, error)
}

// Engine runs analyses and hands completed ones to simulations.
type Engine struct {
	cfg      Config
	analyzer Analyzer
	cache    store.Store
	stats    *monitoring.Stats

	chunkMu sync.Mutex
	chunks  *chunker.Chunker
}

// New creates an engine. analyzer and cache may be nil (local-only,
// uncached). A nil rng gives the chunker a time-seeded source.
func New(cfg Config, analyzer Analyzer, cache store.Store, stats *monitoring.Stats, rng *rand.Rand) *Engine {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = 200
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 10
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = chunker.DefaultMaxChunks
	}
	if stats == nil {
		stats = monitoring.NewStats()
	}
	return &Engine{
		cfg:      cfg,
		analyzer: analyzer,
		cache:    cache,
		stats:    stats,
		chunks:   chunker.New(cfg.MaxChunks, rng),
	}
}

// Stats exposes the engine counters.
func (e *Engine) Stats() *monitoring.Stats { return e.stats }

// Analyze runs the full pipeline for req. Returns ErrInvalidInput for
// empty text; upstream failures degrade to local computation and are
// never surfaced.
func (e *Engine) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrInvalidInput
	}
	if req.MaxLength <= 0 {
		req.MaxLength = e.cfg.MaxLength
	}
	if req.WindowSize <= 0 {
		req.WindowSize = e.cfg.WindowSize
	}

	key := e.cacheKey(req)
	if cached := e.lookup(key); cached != nil {
		e.stats.CacheHit()
		return cached, nil
	}

	analysis := e.compute(ctx, req)

	e.remember(key, analysis)
	e.stats.AnalysisServed()
	return analysis, nil
}

// NewSimulation builds a controller that replays a completed analysis.
func (e *Engine) NewSimulation(a *Analysis, cfg simulation.Config, publish func(simulation.State)) (*simulation.Controller, error) {
	if a == nil {
		return nil, simulation.ErrNotReady
	}
	ctrl, err := simulation.New(simulation.Inputs{
		Text:       a.Hierarchical.OriginalText,
		MaxLength:  a.MaxLength,
		WindowSize: a.WindowSize,
		Truncated:  &a.Hierarchical,
		Chunks:     &a.Chunking.ChunkSet,
		Summary:    a.Chunking.SummaryText,
		Relevance:  a.Chunking.Relevance,
	}, cfg, publish)
	if err != nil {
		return nil, err
	}
	e.stats.SimulationStarted()
	return ctrl, nil
}

// compute asks the analyzer first and falls back to local computation
// on any unavailability.
func (e *Engine) compute(ctx context.Context, req Request) *Analysis {
	if e.analyzer != nil {
		resp, err := e.analyzer.Analyze(ctx, external.Request{
			Text:       req.Text,
			MaxLength:  req.MaxLength,
			WindowSize: req.WindowSize,
		})
		if err == nil {
			return e.fromUpstream(req, resp)
		}
		e.stats.Fallback()
		log.Warn().Err(err).Msg("analyzer unavailable, computing locally")
	}
	return e.localAnalyze(req)
}

// localAnalyze is the degraded-mode path: deterministic truncation and
// chunking with documented placeholder scores.
func (e *Engine) localAnalyze(req Request) *Analysis {
	result := truncate.Truncate(req.Text, req.MaxLength, req.WindowSize)
	result.Pooling = similarity.PlaceholderPooling()

	e.chunkMu.Lock()
	set := e.chunks.Chunk(req.Text)
	e.chunkMu.Unlock()
	set.SummaryText = chunker.Summarize(set, req.MaxLength)

	return &Analysis{
		Original:     result.OriginalMetrics,
		Hierarchical: result,
		Chunking: ChunkingResult{
			ChunkSet:         set,
			ReductionPercent: truncate.ReductionPercent(result.OriginalMetrics.Length, utf8.RuneCountInString(set.SummaryText)),
			Relevance:        chunkRelevance(set.Embeddings),
		},
		Semantic:       similarity.Placeholder(),
		PoolingVerdict: similarity.Classify(result.Pooling),
		Degraded:       e.analyzer != nil,
		MaxLength:      req.MaxLength,
		WindowSize:     req.WindowSize,
	}
}

// fromUpstream maps an analyzer response onto an Analysis. Scores pass
// through sanitized but otherwise unchanged.
func (e *Engine) fromUpstream(req Request, resp *external.Response) *Analysis {
	pooling := truncate.Pooling{
		MeanPooling:      similarity.Sanitize(resp.Hierarchical.Pooling.MeanPooling),
		AttentionPooling: similarity.Sanitize(resp.Hierarchical.Pooling.AttentionPooling),
	}
	orig := text.Metrics{
		Length:        resp.Original.Length,
		WordCount:     resp.Original.WordCount,
		SentenceCount: resp.Original.SentenceCount,
		TokenEstimate: resp.Original.TokenEstimate,
		TokenCount:    text.TokenCount(req.Text),
	}
	result := truncate.Result{
		OriginalText:     req.Text,
		OriginalMetrics:  orig,
		TruncatedText:    resp.Hierarchical.TruncatedText,
		TruncatedMetrics: text.Measure(resp.Hierarchical.TruncatedText),
		ReductionPercent: resp.Hierarchical.ReductionPercent,
		Pooling:          pooling,
	}

	set := chunker.ChunkSet{
		Chunks:      resp.Chunking.Chunks,
		Embeddings:  alignEmbeddings(resp.Chunking.Chunks, resp.Chunking.Embeddings),
		SummaryText: resp.Chunking.SummaryText,
	}

	return &Analysis{
		Original:     orig,
		Hierarchical: result,
		Chunking: ChunkingResult{
			ChunkSet:         set,
			ReductionPercent: resp.Chunking.ReductionPercent,
			Relevance:        chunkRelevance(set.Embeddings),
		},
		Semantic: similarity.Scores{
			SlidingWindow: similarity.Sanitize(resp.Semantic.SlidingWindow),
			SBERT:         similarity.Sanitize(resp.Semantic.SBERT),
		},
		PoolingVerdict: similarity.Classify(pooling),
		MaxLength:      req.MaxLength,
		WindowSize:     req.WindowSize,
	}
}

// alignEmbeddings enforces one embedding per chunk on upstream data:
// extras are dropped, missing vectors are zero-padded, so the chunk
// alignment invariant holds by construction rather than by per-caller
// guards.
func alignEmbeddings(chunks []string, embeddings [][]float64) [][]float64 {
	if len(chunks) == 0 {
		return nil
	}
	if len(embeddings) == len(chunks) {
		return embeddings
	}
	width := chunker.EmbeddingDim
	if len(embeddings) > 0 {
		width = len(embeddings[0])
	}
	out := make([][]float64, len(chunks))
	for i := range out {
		if i < len(embeddings) {
			out[i] = embeddings[i]
		} else {
			out[i] = make([]float64, width)
		}
	}
	return out
}

// chunkRelevance scores each chunk against the embedding centroid,
// clamped to [0,1].
func chunkRelevance(embeddings [][]float64) []float64 {
	if len(embeddings) == 0 {
		return nil
	}
	centroid := similarity.Centroid(embeddings)
	out := make([]float64, len(embeddings))
	for i, v := range embeddings {
		r := similarity.Cosine(v, centroid)
		if r < 0 {
			r = 0
		}
		out[i] = r
	}
	return out
}

// cacheKey hashes input+config so cache entries never collide across
// parameter changes.
func (e *Engine) cacheKey(req Request) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%d|", req.MaxLength, req.WindowSize, e.cfg.MaxChunks)
	h.Write([]byte(req.Text))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func (e *Engine) lookup(key string) *Analysis {
	if e.cache == nil {
		return nil
	}
	raw, ok := e.cache.Get(key)
	if !ok {
		return nil
	}
	var a Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		// Stale or corrupt entry; drop it and recompute.
		_ = e.cache.Delete(key)
		return nil
	}
	return &a
}

func (e *Engine) remember(key string, a *Analysis) {
	if e.cache == nil {
		return
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := e.cache.Set(key, string(raw)); err != nil {
		log.Warn().Err(err).Msg("failed to cache analysis")
	}
}
