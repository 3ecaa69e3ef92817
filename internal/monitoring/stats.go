package monitoring

import "sync/atomic"

// Stats holds in-memory engine counters, exposed at /v1/stats.
type Stats struct {
	analyses    atomic.Int64
	cacheHits   atomic.Int64
	fallbacks   atomic.Int64
	simulations atomic.Int64
}

// NewStats creates a zeroed counter set.
func NewStats() *Stats { return &Stats{} }

// AnalysisServed records one completed analysis.
func (s *Stats) AnalysisServed() { s.analyses.Add(1) }

// CacheHit records an analysis served from cache.
func (s *Stats) CacheHit() { s.cacheHits.Add(1) }

// Fallback records a degraded-mode local computation.
func (s *Stats) Fallback() { s.fallbacks.Add(1) }

// SimulationStarted records one simulation start.
func (s *Stats) SimulationStarted() { s.simulations.Add(1) }

// Snapshot returns current counter values.
func (s *Stats) Snapshot() map[string]int64 {
	return map[string]int64{
		"analyses_total":      s.analyses.Load(),
		"cache_hits_total":    s.cacheHits.Load(),
		"fallbacks_total":     s.fallbacks.Load(),
		"simulations_started": s.simulations.Load(),
	}
}
