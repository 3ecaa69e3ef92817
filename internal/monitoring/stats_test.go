package monitoring_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/compresr/truncation-engine/internal/monitoring"
)

func TestStats_Counters(t *testing.T) {
	s := monitoring.NewStats()

	s.AnalysisServed()
	s.AnalysisServed()
	s.CacheHit()
	s.Fallback()
	s.SimulationStarted()

	snap := s.Snapshot()
	assert.Equal(t, int64(2), snap["analyses_total"])
	assert.Equal(t, int64(1), snap["cache_hits_total"])
	assert.Equal(t, int64(1), snap["fallbacks_total"])
	assert.Equal(t, int64(1), snap["simulations_started"])
}

func TestStats_ConcurrentIncrements(t *testing.T) {
	s := monitoring.NewStats()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AnalysisServed()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), s.Snapshot()["analyses_total"])
}
