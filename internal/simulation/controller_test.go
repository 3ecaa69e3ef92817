package simulation_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compresr/truncation-engine/internal/simulation"
)

// frameRecorder collects published states in order.
type frameRecorder struct {
	mu     sync.Mutex
	frames []simulation.State
}

func (r *frameRecorder) publish(st simulation.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, st)
}

func (r *frameRecorder) snapshot() []simulation.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]simulation.State, len(r.frames))
	copy(out, r.frames)
	return out
}

func (r *frameRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *frameRecorder) lastIdle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.frames)
	return n > 0 && r.frames[n-1].Phase == simulation.PhaseIdle
}

// =============================================================================
// CONTROLLER LIFECYCLE TESTS
// =============================================================================

func TestController_New_WithoutAnalysis(t *testing.T) {
	_, err := simulation.New(simulation.Inputs{Text: "orphan text"}, simulation.Config{}, nil)

	assert.ErrorIs(t, err, simulation.ErrNotReady)
}

func TestController_Start_ComputesAndClampsMaxSteps(t *testing.T) {
	in := fixtureInputs(t)
	ctrl, err := simulation.New(in, simulation.Config{SpeedMs: 50}, nil)
	require.NoError(t, err)
	defer ctrl.Stop()

	require.NoError(t, ctrl.Start(simulation.MethodHierarchicalWindow))

	st := ctrl.State()
	// Five sentences give 15 steps; well short inputs would clamp to
	// MinSteps instead.
	assert.Equal(t, 15, st.MaxSteps)
	assert.Equal(t, simulation.PhaseRunning, st.Phase)
	assert.True(t, st.Running)
	assert.NotEmpty(t, st.ID)
}

func TestController_Start_ShortInputClampsToMinSteps(t *testing.T) {
	in := fixtureInputs(t)
	in.Truncated.OriginalMetrics.SentenceCount = 2

	ctrl, err := simulation.New(in, simulation.Config{SpeedMs: 50}, nil)
	require.NoError(t, err)
	defer ctrl.Stop()

	require.NoError(t, ctrl.Start(simulation.MethodHierarchicalWindow))

	assert.Equal(t, simulation.MinSteps, ctrl.State().MaxSteps)
}

func TestController_Start_WhileRunning(t *testing.T) {
	ctrl, err := simulation.New(fixtureInputs(t), simulation.Config{SpeedMs: 50}, nil)
	require.NoError(t, err)
	defer ctrl.Stop()

	require.NoError(t, ctrl.Start(simulation.MethodHierarchicalWindow))

	assert.ErrorIs(t, ctrl.Start(simulation.MethodSemanticChunk), simulation.ErrRunning)
}

func TestController_FullRun_StepsAdvanceAndSettle(t *testing.T) {
	rec := &frameRecorder{}
	in := fixtureInputs(t)
	ctrl, err := simulation.New(in, simulation.Config{
		SpeedMs:     1,
		SettleDelay: 5 * time.Millisecond,
		MaxSteps:    simulation.MinSteps,
	}, rec.publish)
	require.NoError(t, err)

	require.NoError(t, ctrl.Start(simulation.MethodHierarchicalWindow))

	require.Eventually(t, rec.lastIdle, 2*time.Second, time.Millisecond,
		"simulation should run to completion and return to idle")

	frames := rec.snapshot()

	var running []simulation.State
	var settling, idle *simulation.State
	for i := range frames {
		switch frames[i].Phase {
		case simulation.PhaseRunning:
			running = append(running, frames[i])
		case simulation.PhaseSettling:
			settling = &frames[i]
		case simulation.PhaseIdle:
			idle = &frames[i]
		}
	}

	require.Len(t, running, simulation.MinSteps, "one frame per step")
	for i, fr := range running {
		assert.Equal(t, i, fr.Step, "steps advance by exactly one per tick")
		assert.True(t, fr.Running)
	}

	require.NotNil(t, settling, "final frame precedes the settle phase")
	assert.Equal(t, in.Truncated.TruncatedText, settling.CurrentText,
		"final frame is the real pipeline output, not an interpolation")

	require.NotNil(t, idle)
	assert.False(t, idle.Running)
	assert.Equal(t, 0, idle.Step)
	assert.Equal(t, in.Truncated.TruncatedText, idle.CurrentText,
		"final text stays in place after settling")
}

func TestController_FullRun_ChunkMethodEndsOnSummary(t *testing.T) {
	rec := &frameRecorder{}
	in := fixtureInputs(t)
	ctrl, err := simulation.New(in, simulation.Config{
		SpeedMs:     1,
		SettleDelay: 5 * time.Millisecond,
	}, rec.publish)
	require.NoError(t, err)

	require.NoError(t, ctrl.Start(simulation.MethodSemanticChunk))

	require.Eventually(t, rec.lastIdle, 2*time.Second, time.Millisecond)

	frames := rec.snapshot()
	last := frames[len(frames)-1]
	assert.Equal(t, in.Summary, last.CurrentText)
}

func TestController_Stop_RestoresOriginalAndSilencesTimers(t *testing.T) {
	rec := &frameRecorder{}
	in := fixtureInputs(t)
	ctrl, err := simulation.New(in, simulation.Config{SpeedMs: 10}, rec.publish)
	require.NoError(t, err)

	require.NoError(t, ctrl.Start(simulation.MethodHierarchicalWindow))

	require.Eventually(t, func() bool { return rec.count() > 0 }, time.Second, time.Millisecond)

	ctrl.Stop()

	st := ctrl.State()
	assert.False(t, st.Running)
	assert.Equal(t, simulation.PhaseIdle, st.Phase)
	assert.Equal(t, 0, st.Step)
	assert.Equal(t, in.Text, st.CurrentText, "stop restores the untouched original")

	// The generation counter must silence any timer already in flight.
	after := rec.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, rec.count(), "no frames published after stop")
}

func TestController_Stop_WhenIdle_IsANoOp(t *testing.T) {
	rec := &frameRecorder{}
	ctrl, err := simulation.New(fixtureInputs(t), simulation.Config{}, rec.publish)
	require.NoError(t, err)

	ctrl.Stop()

	assert.Zero(t, rec.count(), "stopping an idle controller publishes nothing")
}

func TestController_RestartAfterStop(t *testing.T) {
	ctrl, err := simulation.New(fixtureInputs(t), simulation.Config{SpeedMs: 10}, nil)
	require.NoError(t, err)
	defer ctrl.Stop()

	require.NoError(t, ctrl.Start(simulation.MethodHierarchicalWindow))
	ctrl.Stop()

	assert.NoError(t, ctrl.Start(simulation.MethodSemanticChunk), "controller is reusable after stop")
	assert.Equal(t, simulation.MethodSemanticChunk, ctrl.State().Method)
}

func TestController_InvalidMethodFallsBackToHierarchical(t *testing.T) {
	ctrl, err := simulation.New(fixtureInputs(t), simulation.Config{SpeedMs: 50}, nil)
	require.NoError(t, err)
	defer ctrl.Stop()

	require.NoError(t, ctrl.Start(simulation.Method("bogus")))

	assert.Equal(t, simulation.MethodHierarchicalWindow, ctrl.State().Method)
}
