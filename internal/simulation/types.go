// Package simulation animates the truncation and chunking pipelines as
// a discrete-time, multi-phase replay for visualization.
//
// DESIGN: All rendering is a pure function of (method, step, maxSteps,
// inputs) — no hidden memory beyond SimulationState. Timer scheduling
// lives in the Controller, a thin adapter around the pure snapshot
// functions. A generation counter invalidates in-flight timers so no
// snapshot is ever published after a stop request.
package simulation

import (
	"errors"

	"github.com/compresr/truncation-engine/internal/chunker"
	"github.com/compresr/truncation-engine/internal/truncate"
)

// ErrNotReady is returned when a simulation is started before a
// truncation result exists for the text.
var ErrNotReady = errors.New("simulation not ready: analyze the text first")

// ErrRunning is returned when Start is called on a controller whose
// simulation is still in flight.
var ErrRunning = errors.New("simulation already running")

// Method selects which pipeline the simulation replays.
type Method string

const (
	MethodHierarchicalWindow Method = "hierarchical_window"
	MethodSemanticChunk      Method = "semantic_chunk"
)

// Valid reports whether m names a known method.
func (m Method) Valid() bool {
	return m == MethodHierarchicalWindow || m == MethodSemanticChunk
}

// Phase is the controller's lifecycle state.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseRunning  Phase = "running"
	PhaseSettling Phase = "settling"
)

// MinSteps guarantees a visible animation even for very short inputs.
const MinSteps = 10

// maxStepsCap keeps animations of huge documents watchable.
const maxStepsCap = 60

// stepsPerSentence scales the step count with document size.
const stepsPerSentence = 3

// ComputeMaxSteps derives the tick count from sentence count, floored
// at MinSteps regardless of how short the input is.
func ComputeMaxSteps(sentenceCount int) int {
	steps := sentenceCount * stepsPerSentence
	if steps < MinSteps {
		return MinSteps
	}
	if steps > maxStepsCap {
		return maxStepsCap
	}
	return steps
}

// State is the externally visible simulation state. Owned exclusively
// by one Controller; never shared across concurrent simulations.
type State struct {
	ID          string `json:"id"`
	Method      Method `json:"method"`
	Phase       Phase  `json:"phase"`
	Step        int    `json:"step"`
	MaxSteps    int    `json:"max_steps"`
	SpeedMs     int    `json:"speed_ms"`
	WindowSize  int    `json:"window_size"`
	CurrentText string `json:"current_text"`
	Running     bool   `json:"running"`
}

// Inputs carries the completed analysis a simulation replays. The
// snapshot functions read it, never mutate it.
type Inputs struct {
	Text       string
	MaxLength  int
	WindowSize int
	Truncated  *truncate.Result
	Chunks     *chunker.ChunkSet
	Summary    string
	// Relevance holds per-chunk relevance in [0,1], aligned with
	// Chunks.Chunks. Derived from placeholder embeddings, display only.
	Relevance []float64
}

// ready reports whether a completed analysis backs these inputs.
func (in Inputs) ready() bool {
	return in.Truncated != nil && in.Chunks != nil
}
