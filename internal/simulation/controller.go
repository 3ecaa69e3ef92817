package simulation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultSettleDelay is how long the final text stays on screen before
// the controller returns to idle.
const DefaultSettleDelay = 1500 * time.Millisecond

// DefaultSpeedMs is the tick interval when none is configured.
const DefaultSpeedMs = 120

// Config tunes a Controller.
type Config struct {
	SpeedMs     int
	SettleDelay time.Duration
	// MaxSteps overrides the computed step count. Still floored at
	// MinSteps.
	MaxSteps int
}

// Controller owns one SimulationState and drives it tick by tick.
//
// Ticks are strictly sequential: the snapshot for a tick is computed
// and published before the next timer is armed. Stop invalidates the
// current generation, so a timer already in flight publishes nothing.
type Controller struct {
	mu      sync.Mutex
	state   State
	inputs  Inputs
	cfg     Config
	gen     uint64
	timer   *time.Timer
	publish func(State)
}

// New creates a controller over a completed analysis. publish receives
// a State copy after every tick; it must not call back into the
// controller. Returns ErrNotReady when no truncation result exists.
func New(inputs Inputs, cfg Config, publish func(State)) (*Controller, error) {
	if !inputs.ready() {
		return nil, ErrNotReady
	}
	if cfg.SpeedMs <= 0 {
		cfg.SpeedMs = DefaultSpeedMs
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if publish == nil {
		publish = func(State) {}
	}

	return &Controller{
		inputs:  inputs,
		cfg:     cfg,
		publish: publish,
		state: State{
			ID:          uuid.NewString(),
			Phase:       PhaseIdle,
			SpeedMs:     cfg.SpeedMs,
			WindowSize:  inputs.WindowSize,
			CurrentText: inputs.Text,
		},
	}, nil
}

// State returns a copy of the current simulation state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins ticking with the given method. Returns ErrRunning when
// a simulation is already in flight.
func (c *Controller) Start(method Method) error {
	if !method.Valid() {
		method = MethodHierarchicalWindow
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Running {
		return ErrRunning
	}

	maxSteps := c.cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = ComputeMaxSteps(c.inputs.Truncated.OriginalMetrics.SentenceCount)
	}
	if maxSteps < MinSteps {
		maxSteps = MinSteps
	}

	c.state.Method = method
	c.state.Phase = PhaseRunning
	c.state.Step = 0
	c.state.MaxSteps = maxSteps
	c.state.Running = true
	c.state.CurrentText = c.inputs.Text

	gen := c.gen
	log.Debug().
		Str("simulation_id", c.state.ID).
		Str("method", string(method)).
		Int("max_steps", maxSteps).
		Msg("simulation started")

	c.arm(gen, c.tickInterval())
	return nil
}

// Stop cancels the simulation synchronously: the generation counter is
// bumped under the lock, so an already-fired timer publishes nothing.
// CurrentText is restored to the untouched original.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	wasRunning := c.state.Running
	c.state.Phase = PhaseIdle
	c.state.Running = false
	c.state.Step = 0
	c.state.CurrentText = c.inputs.Text
	st := c.state
	c.mu.Unlock()

	if wasRunning {
		log.Debug().Str("simulation_id", st.ID).Msg("simulation stopped")
		c.publish(st)
	}
}

func (c *Controller) tickInterval() time.Duration {
	return time.Duration(c.cfg.SpeedMs) * time.Millisecond
}

// arm schedules the next timer fire for generation gen. Caller holds
// the lock.
func (c *Controller) arm(gen uint64, d time.Duration) {
	c.timer = time.AfterFunc(d, func() { c.tick(gen) })
}

// tick computes and publishes one snapshot, then re-arms. The next
// timer is armed only after publish returns, keeping ticks strictly
// sequential.
func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.state.Running {
		c.mu.Unlock()
		return
	}

	if c.state.Step >= c.state.MaxSteps {
		// Publish the authoritative final output, then settle.
		c.state.CurrentText = c.finalText()
		c.state.Phase = PhaseSettling
		st := c.state
		c.mu.Unlock()

		c.publish(st)

		c.mu.Lock()
		if gen == c.gen {
			c.timer = time.AfterFunc(c.cfg.SettleDelay, func() { c.settle(gen) })
		}
		c.mu.Unlock()
		return
	}

	c.state.CurrentText = Snapshot(c.state.Method, c.state.Step, c.state.MaxSteps, c.inputs)
	st := c.state // published frame carries the step it rendered
	c.state.Step++
	c.mu.Unlock()

	c.publish(st)

	c.mu.Lock()
	if gen == c.gen && c.state.Running {
		c.arm(gen, c.tickInterval())
	}
	c.mu.Unlock()
}

// settle transitions Settling → Idle after the settle delay. The final
// text stays in place; step and running reset.
func (c *Controller) settle(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state.Phase != PhaseSettling {
		c.mu.Unlock()
		return
	}
	c.state.Phase = PhaseIdle
	c.state.Running = false
	c.state.Step = 0
	st := c.state
	c.mu.Unlock()

	c.publish(st)
}

// finalText is the real pipeline output for the chosen method, not an
// interpolated snapshot.
func (c *Controller) finalText() string {
	if c.state.Method == MethodSemanticChunk {
		return c.inputs.Summary
	}
	return c.inputs.Truncated.TruncatedText
}
