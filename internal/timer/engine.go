package timer

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// State is the phase of the current attempt.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	case StateFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Engine is the elapsed-time and split-progression state machine. It is not
// safe for concurrent use; the daemon serializes access to it.
//
// All durations derive from the injected clock. time.Time subtraction uses the
// monotonic reading, so wall-clock jumps never perturb elapsed time.
type Engine struct {
	clock clockwork.Clock

	state       State
	startedAt   time.Time
	pausedAt    time.Time
	pausedTotal time.Duration
	frozen      time.Duration

	currentSplit int
	splitCount   int
}

// NewEngine returns an idle engine sized for splitCount segments.
// A splitCount below 1 is raised to 1.
func NewEngine(clock clockwork.Clock, splitCount int) *Engine {
	if splitCount < 1 {
		splitCount = 1
	}
	return &Engine{
		clock:      clock,
		state:      StateIdle,
		splitCount: splitCount,
	}
}

// StartOrSplit starts an attempt from Idle, or crosses the next split boundary
// while Running. Crossing the final boundary freezes the elapsed time and
// moves to Finished. In Paused or Finished it does nothing.
func (e *Engine) StartOrSplit() {
	switch e.state {
	case StateIdle:
		e.startedAt = e.clock.Now()
		e.pausedAt = time.Time{}
		e.pausedTotal = 0
		e.frozen = 0
		e.currentSplit = 0
		e.state = StateRunning
		log.Debug().Int("split_count", e.splitCount).Msg("attempt started")
	case StateRunning:
		e.currentSplit++
		if e.currentSplit >= e.splitCount {
			e.frozen = e.Elapsed()
			e.state = StateFinished
			log.Debug().Dur("final_time", e.frozen).Msg("attempt finished")
		}
	}
}

// TogglePause freezes the elapsed time and enters Paused from Running, or
// resumes from Paused adding the completed pause interval to the accumulator.
// In Idle or Finished it does nothing.
func (e *Engine) TogglePause() {
	switch e.state {
	case StateRunning:
		e.frozen = e.Elapsed()
		e.pausedAt = e.clock.Now()
		e.state = StatePaused
	case StatePaused:
		e.pausedTotal += e.clock.Now().Sub(e.pausedAt)
		e.pausedAt = time.Time{}
		e.state = StateRunning
	}
}

// Reset returns the engine to the Idle baseline. The split count is kept; it
// belongs to the run definition, not the attempt.
func (e *Engine) Reset() {
	e.state = StateIdle
	e.startedAt = time.Time{}
	e.pausedAt = time.Time{}
	e.pausedTotal = 0
	e.frozen = 0
	e.currentSplit = 0
}

// Elapsed reports the attempt's elapsed time. While Paused or Finished it
// returns the frozen snapshot, so the value does not drift between reads.
func (e *Engine) Elapsed() time.Duration {
	switch e.state {
	case StateIdle:
		return 0
	case StatePaused, StateFinished:
		return e.frozen
	}
	elapsed := e.clock.Now().Sub(e.startedAt) - e.pausedTotal
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// State reports the current phase.
func (e *Engine) State() State { return e.state }

// CurrentSplit reports the next segment boundary to be crossed, 0-based.
func (e *Engine) CurrentSplit() int { return e.currentSplit }

// SplitCount reports the number of segments in the active run.
func (e *Engine) SplitCount() int { return e.splitCount }

// SetSplitCount resizes the engine for a new run definition. Counts below 1
// are raised to 1, and a split index beyond the new count drops back to 0.
// Callers loading a new run should Reset as well so stale progress from the
// previous definition never carries over.
func (e *Engine) SetSplitCount(n int) {
	if n < 1 {
		n = 1
	}
	e.splitCount = n
	if e.currentSplit > e.splitCount {
		e.currentSplit = 0
	}
}
