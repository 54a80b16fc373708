package daemon

import (
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/livespiff/livespiffd/internal/run"
	"github.com/livespiff/livespiffd/internal/timer"
)

// Service owns the daemon's mutable state: the timer engine and the live run
// definition. Every operation takes the service mutex, so requests arriving
// on concurrent connections are still applied one at a time, in order.
type Service struct {
	mu     sync.Mutex
	engine *timer.Engine
	run    *run.Run
}

// NewService creates a service with the built-in default run and an idle
// timer sized to it.
func NewService(clock clockwork.Clock) *Service {
	r := run.NewDefault()
	return &Service{
		engine: timer.NewEngine(clock, len(r.Segments)),
		run:    r,
	}
}

// TimerSnapshot is a point-in-time view of the timer, the unit pushed on the
// state stream and assembled for pollers.
type TimerSnapshot struct {
	State        string `json:"state"`
	ElapsedMs    int64  `json:"elapsed_ms"`
	CurrentSplit int32  `json:"current_split"`
	SplitCount   int32  `json:"split_count"`
}

// StartOrSplit drives the engine's start-or-split transition.
func (s *Service) StartOrSplit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.StartOrSplit()
}

// TogglePause drives the engine's pause/resume transition.
func (s *Service) TogglePause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.TogglePause()
}

// Reset returns the timer to the Idle baseline.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Reset()
}

// ElapsedMs reports the attempt's elapsed time in milliseconds.
func (s *Service) ElapsedMs() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Elapsed().Milliseconds()
}

// State reports the timer phase as its wire string.
func (s *Service) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.State().String()
}

// CurrentSplit reports the next segment boundary to be crossed, 0-based.
func (s *Service) CurrentSplit() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int32(s.engine.CurrentSplit())
}

// SplitCount reports the live run's segment count.
func (s *Service) SplitCount() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int32(s.engine.SplitCount())
}

// Snapshot reports all poller-visible timer state in one consistent read.
func (s *Service) Snapshot() TimerSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TimerSnapshot{
		State:        s.engine.State().String(),
		ElapsedMs:    s.engine.Elapsed().Milliseconds(),
		CurrentSplit: int32(s.engine.CurrentSplit()),
		SplitCount:   int32(s.engine.SplitCount()),
	}
}

// LoadRun replaces the live run with the definition at path and resets the
// timer so the new run starts from Idle. On failure the previous run and
// timer state are left untouched and the error message is returned.
func (s *Service) LoadRun(path string) (bool, string) {
	loaded, err := run.Load(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to load run")
		return false, err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.run = loaded
	s.engine.SetSplitCount(len(loaded.Segments))
	s.engine.Reset()
	log.Info().
		Str("path", path).
		Str("game", loaded.Game).
		Str("category", loaded.Category).
		Int("segments", len(loaded.Segments)).
		Msg("run loaded")
	return true, "Run loaded"
}

// SaveRun writes the live run to path, creating a default run first if none
// exists.
func (s *Service) SaveRun(path string) (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		s.run = run.NewDefault()
	}
	if err := run.Save(path, s.run); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to save run")
		return false, err.Error()
	}
	log.Info().Str("path", path).Msg("run saved")
	return true, "Run saved"
}

// RunJSON serializes the live run, creating a default run first if none
// exists.
func (s *Service) RunJSON() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		s.run = run.NewDefault()
	}
	return s.run.JSON()
}
