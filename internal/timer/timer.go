// Package timer implements the focus/break countdown state machine.
//
// The machine holds no wall-clock reference and owns no goroutines: callers
// drive it by calling Tick once per elapsed second. Phase completions are
// reported as events so the host can persist sessions and update streaks.
package timer

import (
	"errors"
	"fmt"
)

// Phase is one segment of the focus cycle.
type Phase string

const (
	PhaseFocus      Phase = "focus"
	PhaseShortBreak Phase = "short_break"
	PhaseLongBreak  Phase = "long_break"
)

// ErrNotRunning is returned by Tick on a paused or never-started timer.
// Callers must gate ticks behind the running flag; this is a contract
// violation, not a retryable fault.
var ErrNotRunning = errors.New("timer: tick on a timer that is not running")

// InvalidConfigError reports a non-positive Config field. Configs are
// rejected outright, never clamped.
type InvalidConfigError struct {
	Field string
	Value int
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("timer: config field %s must be positive, got %d", e.Field, e.Value)
}

// Config holds phase durations and the long-break cadence, in minutes.
type Config struct {
	FocusMinutes            int `json:"focusMinutes"`
	ShortBreakMinutes       int `json:"shortBreakMinutes"`
	LongBreakMinutes        int `json:"longBreakMinutes"`
	SessionsBeforeLongBreak int `json:"sessionsBeforeLongBreak"`
}

// DefaultConfig is the classic 25/5/15 cycle with a long break every fourth
// focus phase.
func DefaultConfig() Config {
	return Config{
		FocusMinutes:            25,
		ShortBreakMinutes:       5,
		LongBreakMinutes:        15,
		SessionsBeforeLongBreak: 4,
	}
}

// Validate returns an InvalidConfigError for the first non-positive field.
func (c Config) Validate() error {
	if c.FocusMinutes <= 0 {
		return &InvalidConfigError{Field: "focusMinutes", Value: c.FocusMinutes}
	}
	if c.ShortBreakMinutes <= 0 {
		return &InvalidConfigError{Field: "shortBreakMinutes", Value: c.ShortBreakMinutes}
	}
	if c.LongBreakMinutes <= 0 {
		return &InvalidConfigError{Field: "longBreakMinutes", Value: c.LongBreakMinutes}
	}
	if c.SessionsBeforeLongBreak <= 0 {
		return &InvalidConfigError{Field: "sessionsBeforeLongBreak", Value: c.SessionsBeforeLongBreak}
	}
	return nil
}

func (c Config) durationSeconds(phase Phase) int {
	switch phase {
	case PhaseShortBreak:
		return c.ShortBreakMinutes * 60
	case PhaseLongBreak:
		return c.LongBreakMinutes * 60
	default:
		return c.FocusMinutes * 60
	}
}

func (c Config) durationMinutes(phase Phase) int {
	switch phase {
	case PhaseShortBreak:
		return c.ShortBreakMinutes
	case PhaseLongBreak:
		return c.LongBreakMinutes
	default:
		return c.FocusMinutes
	}
}

// State is a read-only snapshot of a timer.
type State struct {
	Phase               Phase `json:"phase"`
	SecondsRemaining    int   `json:"secondsRemaining"`
	CompletedFocusCount int   `json:"completedFocusCount"`
	Running             bool  `json:"running"`
}

// PhaseCompleted describes one finished phase.
type PhaseCompleted struct {
	Phase           Phase
	DurationMinutes int
}

// Timer is the countdown state machine. It is not safe for concurrent use;
// each user session owns exactly one instance and serializes access to it.
type Timer struct {
	config  Config
	pending *Config

	phase               Phase
	secondsRemaining    int
	completedFocusCount int
	running             bool
}

// New returns a paused timer at the start of a focus phase.
func New(config Config) (*Timer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Timer{
		config:           config,
		phase:            PhaseFocus,
		secondsRemaining: config.durationSeconds(PhaseFocus),
	}, nil
}

// Start marks the timer running. No-op if already running.
func (t *Timer) Start() {
	t.running = true
}

// Pause halts progression without discarding the countdown. Idempotent.
func (t *Timer) Pause() {
	t.running = false
}

// Tick consumes one elapsed second. When the countdown reaches zero it
// returns the completed phase, advances to the next phase at its full
// duration, and stays running so phases chain without a gap.
func (t *Timer) Tick() (*PhaseCompleted, error) {
	if !t.running {
		return nil, ErrNotRunning
	}

	t.secondsRemaining--
	if t.secondsRemaining > 0 {
		return nil, nil
	}

	completed := &PhaseCompleted{
		Phase:           t.phase,
		DurationMinutes: t.config.durationMinutes(t.phase),
	}

	if pending := t.pending; pending != nil {
		t.config = *pending
		t.pending = nil
	}

	t.phase = t.nextPhase()
	t.secondsRemaining = t.config.durationSeconds(t.phase)
	return completed, nil
}

func (t *Timer) nextPhase() Phase {
	if t.phase != PhaseFocus {
		return PhaseFocus
	}
	t.completedFocusCount++
	if t.completedFocusCount%t.config.SessionsBeforeLongBreak == 0 {
		return PhaseLongBreak
	}
	return PhaseShortBreak
}

// Reset returns to a paused focus phase at full duration. The completed
// focus count survives; only constructing a new Timer clears it.
func (t *Timer) Reset() {
	t.pending = nil
	t.phase = PhaseFocus
	t.secondsRemaining = t.config.durationSeconds(PhaseFocus)
	t.running = false
}

// ApplyConfig replaces the configuration. A paused timer snaps its countdown
// to the new duration for the current phase; a running timer keeps counting
// and picks up the new config at the next phase transition.
func (t *Timer) ApplyConfig(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	if t.running {
		pending := config
		t.pending = &pending
		return nil
	}

	t.config = config
	t.pending = nil
	t.secondsRemaining = config.durationSeconds(t.phase)
	return nil
}

// Config returns the active configuration, ignoring any pending swap.
func (t *Timer) Config() Config {
	return t.config
}

// Snapshot returns a copy of the current state.
func (t *Timer) Snapshot() State {
	return State{
		Phase:               t.phase,
		SecondsRemaining:    t.secondsRemaining,
		CompletedFocusCount: t.completedFocusCount,
		Running:             t.running,
	}
}
