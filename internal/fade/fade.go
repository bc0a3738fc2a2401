// Package fade schedules linear gain ramps on a channel's gain stage.
package fade

import (
	"sync/atomic"
	"time"
)

// Stage is a gain control that can hold a value or ramp linearly to a new one.
type Stage interface {
	// CancelScheduled drops any ramp in progress, freezing the gain where it is.
	CancelScheduled()
	// SetValue sets the gain immediately.
	SetValue(v float64)
	// LinearRampTo ramps from the current value to v over d.
	LinearRampTo(v float64, d time.Duration)
	// Value returns the gain being produced right now.
	Value() float64
}

// Target is something that owns a gain stage and tracks its logical volume.
type Target interface {
	// GainStage returns the stage to ramp, or nil if the target has none yet.
	GainStage() Stage
	// CommitVolume records v as the target's current volume.
	CommitVolume(v float64)
}

// Engine schedules ramps. The zero value is ready to use.
type Engine struct {
	scheduled atomic.Int64
}

// New returns a ready Engine.
func New() *Engine {
	return &Engine{}
}

// Ramp moves t's gain from one level to another over d.
//
// Any ramp already running on the stage is cancelled first, then from is
// committed as the starting gain and a linear ramp to to is scheduled. The
// target's volume is set to to immediately. onComplete, when non-nil, fires
// once after d has elapsed, even if another ramp replaced this one in the
// meantime; callers decide whether a late callback still applies.
//
// A non-positive d sets to at once and fires onComplete on the next timer tick.
// Targets without a gain stage still get their volume committed and their
// callback fired.
func (e *Engine) Ramp(t Target, from, to float64, d time.Duration, onComplete func()) {
	if d < 0 {
		d = 0
	}
	e.scheduled.Add(1)

	if stage := t.GainStage(); stage != nil {
		stage.CancelScheduled()
		if d == 0 {
			stage.SetValue(to)
		} else {
			stage.SetValue(from)
			stage.LinearRampTo(to, d)
		}
	}
	t.CommitVolume(to)

	if onComplete != nil {
		time.AfterFunc(d, onComplete)
	}
}

// Scheduled returns how many ramps the engine has scheduled so far.
func (e *Engine) Scheduled() int64 {
	return e.scheduled.Load()
}
