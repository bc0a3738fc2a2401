package player

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/llehouerou/notebgm/internal/volume"
)

var _ beep.Streamer = (*Gain)(nil)

// Gain is a channel's gain stage: it multiplies its source by a linear gain
// that can hold still or ramp between two levels.
//
// Gain values are evaluated against the wall clock, so a ramp started with
// LinearRampTo reaches its target after the requested duration whether or
// not any samples were streamed in between.
type Gain struct {
	mu       sync.Mutex
	source   beep.Streamer
	rate     beep.SampleRate
	released bool

	value float64 // held value, or the ramp's starting value
	ramp  *ramp
}

type ramp struct {
	from, to float64
	start    time.Time
	length   time.Duration
}

// NewGain returns a silent, unattached gain stage.
func NewGain() *Gain {
	return &Gain{}
}

// SetValue sets the gain immediately and drops any ramp.
func (g *Gain) SetValue(v float64) {
	g.mu.Lock()
	g.value = volume.Clamp(v)
	g.ramp = nil
	g.mu.Unlock()
}

// LinearRampTo ramps from the current gain to v over d.
func (g *Gain) LinearRampTo(v float64, d time.Duration) {
	now := time.Now()
	g.mu.Lock()
	defer g.mu.Unlock()

	from := g.valueAtLocked(now)
	v = volume.Clamp(v)
	if d <= 0 {
		g.value = v
		g.ramp = nil
		return
	}
	g.value = from
	g.ramp = &ramp{from: from, to: v, start: now, length: d}
}

// CancelScheduled freezes the gain at its current value.
func (g *Gain) CancelScheduled() {
	now := time.Now()
	g.mu.Lock()
	g.value = g.valueAtLocked(now)
	g.ramp = nil
	g.mu.Unlock()
}

// Value returns the gain being applied right now.
func (g *Gain) Value() float64 {
	now := time.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.valueAtLocked(now)
}

// Ramping reports whether a ramp is still in progress.
func (g *Gain) Ramping() bool {
	now := time.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.settleLocked(now)
	return g.ramp != nil
}

// attach connects the stage to its source at the given sample rate.
func (g *Gain) attach(s beep.Streamer, rate beep.SampleRate) {
	g.mu.Lock()
	g.source = s
	g.rate = rate
	g.released = false
	g.mu.Unlock()
}

// release disconnects the stage. The speaker drops it on its next read.
func (g *Gain) release() {
	g.mu.Lock()
	g.source = nil
	g.released = true
	g.mu.Unlock()
}

// Stream implements beep.Streamer.
func (g *Gain) Stream(samples [][2]float64) (n int, ok bool) {
	now := time.Now()
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.released {
		return 0, false
	}
	g.settleLocked(now)
	if g.source == nil {
		clear(samples)
		return len(samples), true
	}

	n, ok = g.source.Stream(samples)

	if g.ramp == nil {
		for i := range samples[:n] {
			samples[i][0] *= g.value
			samples[i][1] *= g.value
		}
		return n, ok
	}

	step := g.rate.D(1)
	for i := range samples[:n] {
		v := g.valueAtLocked(now.Add(time.Duration(i) * step))
		samples[i][0] *= v
		samples[i][1] *= v
	}
	return n, ok
}

// Err implements beep.Streamer.
func (g *Gain) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.source != nil {
		return g.source.Err()
	}
	return nil
}

// valueAtLocked evaluates the gain at t without changing the schedule.
func (g *Gain) valueAtLocked(t time.Time) float64 {
	r := g.ramp
	if r == nil {
		return g.value
	}
	elapsed := t.Sub(r.start)
	switch {
	case elapsed <= 0:
		return r.from
	case elapsed >= r.length:
		return r.to
	}
	frac := float64(elapsed) / float64(r.length)
	return r.from + (r.to-r.from)*frac
}

// settleLocked replaces a ramp that has finished by t with its end value.
func (g *Gain) settleLocked(t time.Time) {
	if r := g.ramp; r != nil && t.Sub(r.start) >= r.length {
		g.value = r.to
		g.ramp = nil
	}
}
