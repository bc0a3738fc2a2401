// Package channel implements one playback slot: a single looping track with
// its own gain stage, fades and lifecycle.
package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/notebgm/internal/errmsg"
	"github.com/llehouerou/notebgm/internal/fade"
	"github.com/llehouerou/notebgm/internal/player"
	"github.com/llehouerou/notebgm/internal/position"
	"github.com/llehouerou/notebgm/internal/volume"
)

// Status is a snapshot of a channel.
type Status struct {
	Role          Role
	State         State
	Track         string
	Volume        float64
	HasEverPlayed bool
}

// Config wires a Channel to its collaborators.
type Config struct {
	Role       Role
	Positions  *position.Store
	Fader      *fade.Engine
	NewElement func() player.Element
	// FadeDuration is read on every fade so configuration changes apply live.
	FadeDuration func() time.Duration
	Logger       zerolog.Logger
}

// Channel owns one audio element and one gain stage.
//
// Every Start and Stop takes a new generation number. A fade-out completion
// only finalizes the stop if its generation is still current, so a callback
// that was overtaken by a later command does nothing.
type Channel struct {
	role      Role
	positions *position.Store
	fader     *fade.Engine
	newElem   func() player.Element
	fadeDur   func() time.Duration
	log       zerolog.Logger

	mu         sync.Mutex
	state      State
	track      string
	volume     float64
	everPlayed bool
	gen        uint64
	element    player.Element
	gain       *player.Gain
	stopDone   chan struct{}
	cancelLoad context.CancelFunc // set while a Start is loading
	onChange   func(prev, cur Status)
}

// New creates an idle channel.
func New(cfg Config) *Channel {
	fadeDur := cfg.FadeDuration
	if fadeDur == nil {
		fadeDur = func() time.Duration { return 0 }
	}
	fader := cfg.Fader
	if fader == nil {
		fader = fade.New()
	}
	positions := cfg.Positions
	if positions == nil {
		positions = position.New()
	}
	return &Channel{
		role:      cfg.Role,
		positions: positions,
		fader:     fader,
		newElem:   cfg.NewElement,
		fadeDur:   fadeDur,
		log:       cfg.Logger.With().Str("channel", cfg.Role.String()).Logger(),
	}
}

// OnChange registers fn to be called after every state or track change.
// fn runs outside the channel's lock.
func (c *Channel) OnChange(fn func(prev, cur Status)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Role returns the channel's role.
func (c *Channel) Role() Role { return c.role }

// Status returns a snapshot of the channel.
func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Track returns the current track, or "".
func (c *Channel) Track() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.track
}

// Volume returns the committed gain.
func (c *Channel) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// Start plays track at target volume.
//
// Starting the track that is already audible is a no-op, including when only
// the volume differs: volume changes on a running track belong to
// SetVolumeImmediate. If a different track is audible it is faded out first
// and Start waits for that to finish, so two tracks never overlap on one
// channel.
//
// The track is loaded without holding the channel's lock. A Stop or another
// Start during the load cancels it, and Start then returns ctx's error, or
// nil if ctx is still live.
//
// A playback failure is logged and returned; the channel stays in Loading and
// the next Start retries.
func (c *Channel) Start(ctx context.Context, track string, target float64) error {
	target = volume.Clamp(target)

	for {
		c.mu.Lock()
		if !c.state.IsAudible() {
			break
		}
		if c.track == track {
			c.mu.Unlock()
			c.log.Debug().Str("track", track).Msg("already playing")
			return nil
		}
		c.mu.Unlock()

		if err := wait(ctx, c.Stop(false)); err != nil {
			return err
		}
	}

	before := c.statusLocked()
	if c.cancelLoad != nil {
		// Another Start is still loading; its element is not ours to reuse.
		c.releaseLocked()
	}
	c.gen++
	gen := c.gen
	c.closeStopLocked()
	c.state = Loading
	c.track = track
	if c.element == nil {
		c.element = c.newElem()
	}
	if c.gain == nil {
		c.gain = c.element.ConnectGain()
	}
	elem := c.element
	loadCtx, cancel := context.WithCancel(ctx)
	c.cancelLoad = cancel
	// The Loading transition is reported together with the outcome.
	c.mu.Unlock()

	err := elem.Load(loadCtx, track)
	cancel()

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		// Superseded while loading. The element was detached from the
		// channel, but the load may have installed a track after that.
		elem.Release()
		c.log.Debug().Str("track", track).Msg("load abandoned")
		return ctx.Err()
	}
	c.cancelLoad = nil
	if err != nil && ctx.Err() != nil {
		c.releaseLocked()
		c.unlockAndNotify(before)
		return ctx.Err()
	}
	err = c.playLoadedLocked(track, target, err)
	c.unlockAndNotify(before)
	return err
}

// playLoadedLocked finishes a Start once the element has loaded track, or
// failed to with loadErr.
func (c *Channel) playLoadedLocked(track string, target float64, loadErr error) error {
	if loadErr != nil {
		c.log.Error().Err(loadErr).Str("track", track).Msg(errmsg.Format(errmsg.OpLoadTrack, loadErr))
		return fmt.Errorf("load %s: %w", track, loadErr)
	}

	if offset := c.positions.Get(track); offset > 0 {
		if err := c.element.SeekTo(offset); err != nil {
			c.log.Warn().Err(err).Str("track", track).Dur("offset", offset).Msg("resume position")
		} else {
			c.log.Debug().Str("track", track).Dur("offset", offset).Msg("resuming")
		}
	}

	if !c.everPlayed {
		// Nothing has been heard from this channel yet, so there is nothing to fade from.
		c.gain.CancelScheduled()
		c.gain.SetValue(target)
		c.volume = target
	} else {
		c.gain.SetValue(0)
		c.volume = 0
		c.fader.Ramp(held{c}, 0, target, c.fadeDur(), nil)
	}

	if err := c.element.Play(); err != nil {
		c.log.Error().Err(err).Str("track", track).Msg(errmsg.Format(errmsg.OpStartPlayback, err))
		return fmt.Errorf("play %s: %w", track, err)
	}

	c.everPlayed = true
	c.state = Playing
	c.log.Info().Str("track", track).Float64("volume", target).Msg("playing")
	return nil
}

// Stop silences the channel and releases its element and gain stage.
//
// With fast set everything happens immediately; this is meant for teardown.
// Otherwise the channel fades to silence, saves the track's position, and
// then releases. The returned channel is closed once the whole sequence is
// done. Calling Stop again during a fade-out returns the same channel.
func (c *Channel) Stop(fast bool) <-chan struct{} {
	c.mu.Lock()
	before := c.statusLocked()

	switch {
	case c.state == Idle:
		c.mu.Unlock()
		return closedChan()

	case fast:
		c.gen++
		c.closeStopLocked()
		c.releaseLocked()
		c.unlockAndNotify(before)
		return closedChan()

	case c.state == FadingOut && c.stopDone != nil:
		done := c.stopDone
		c.mu.Unlock()
		return done

	case c.state == Loading:
		// Nothing was audible; no fade needed. A load in flight is cancelled.
		c.gen++
		c.releaseLocked()
		c.unlockAndNotify(before)
		return closedChan()
	}

	c.gen++
	gen := c.gen
	done := make(chan struct{})
	c.stopDone = done
	c.state = FadingOut
	// Fade from what is heard now, which is below c.volume during a fade-in.
	from := c.volume
	if c.gain != nil {
		from = c.gain.Value()
	}
	c.fader.Ramp(held{c}, from, 0, c.fadeDur(), func() { c.finishStop(gen) })
	c.unlockAndNotify(before)
	return done
}

// finishStop completes a graceful stop unless a newer command took over.
func (c *Channel) finishStop(gen uint64) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	before := c.statusLocked()
	if c.element != nil {
		c.positions.Set(c.track, c.element.Position())
	}
	c.releaseLocked()
	done := c.stopDone
	c.stopDone = nil
	c.unlockAndNotify(before)

	// Waiters run after the Idle transition has been reported.
	if done != nil {
		close(done)
	}
}

// SetVolumeImmediate applies v as the gain right away, bypassing the fade
// engine and leaving the state alone. It only acts on a Playing channel, so
// a fade-out always reaches silence, and reports whether v was applied.
func (c *Channel) SetVolumeImmediate(v float64) bool {
	v = volume.Clamp(v)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Playing {
		return false
	}
	if c.gain != nil {
		c.gain.CancelScheduled()
		c.gain.SetValue(v)
	}
	c.volume = v
	return true
}

// SavePosition records the current track's offset in the position store.
func (c *Channel) SavePosition() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.track == "" || c.element == nil {
		return
	}
	c.positions.Set(c.track, c.element.Position())
}

func (c *Channel) releaseLocked() {
	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
	if c.element != nil {
		c.element.Pause()
		c.element.Release()
	}
	c.element = nil
	c.gain = nil
	c.track = ""
	c.volume = 0
	c.state = Idle
}

func (c *Channel) closeStopLocked() {
	if c.stopDone != nil {
		close(c.stopDone)
		c.stopDone = nil
	}
}

func (c *Channel) statusLocked() Status {
	return Status{
		Role:          c.role,
		State:         c.state,
		Track:         c.track,
		Volume:        c.volume,
		HasEverPlayed: c.everPlayed,
	}
}

// unlockAndNotify releases the lock and reports a change since before.
func (c *Channel) unlockAndNotify(before Status) {
	after := c.statusLocked()
	hook := c.onChange
	c.mu.Unlock()

	if before.State != after.State || before.Track != after.Track {
		c.log.Debug().
			Stringer("from", before.State).
			Stringer("to", after.State).
			Str("track", after.Track).
			Msg("state change")
		if hook != nil {
			hook(before, after)
		}
	}
}

// held lets the fade engine drive a channel whose lock is already held.
type held struct{ c *Channel }

func (h held) GainStage() fade.Stage {
	if h.c.gain == nil {
		return nil
	}
	return h.c.gain
}

func (h held) CommitVolume(v float64) { h.c.volume = v }

func wait(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
