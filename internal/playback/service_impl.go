// internal/playback/service_impl.go
package playback

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/notebgm/internal/channel"
	"github.com/llehouerou/notebgm/internal/config"
	"github.com/llehouerou/notebgm/internal/document"
	"github.com/llehouerou/notebgm/internal/errmsg"
	"github.com/llehouerou/notebgm/internal/fade"
	"github.com/llehouerou/notebgm/internal/player"
	"github.com/llehouerou/notebgm/internal/position"
	"github.com/llehouerou/notebgm/internal/volume"
)

// Verify serviceImpl implements Service at compile time.
var _ Service = (*serviceImpl)(nil)

// Deps are the collaborators of the service.
type Deps struct {
	Metadata   Metadata
	Resolver   Resolver
	Config     ConfigStore
	NewElement func() player.Element
	Fader      *fade.Engine // optional
	Logger     zerolog.Logger
}

type serviceImpl struct {
	// mu serializes focus changes and fallback reloads, including the fade-outs
	// they wait for.
	mu sync.Mutex

	scoped    *channel.Channel
	fallback  *channel.Channel
	positions *position.Store

	meta     Metadata
	resolver Resolver
	store    ConfigStore
	log      zerolog.Logger

	cfgMu    sync.RWMutex
	cfg      config.Playback
	document string

	subs   []*Subscription
	subsMu sync.RWMutex
	// origin and last are keyed by role and guarded by subsMu.
	origin map[channel.Role]Track
	last   map[channel.Role]*Track

	closed atomic.Bool
}

// New creates a new playback service. Both channels start idle.
func New(d Deps) Service {
	s := &serviceImpl{
		positions: position.New(),
		meta:      d.Metadata,
		resolver:  d.Resolver,
		store:     d.Config,
		log:       d.Logger.With().Str("component", "playback").Logger(),
		origin:    make(map[channel.Role]Track),
		last:      make(map[channel.Role]*Track),
	}

	cfg, err := s.store.Load()
	if err != nil {
		s.log.Warn().Err(err).Msg(errmsg.Format(errmsg.OpLoadConfig, err))
		cfg = (&config.Config{}).Playback()
	}
	s.cfg = cfg

	fader := d.Fader
	if fader == nil {
		fader = fade.New()
	}
	newChannel := func(role channel.Role) *channel.Channel {
		ch := channel.New(channel.Config{
			Role:         role,
			Positions:    s.positions,
			Fader:        fader,
			NewElement:   d.NewElement,
			FadeDuration: s.fadeDuration,
			Logger:       d.Logger,
		})
		ch.OnChange(func(prev, cur channel.Status) { s.channelChanged(prev, cur) })
		return ch
	}
	s.scoped = newChannel(channel.Scoped)
	s.fallback = newChannel(channel.Fallback)

	return s
}

func (s *serviceImpl) settings() config.Playback {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

func (s *serviceImpl) fadeDuration() time.Duration {
	return s.settings().FadeDuration
}

// OnFocusChanged picks the channel for the newly focused note.
//
// A note with a resolvable track silences the fallback and plays that track
// on the scoped channel. Anything else (no note, no frontmatter, no
// descriptor, unresolvable descriptor) silences the scoped channel and lets
// the fallback play. Each fade-out finishes before the next start, so the two
// channels never sound together.
//
// Resolution and playback failures are logged and published as ErrorEvent;
// only cancellation of ctx and a closed service are returned.
func (s *serviceImpl) OnFocusChanged(ctx context.Context, docPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrClosed
	}

	s.cfgMu.Lock()
	s.document = docPath
	s.cfgMu.Unlock()

	track, vol, ok := s.documentTrack(docPath)
	if !ok {
		return s.playFallbackLocked(ctx)
	}
	return s.playScopedLocked(ctx, track, vol)
}

// documentTrack returns the track and volume configured by the note.
func (s *serviceImpl) documentTrack(docPath string) (Track, float64, bool) {
	if docPath == "" {
		return Track{}, 0, false
	}
	log := s.log.With().Str("document", docPath).Logger()

	fm, err := s.meta.Frontmatter(docPath)
	if err != nil {
		if !errors.Is(err, document.ErrNoFrontmatter) {
			log.Warn().Err(err).Msg(errmsg.FormatWith(errmsg.OpReadMetadata, docPath, err))
			s.publishError(ErrorEvent{Operation: errmsg.OpReadMetadata, Document: docPath, Err: err})
		}
		return Track{}, 0, false
	}

	descriptor, ok := document.Descriptor(fm)
	if !ok {
		log.Debug().Msg("no track configured")
		return Track{}, 0, false
	}

	locator, err := s.resolver.Resolve(descriptor, docPath)
	if err != nil {
		log.Warn().Err(err).Str("descriptor", descriptor).
			Msg(errmsg.FormatWith(errmsg.OpResolveTrack, descriptor, err))
		s.publishError(ErrorEvent{
			Operation:  errmsg.OpResolveTrack,
			Descriptor: descriptor,
			Document:   docPath,
			Err:        err,
		})
		return Track{}, 0, false
	}

	raw := document.Loudness(fm)
	vol := volume.Normalize(raw, s.settings().ScopedDefaultVolume)
	if volume.IsPercent(raw) {
		log.Debug().Interface("loudness", raw).Float64("volume", vol).Msg("converted loudness from percent")
	}

	return Track{Locator: locator, Descriptor: descriptor, Document: docPath}, vol, true
}

// playScopedLocked silences the fallback, then plays track on the scoped
// channel, first fading out whatever else the scoped channel holds.
func (s *serviceImpl) playScopedLocked(ctx context.Context, track Track, vol float64) error {
	if err := s.silenceLocked(ctx, s.fallback); err != nil {
		return err
	}

	st := s.scoped.Status()
	if st.State == channel.FadingOut || (st.State.HasResources() && st.Track != track.Locator) {
		if err := s.silenceLocked(ctx, s.scoped); err != nil {
			return err
		}
	}

	return s.startLocked(ctx, s.scoped, track, vol)
}

// playFallbackLocked silences the scoped channel, then starts or continues
// the fallback if one is configured.
func (s *serviceImpl) playFallbackLocked(ctx context.Context) error {
	if err := s.silenceLocked(ctx, s.scoped); err != nil {
		return err
	}

	cfg := s.settings()
	if !cfg.HasFallback() {
		return nil
	}

	locator, err := s.resolver.Resolve(cfg.FallbackDescriptor, "")
	if err != nil {
		s.log.Warn().Err(err).Str("descriptor", cfg.FallbackDescriptor).
			Msg(errmsg.FormatWith(errmsg.OpResolveTrack, cfg.FallbackDescriptor, err))
		s.publishError(ErrorEvent{Operation: errmsg.OpResolveTrack, Descriptor: cfg.FallbackDescriptor, Err: err})
		return nil
	}

	if s.fallback.State() == channel.FadingOut {
		if err := s.silenceLocked(ctx, s.fallback); err != nil {
			return err
		}
	}

	track := Track{Locator: locator, Descriptor: cfg.FallbackDescriptor}
	return s.startLocked(ctx, s.fallback, track, cfg.FallbackVolume)
}

// silenceLocked saves ch's position, fades it out and waits for it to be idle.
func (s *serviceImpl) silenceLocked(ctx context.Context, ch *channel.Channel) error {
	if ch.State() == channel.Idle {
		return nil
	}
	ch.SavePosition()
	select {
	case <-ch.Stop(false):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *serviceImpl) startLocked(ctx context.Context, ch *channel.Channel, track Track, vol float64) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.subsMu.Lock()
	s.origin[ch.Role()] = track
	s.subsMu.Unlock()

	err := ch.Start(ctx, track.Locator, vol)
	switch {
	case s.closed.Load():
		// Close cancelled the start.
		return ErrClosed
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		// Logged by the channel; it stays Loading until the next focus change.
		s.publishError(ErrorEvent{
			Operation:  errmsg.OpStartPlayback,
			Descriptor: track.Descriptor,
			Document:   track.Document,
			Err:        err,
		})
		return nil
	}
}

// ReloadFallback re-reads the playback settings, fades the fallback out and,
// if a fallback is still configured and no note track is active, starts it
// again with the new settings.
func (s *serviceImpl) ReloadFallback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrClosed
	}

	cfg, err := s.store.Load()
	if err != nil {
		s.log.Warn().Err(err).Msg(errmsg.Format(errmsg.OpLoadConfig, err))
		s.publishError(ErrorEvent{Operation: errmsg.OpLoadConfig, Err: err})
		cfg = s.settings()
	}
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()

	s.log.Info().
		Bool("enabled", cfg.FallbackEnabled).
		Str("descriptor", cfg.FallbackDescriptor).
		Float64("volume", cfg.FallbackVolume).
		Dur("fade", cfg.FadeDuration).
		Msg("fallback settings reloaded")

	if err := s.silenceLocked(ctx, s.fallback); err != nil {
		return err
	}
	if s.scoped.State() != channel.Idle {
		return nil
	}
	return s.playFallbackLocked(ctx)
}

// SetMasterVolumeOverride applies v to the playing channels right away and
// records it as the fallback volume. It never fades and never restarts a
// track.
func (s *serviceImpl) SetMasterVolumeOverride(v float64) {
	v = volume.Clamp(v)

	// Channels that are fading out or loading keep their ramp.
	s.scoped.SetVolumeImmediate(v)
	s.fallback.SetVolumeImmediate(v)

	s.cfgMu.Lock()
	s.cfg.FallbackVolume = v
	cfg := s.cfg
	s.cfgMu.Unlock()

	if err := s.store.Save(cfg); err != nil {
		s.log.Warn().Err(err).Msg(errmsg.Format(errmsg.OpSaveConfig, err))
		s.publishError(ErrorEvent{Operation: errmsg.OpSaveConfig, Err: err})
	}

	s.log.Debug().Float64("volume", v).Msg("volume override")
	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub.sendVolume(v)
	}
	s.subsMu.RUnlock()
}

// EffectiveVolume returns the gain of the playing channel, or the fallback
// volume when nothing plays.
func (s *serviceImpl) EffectiveVolume() float64 {
	if st, ok := s.Status().Active(); ok {
		return st.Volume
	}
	return s.settings().FallbackVolume
}

// Status returns a snapshot of both channels.
func (s *serviceImpl) Status() Status {
	s.cfgMu.RLock()
	st := Status{
		Document:        s.document,
		EffectiveVolume: s.cfg.FallbackVolume,
		FadeDuration:    s.cfg.FadeDuration,
	}
	s.cfgMu.RUnlock()

	st.Scoped = s.scoped.Status()
	st.Fallback = s.fallback.Status()
	if active, ok := st.Active(); ok {
		st.EffectiveVolume = active.Volume
	}
	return st
}

// Subscribe creates a new event subscription.
func (s *serviceImpl) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	if s.closed.Load() {
		sub.close()
		return sub
	}
	s.subs = append(s.subs, sub)
	return sub
}

// Close stops both channels without fading, forgets track positions and
// closes every subscription.
func (s *serviceImpl) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	// Release anything waiting on a fade-out, then wait for it to return.
	s.scoped.Stop(true)
	s.fallback.Stop(true)
	s.mu.Lock()
	s.scoped.Stop(true)
	s.fallback.Stop(true)
	s.positions.Reset()
	s.mu.Unlock()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()

	s.log.Debug().Msg("closed")
	return nil
}

// channelChanged turns channel transitions into events.
func (s *serviceImpl) channelChanged(prev, cur channel.Status) {
	track := cur.Track
	if track == "" {
		track = prev.Track
	}

	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, sub := range s.subs {
		sub.sendChannel(ChannelChange{Role: cur.Role, Previous: prev.State, Current: cur.State, Track: track})
	}

	if cur.State != channel.Playing || prev.State == channel.Playing {
		return
	}

	current := Track{Locator: cur.Track}
	if o, ok := s.origin[cur.Role]; ok && o.Locator == cur.Track {
		current = o
	}
	e := TrackChange{Role: cur.Role, Previous: s.last[cur.Role], Current: &current}
	s.last[cur.Role] = &current

	for _, sub := range s.subs {
		sub.sendTrack(e)
	}
}

func (s *serviceImpl) publishError(e ErrorEvent) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendError(e)
	}
}
