//go:build linux

package mpris

import (
	"fmt"
	"hash/fnv"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/rs/zerolog"

	"github.com/llehouerou/notebgm/internal/errmsg"
	"github.com/llehouerou/notebgm/internal/playback"
	"github.com/llehouerou/notebgm/internal/player"
)

// Adapter exposes the playback service over MPRIS so desktop volume
// controls and media widgets can see what is playing.
type Adapter struct {
	service playback.Service
	server  *server.Server
	events  *events.EventHandler
	sub     *playback.Subscription
	log     zerolog.Logger
	done    chan struct{}
}

// New creates and starts a new MPRIS adapter.
func New(service playback.Service, log zerolog.Logger) (*Adapter, error) {
	a := &Adapter{
		service: service,
		log:     log,
		done:    make(chan struct{}),
	}

	a.server = server.NewServer("notebgm", &rootAdapter{}, &playerAdapter{service: service})
	a.events = events.NewEventHandler(a.server)
	a.sub = service.Subscribe()

	go func() {
		if err := a.server.Listen(); err != nil {
			log.Warn().Err(err).Msg(errmsg.Format(errmsg.OpMPRISStart, err))
		}
	}()
	go a.forward()

	return a, nil
}

// forward turns service events into PropertiesChanged signals.
func (a *Adapter) forward() {
	for {
		var err error
		select {
		case <-a.done:
			return
		case <-a.sub.Done:
			return
		case <-a.sub.ChannelChanged:
			err = a.events.Player.OnPlayPause()
		case <-a.sub.TrackChanged:
			err = a.events.Player.OnTitle()
		case <-a.sub.VolumeChanged:
			err = a.events.Player.OnVolume()
		case <-a.sub.Error:
			continue
		}
		if err != nil {
			a.log.Debug().Err(err).Msg("mpris signal failed")
		}
	}
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	close(a.done)
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil
}

func (r *rootAdapter) Quit() error {
	return nil
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "NoteBGM", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file", "http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/ogg", "audio/wav"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
// What plays follows the focused note, so transport controls do nothing.
type playerAdapter struct {
	service playback.Service
}

func (p *playerAdapter) Next() error      { return nil }
func (p *playerAdapter) Previous() error  { return nil }
func (p *playerAdapter) Pause() error     { return nil }
func (p *playerAdapter) PlayPause() error { return nil }
func (p *playerAdapter) Stop() error      { return nil }
func (p *playerAdapter) Play() error      { return nil }

func (p *playerAdapter) Seek(_ types.Microseconds) error {
	return nil
}

func (p *playerAdapter) SetPosition(_ string, _ types.Microseconds) error {
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	if p.service.Status().IsAudible() {
		return types.PlaybackStatusPlaying, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	active, ok := p.service.Status().Active()
	if !ok || active.Track == "" {
		return types.Metadata{}, nil
	}
	return trackMetadata(active.Track), nil
}

func trackMetadata(locator string) types.Metadata {
	info := player.ReadTrackInfo(locator)
	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(locator)),
		Title:   info.Title,
		Album:   info.Album,
	}
	if info.Artist != "" {
		meta.Artist = []string{info.Artist}
	}
	if !player.IsRemote(locator) {
		if artPath := FindCoverArt(locator); artPath != "" {
			meta.ArtUrl = "file://" + artPath
		}
	}
	return meta
}

func (p *playerAdapter) Volume() (float64, error) {
	return p.service.EffectiveVolume(), nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	p.service.SetMasterVolumeOverride(v)
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	return 0, nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return false, nil
}

// CanControl stays true so clients offer the volume slider.
func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

func formatTrackID(locator string) string {
	h := fnv.New64a()
	h.Write([]byte(locator))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
