package notify

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/llehouerou/notebgm/internal/channel"
	"github.com/llehouerou/notebgm/internal/errmsg"
	"github.com/llehouerou/notebgm/internal/playback"
	"github.com/llehouerou/notebgm/internal/player"
)

const (
	trackTimeout int32 = 4000
	errorTimeout int32 = 8000
)

// Announcer turns playback events into desktop notifications. Successive
// notifications replace each other instead of piling up.
type Announcer struct {
	notifier Notifier
	log      zerolog.Logger
	lastID   uint32
}

// NewAnnouncer returns an Announcer that sends through n.
func NewAnnouncer(n Notifier, log zerolog.Logger) *Announcer {
	return &Announcer{notifier: n, log: log}
}

// Run announces events from sub until ctx is done or the service closes.
func (a *Announcer) Run(ctx context.Context, sub *playback.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case e := <-sub.TrackChanged:
			a.TrackChanged(e)
		case e := <-sub.Error:
			a.Failed(e)
		}
	}
}

// TrackChanged announces the track a channel started.
func (a *Announcer) TrackChanged(e playback.TrackChange) {
	if e.Current == nil {
		return
	}
	info := player.ReadTrackInfo(e.Current.Locator)

	body := info.Display()
	if e.Role == channel.Scoped && e.Current.Document != "" {
		note := strings.TrimSuffix(filepath.Base(e.Current.Document), filepath.Ext(e.Current.Document))
		body += "\nfor " + note
	} else if e.Role == channel.Fallback {
		body += "\nfallback"
	}

	icon := ""
	if !player.IsRemote(e.Current.Locator) {
		icon = CoverArtPath(e.Current.Locator)
	}

	a.send(Notification{
		Title:   "Now playing",
		Body:    body,
		Icon:    icon,
		Timeout: trackTimeout,
		Urgency: UrgencyLow,
	})
}

// Failed announces a playback failure.
func (a *Announcer) Failed(e playback.ErrorEvent) {
	a.send(Notification{
		Title:   "Background music",
		Body:    errmsg.FormatWith(e.Operation, e.Descriptor, e.Err),
		Timeout: errorTimeout,
		Urgency: UrgencyNormal,
	})
}

func (a *Announcer) send(n Notification) {
	n.ReplacesID = a.lastID
	id, err := a.notifier.Notify(n)
	if err != nil {
		a.log.Debug().Err(err).Msg(errmsg.Format(errmsg.OpNotify, err))
		return
	}
	a.lastID = id
}
