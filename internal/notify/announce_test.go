package notify

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/notebgm/internal/channel"
	"github.com/llehouerou/notebgm/internal/errmsg"
	"github.com/llehouerou/notebgm/internal/playback"
)

type recorder struct {
	sent []Notification
	err  error
}

func (r *recorder) Notify(n Notification) (uint32, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.sent = append(r.sent, n)
	return uint32(len(r.sent)), nil
}

func (r *recorder) Close(uint32) error { return nil }

func TestAnnouncer_ScopedTrack(t *testing.T) {
	rec := &recorder{}
	a := NewAnnouncer(rec, zerolog.Nop())

	a.TrackChanged(playback.TrackChange{
		Role: channel.Scoped,
		Current: &playback.Track{
			Locator:  "https://example.com/tavern.mp3",
			Document: "/vault/Sessions/Tavern Brawl.md",
		},
	})

	require.Len(t, rec.sent, 1)
	assert.Equal(t, "Now playing", rec.sent[0].Title)
	assert.Equal(t, "tavern.mp3\nfor Tavern Brawl", rec.sent[0].Body)
	assert.Empty(t, rec.sent[0].Icon)
	assert.Zero(t, rec.sent[0].ReplacesID)
}

func TestAnnouncer_FallbackTrackReplacesPrevious(t *testing.T) {
	rec := &recorder{}
	a := NewAnnouncer(rec, zerolog.Nop())

	a.TrackChanged(playback.TrackChange{Role: channel.Scoped, Current: &playback.Track{Locator: "https://x/a.mp3"}})
	a.TrackChanged(playback.TrackChange{Role: channel.Fallback, Current: &playback.Track{Locator: "https://x/b.mp3"}})

	require.Len(t, rec.sent, 2)
	assert.Equal(t, "b.mp3\nfallback", rec.sent[1].Body)
	assert.Equal(t, uint32(1), rec.sent[1].ReplacesID)
}

func TestAnnouncer_IgnoresStop(t *testing.T) {
	rec := &recorder{}
	NewAnnouncer(rec, zerolog.Nop()).TrackChanged(playback.TrackChange{Role: channel.Scoped})
	assert.Empty(t, rec.sent)
}

func TestAnnouncer_Failed(t *testing.T) {
	rec := &recorder{}
	a := NewAnnouncer(rec, zerolog.Nop())

	err := errors.New("no such file")
	a.Failed(playback.ErrorEvent{Operation: errmsg.OpResolveTrack, Descriptor: "rain.mp3", Err: err})

	require.Len(t, rec.sent, 1)
	assert.Equal(t, errmsg.FormatWith(errmsg.OpResolveTrack, "rain.mp3", err), rec.sent[0].Body)
	assert.Equal(t, UrgencyNormal, rec.sent[0].Urgency)
}

func TestAnnouncer_NotifierFailureKeepsLastID(t *testing.T) {
	rec := &recorder{}
	a := NewAnnouncer(rec, zerolog.Nop())
	a.TrackChanged(playback.TrackChange{Current: &playback.Track{Locator: "https://x/a.mp3"}})

	rec.err = errors.New("bus gone")
	a.TrackChanged(playback.TrackChange{Current: &playback.Track{Locator: "https://x/b.mp3"}})
	assert.Equal(t, uint32(1), a.lastID)
}
