package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

const loadTimeout = time.Minute

// beepElement plays one looping track through a Gain on the shared speaker.
type beepElement struct {
	engine *Engine

	mu      sync.Mutex
	locator string
	stream  beep.StreamSeekCloser
	format  beep.Format
	ctrl    *beep.Ctrl
	gain    *Gain
	queued  bool // handed to the speaker
}

func (b *beepElement) Load(ctx context.Context, locator string) error {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	rc, err := b.engine.open(ctx, locator)
	if err != nil {
		return err
	}
	stream, format, err := decode(extension(locator), rc)
	if err != nil {
		rc.Close()
		return fmt.Errorf("decode %s: %w", locator, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeStreamLocked()
	b.locator = locator
	b.stream = stream
	b.format = format
	return nil
}

// loopTrack repeats s until the element is released.
func loopTrack(s beep.StreamSeeker) (beep.Streamer, error) {
	if s.Len() <= 0 {
		return nil, ErrEmptyTrack
	}
	return beep.Loop2(s)
}

func (b *beepElement) SeekTo(offset time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stream == nil {
		return ErrNotLoaded
	}

	pos := b.format.SampleRate.N(offset)
	if n := b.stream.Len(); n > 0 {
		pos %= n
	}
	pos = max(pos, 0)

	speaker.Lock()
	defer speaker.Unlock()
	return b.stream.Seek(pos)
}

func (b *beepElement) Play() error {
	if err := b.engine.ensureSpeaker(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stream == nil {
		return ErrNotLoaded
	}
	if b.ctrl != nil {
		speaker.Lock()
		b.ctrl.Paused = false
		speaker.Unlock()
		return nil
	}

	s, err := loopTrack(b.stream)
	if err != nil {
		return fmt.Errorf("loop %s: %w", b.locator, err)
	}
	if b.format.SampleRate != outputSampleRate {
		s = beep.Resample(4, b.format.SampleRate, outputSampleRate, s)
	}
	b.ctrl = &beep.Ctrl{Streamer: s}

	gain := b.connectGainLocked()
	gain.attach(b.ctrl, outputSampleRate)
	if !b.queued {
		speaker.Play(gain)
		b.queued = true
	}
	return nil
}

func (b *beepElement) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctrl == nil {
		return
	}
	speaker.Lock()
	b.ctrl.Paused = true
	speaker.Unlock()
}

func (b *beepElement) Position() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stream == nil {
		return 0
	}
	speaker.Lock()
	pos := b.stream.Position()
	speaker.Unlock()
	return b.format.SampleRate.D(pos)
}

func (b *beepElement) ConnectGain() *Gain {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connectGainLocked()
}

func (b *beepElement) connectGainLocked() *Gain {
	if b.gain == nil {
		b.gain = NewGain()
	}
	return b.gain
}

func (b *beepElement) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.gain != nil {
		b.gain.release()
		b.gain = nil
	}
	b.queued = false
	b.closeStreamLocked()
}

// closeStreamLocked stops output and closes the decoder and file.
func (b *beepElement) closeStreamLocked() {
	if b.ctrl != nil {
		speaker.Lock()
		b.ctrl.Paused = true
		b.ctrl.Streamer = nil
		speaker.Unlock()
		b.ctrl = nil
	}
	if b.gain != nil {
		b.gain.attach(nil, outputSampleRate)
	}
	if b.stream != nil {
		if err := b.stream.Close(); err != nil {
			b.engine.log.Debug().Err(err).Str("track", b.locator).Msg("close track")
		}
		b.stream = nil
	}
	b.locator = ""
}
