package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/alac"
	"github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
)

// m4aStream decodes the AAC or ALAC track of an MP4 container. Output is
// always stereo; mono tracks are duplicated.
type m4aStream struct {
	container *m4a.Reader
	closer    io.Closer
	codec     m4a.CodecType
	aac       *faad2.Decoder
	alac      *alac.Alac
	channels  int
	bits      int
	length    int
	next      int // index of the next container sample
	pending   [][2]float64
	err       error
}

func decodeM4A(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	container, err := m4a.Open(rc)
	if err != nil {
		return nil, beep.Format{}, err
	}

	rate := int(container.SampleRate())
	s := &m4aStream{
		container: container,
		closer:    rc,
		codec:     container.Codec(),
		channels:  int(container.Channels()),
		bits:      int(container.SampleSize()),
		length:    int(container.Duration().Seconds() * float64(rate)),
	}
	if s.channels < 1 || s.channels > 2 {
		return nil, beep.Format{}, fmt.Errorf("m4a: %d channels", s.channels)
	}

	precision := 2
	switch s.codec {
	case m4a.CodecAAC:
		ctx := context.Background()
		dec, err := faad2.NewDecoder(ctx)
		if err != nil {
			return nil, beep.Format{}, err
		}
		if err := dec.Init(ctx, container.CodecConfig()); err != nil {
			dec.Close(ctx)
			return nil, beep.Format{}, err
		}
		s.aac = dec
	case m4a.CodecALAC:
		dec, err := alac.NewWithConfig(alac.Config{
			SampleRate:  rate,
			SampleSize:  s.bits,
			NumChannels: s.channels,
			FrameSize:   4096,
		})
		if err != nil {
			return nil, beep.Format{}, err
		}
		s.alac = dec
		if s.bits == 24 {
			precision = 3
		}
	case m4a.CodecUnknown:
		return nil, beep.Format{}, errors.New("m4a: unsupported codec")
	}

	format := beep.Format{SampleRate: beep.SampleRate(rate), NumChannels: 2, Precision: precision}
	return s, format, nil
}

func (s *m4aStream) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil {
		return 0, false
	}
	for n < len(samples) {
		if len(s.pending) > 0 {
			c := copy(samples[n:], s.pending)
			s.pending = s.pending[c:]
			n += c
			continue
		}
		if s.next >= s.container.SampleCount() {
			return n, n > 0
		}
		if err := s.decodeNext(); err != nil {
			s.err = err
			return n, n > 0
		}
	}
	return n, true
}

func (s *m4aStream) decodeNext() error {
	data, err := s.container.ReadSample(s.next)
	if err != nil {
		return err
	}
	s.next++

	if s.aac != nil {
		pcm, err := s.aac.Decode(context.Background(), data)
		if err != nil {
			return err
		}
		s.pending = int16Frames(pcm, s.channels)
		return nil
	}
	s.pending = pcmFrames(s.alac.Decode(data), s.channels, s.bits)
	return nil
}

// int16Frames converts interleaved samples to stereo frames.
func int16Frames(pcm []int16, channels int) [][2]float64 {
	frames := make([][2]float64, len(pcm)/channels)
	for i := range frames {
		left := float64(pcm[i*channels]) / 32768
		right := left
		if channels == 2 {
			right = float64(pcm[i*2+1]) / 32768
		}
		frames[i] = [2]float64{left, right}
	}
	return frames
}

// pcmFrames converts little-endian 16 or 24 bit interleaved PCM to stereo
// frames.
func pcmFrames(data []byte, channels, bits int) [][2]float64 {
	width := bits / 8
	if width != 3 {
		width = 2
	}
	sample := func(off int) float64 {
		if width == 3 {
			v := int32(data[off]) | int32(data[off+1])<<8 | int32(int8(data[off+2]))<<16
			return float64(v) / (1 << 23)
		}
		return float64(int16(uint16(data[off])|uint16(data[off+1])<<8)) / 32768 //nolint:gosec // pcm sample
	}

	stride := width * channels
	frames := make([][2]float64, len(data)/stride)
	for i := range frames {
		off := i * stride
		left := sample(off)
		right := left
		if channels == 2 {
			right = sample(off + width)
		}
		frames[i] = [2]float64{left, right}
	}
	return frames
}

func (s *m4aStream) Err() error { return s.err }

func (s *m4aStream) Len() int { return s.length }

// Position excludes frames decoded but not yet streamed.
func (s *m4aStream) Position() int {
	t := s.container.SampleTime(s.next)
	return max(int(t.Seconds()*float64(s.container.SampleRate()))-len(s.pending), 0)
}

func (s *m4aStream) Seek(p int) error {
	p = min(max(p, 0), s.length)
	at := time.Duration(float64(p) / float64(s.container.SampleRate()) * float64(time.Second))
	s.next = s.container.SeekToTime(at)
	s.pending = nil
	s.err = nil
	return nil
}

func (s *m4aStream) Close() error {
	if s.aac != nil {
		s.aac.Close(context.Background())
	}
	return s.closer.Close()
}
