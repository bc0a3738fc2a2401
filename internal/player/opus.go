package player

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/jj11hh/opus"
)

const (
	opusSampleRate = 48000
	opusMaxFrame   = 5760 // 120ms at 48kHz
	opusPreroll    = 3840 // 80ms decoded and dropped after a seek
)

var errOpusHead = errors.New("opus: invalid OpusHead packet")

// opusStream decodes an Ogg Opus file. Position and length exclude the
// encoder pre-skip.
type opusStream struct {
	rs        io.ReadSeekCloser
	ogg       *oggReader
	dec       *opus.Decoder
	channels  int
	preSkip   int
	dataStart int64
	length    int
	pos       int
	skip      int // decoded frames still to drop
	pcm       []float32
	pending   []float32
	err       error
}

// isOpus reports whether an Ogg stream carries Opus. r is rewound.
func isOpus(r io.ReadSeeker) bool {
	head := make([]byte, 64)
	n, _ := io.ReadFull(r, head)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false
	}
	return bytes.Contains(head[:n], []byte("OpusHead"))
}

func decodeOpus(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	o := &oggReader{r: rc}

	head, err := o.packet()
	if err != nil {
		return nil, beep.Format{}, err
	}
	if len(head) < 19 || string(head[:8]) != "OpusHead" || head[8]>>4 != 0 {
		return nil, beep.Format{}, errOpusHead
	}
	channels := int(head[9])
	if channels < 1 || channels > 2 {
		return nil, beep.Format{}, fmt.Errorf("opus: %d channels", channels)
	}

	tags, err := o.packet()
	if err != nil {
		return nil, beep.Format{}, err
	}
	if !bytes.HasPrefix(tags, []byte("OpusTags")) {
		return nil, beep.Format{}, errors.New("opus: missing OpusTags packet")
	}

	dec, err := opus.NewDecoder(opusSampleRate, channels)
	if err != nil {
		return nil, beep.Format{}, err
	}

	s := &opusStream{
		rs:       rc,
		ogg:      o,
		dec:      dec,
		channels: channels,
		preSkip:  int(binary.LittleEndian.Uint16(head[10:12])),
		pcm:      make([]float32, opusMaxFrame*channels),
	}
	s.skip = s.preSkip

	// Audio data starts on a fresh page after the headers.
	if s.dataStart, err = rc.Seek(0, io.SeekCurrent); err != nil {
		return nil, beep.Format{}, err
	}
	var last int64
	if err := scanOggPages(rc, func(granule, _ int64) bool {
		if granule >= 0 {
			last = granule
		}
		return true
	}); err != nil {
		return nil, beep.Format{}, err
	}
	s.length = max(int(last)-s.preSkip, 0)
	if _, err := rc.Seek(s.dataStart, io.SeekStart); err != nil {
		return nil, beep.Format{}, err
	}

	format := beep.Format{SampleRate: opusSampleRate, NumChannels: 2, Precision: 2}
	return s, format, nil
}

func (s *opusStream) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil {
		return 0, false
	}
	for n < len(samples) {
		if len(s.pending) > 0 {
			for n < len(samples) && len(s.pending) > 0 {
				left := float64(s.pending[0])
				right := left
				if s.channels == 2 {
					right = float64(s.pending[1])
				}
				samples[n] = [2]float64{left, right}
				s.pending = s.pending[s.channels:]
				s.pos++
				n++
			}
			continue
		}

		pkt, err := s.ogg.packet()
		if errors.Is(err, io.EOF) {
			return n, n > 0
		}
		if err != nil {
			s.err = err
			return n, n > 0
		}
		frames, err := s.dec.DecodeFloat32(pkt, s.pcm)
		if err != nil {
			continue // corrupt packet
		}
		out := s.pcm[:frames*s.channels]
		if s.skip > 0 {
			d := min(s.skip, frames)
			out = out[d*s.channels:]
			s.skip -= d
		}
		s.pending = out
	}
	return n, true
}

func (s *opusStream) Err() error { return s.err }

func (s *opusStream) Len() int { return s.length }

func (s *opusStream) Position() int { return s.pos }

// Seek restarts decoding from the last page that ends at least opusPreroll
// frames before p, and drops frames up to p.
func (s *opusStream) Seek(p int) error {
	p = min(max(p, 0), s.length)
	target := int64(p + s.preSkip)

	if _, err := s.rs.Seek(s.dataStart, io.SeekStart); err != nil {
		return err
	}
	start, base := s.dataStart, int64(0)
	if err := scanOggPages(s.rs, func(granule, end int64) bool {
		if granule < 0 {
			return true
		}
		if granule > target-opusPreroll {
			return false
		}
		start, base = end, granule
		return true
	}); err != nil {
		return err
	}

	dec, err := opus.NewDecoder(opusSampleRate, s.channels)
	if err != nil {
		return err
	}
	if err := s.ogg.reset(start); err != nil {
		return err
	}
	s.dec = dec
	s.skip = int(target - base)
	s.pos = p
	s.pending = nil
	s.err = nil
	return nil
}

func (s *opusStream) Close() error {
	return s.rs.Close()
}
