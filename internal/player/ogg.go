package player

import (
	"encoding/binary"
	"errors"
	"io"
)

var (
	errOggCapture = errors.New("ogg: invalid capture pattern")
	errOggVersion = errors.New("ogg: unsupported version")
)

const (
	oggHeaderSize   = 27
	oggFlagContinue = 0x01
)

type oggPage struct {
	flags    byte
	granule  int64 // -1 when no packet ends on the page
	segments []byte
}

func (p oggPage) bodySize() int64 {
	var n int64
	for _, s := range p.segments {
		n += int64(s)
	}
	return n
}

func readOggPageHeader(r io.Reader) (oggPage, error) {
	var hdr [oggHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return oggPage{}, err
	}
	if string(hdr[:4]) != "OggS" {
		return oggPage{}, errOggCapture
	}
	if hdr[4] != 0 {
		return oggPage{}, errOggVersion
	}
	p := oggPage{
		flags:    hdr[5],
		granule:  int64(binary.LittleEndian.Uint64(hdr[6:14])), //nolint:gosec // -1 is meaningful
		segments: make([]byte, hdr[26]),
	}
	if _, err := io.ReadFull(r, p.segments); err != nil {
		return oggPage{}, err
	}
	return p, nil
}

// oggReader splits a single logical Ogg bitstream into packets. Checksums
// are not verified.
type oggReader struct {
	r       io.ReadSeeker
	partial []byte
	packets [][]byte

	// dropContinued discards the tail of a packet that began before the
	// position the reader was reset to.
	dropContinued bool
}

func (o *oggReader) readPage() error {
	page, err := readOggPageHeader(o.r)
	if err != nil {
		return err
	}
	body := make([]byte, page.bodySize())
	if _, err := io.ReadFull(o.r, body); err != nil {
		return err
	}

	drop := o.dropContinued && page.flags&oggFlagContinue != 0
	o.dropContinued = false

	off := 0
	for _, size := range page.segments {
		if !drop {
			o.partial = append(o.partial, body[off:off+int(size)]...)
		}
		off += int(size)
		if size < 255 {
			if !drop {
				o.packets = append(o.packets, o.partial)
			}
			o.partial, drop = nil, false
		}
	}
	return nil
}

// packet returns the next complete packet, or io.EOF.
func (o *oggReader) packet() ([]byte, error) {
	for len(o.packets) == 0 {
		if err := o.readPage(); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, io.EOF
			}
			return nil, err
		}
	}
	p := o.packets[0]
	o.packets = o.packets[1:]
	return p, nil
}

// reset moves the reader to the page starting at offset.
func (o *oggReader) reset(offset int64) error {
	if _, err := o.r.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	o.partial, o.packets = nil, nil
	o.dropContinued = true
	return nil
}

// scanOggPages walks page headers from the current position without reading
// bodies. fn receives each page's granule and the offset just past it, and
// stops the walk by returning false.
func scanOggPages(r io.ReadSeeker, fn func(granule, end int64) bool) error {
	for {
		page, err := readOggPageHeader(r)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return err
		}
		end, err := r.Seek(page.bodySize(), io.SeekCurrent)
		if err != nil {
			return err
		}
		if !fn(page.granule, end) {
			return nil
		}
	}
}
