package player

import (
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extWAV  = ".wav"
	extOGG  = ".ogg"
	extOGA  = ".oga"
	extOPUS = ".opus"
	extM4A  = ".m4a"
	extMP4  = ".mp4"
)

// IsAudioFile reports whether a path or URL has an extension we can decode.
func IsAudioFile(locator string) bool {
	switch extension(locator) {
	case extMP3, extFLAC, extWAV, extOGG, extOGA, extOPUS, extM4A, extMP4:
		return true
	}
	return false
}

// decode picks a decoder by extension. On error rc is left open.
func decode(ext string, rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	switch ext {
	case extMP3:
		return decodeMP3(rc)
	case extFLAC:
		// Some taggers prepend ID3v2 to FLAC files, which the decoder rejects.
		if err := skipID3v2(rc); err != nil {
			return nil, beep.Format{}, err
		}
		return flac.Decode(rc)
	case extWAV:
		return wav.Decode(rc)
	case extOGG, extOGA:
		if isOpus(rc) {
			return decodeOpus(rc)
		}
		return vorbis.Decode(rc)
	case extOPUS:
		return decodeOpus(rc)
	case extM4A, extMP4:
		return decodeM4A(rc)
	}
	return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// skipID3v2 positions r after a leading ID3v2 tag, or back at the start.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil && n == 0 {
		return err
	}
	if n < len(header) || string(header[:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// Tag size is a 28-bit syncsafe integer.
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(int64(len(header))+size, io.SeekStart)
	return err
}
