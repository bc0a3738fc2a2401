//go:build !windows

// Package stderr captures output that C audio libraries (ALSA) write
// directly to file descriptor 2, bypassing Go's os.Stderr, and forwards
// it to the structured log.
package stderr

import (
	"bufio"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
)

var (
	origStderr = -1
	original   *os.File
	pipeRead   *os.File
	pipeWrite  *os.File
	done       chan struct{}
	started    bool
	forwarding bool
)

// Start begins capturing stderr output. Call Forward once the logger
// exists. Must be called early in main(), before the audio output is opened.
// If capture cannot be set up the program can continue without it.
func Start() error {
	if started {
		return nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	origStderr, err = syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}

	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		syscall.Close(origStderr)
		origStderr = -1
		r.Close()
		w.Close()
		return err
	}

	original = os.NewFile(uintptr(origStderr), "stderr")
	pipeRead = r
	pipeWrite = w
	done = make(chan struct{})
	started = true

	return nil
}

// Forward logs every captured line to log.
func Forward(log zerolog.Logger) {
	if !started || forwarding {
		return
	}
	forwarding = true
	go func() {
		defer close(done)
		forward(pipeRead, log)
	}()
}

// forward logs every non-blank line read from r.
func forward(r io.Reader, log zerolog.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			log.Warn().Str("component", "stderr").Msg(line)
		}
	}
}

// Original returns the terminal's stderr. Log output must go there while
// capture is active, or it would be captured too.
func Original() io.Writer {
	if original != nil {
		return original
	}
	return os.Stderr
}

// Stop restores the original stderr. Should be called on program exit.
func Stop() {
	if !started {
		return
	}

	_ = syscall.Dup2(origStderr, int(os.Stderr.Fd()))

	pipeWrite.Close()
	if forwarding {
		<-done
	}
	pipeRead.Close()

	original.Close()
	original = nil
	origStderr = -1
	started, forwarding = false, false
}
