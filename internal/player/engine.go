package player

import (
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog"
)

const (
	outputSampleRate = beep.SampleRate(44100)
	outputBuffer     = time.Second / 10

	defaultFetchTimeout = 30 * time.Second
	defaultFetchLimit   = 64 << 20
)

// Engine owns the shared speaker output and creates elements that play into it.
type Engine struct {
	log    zerolog.Logger
	client *http.Client
	limit  int64

	initOnce sync.Once
	initErr  error

	mu     sync.Mutex
	opened bool
	closed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithHTTPClient sets the client used to fetch http(s) tracks.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.client = c }
}

// WithFetchLimit caps the size of a remote track in bytes.
func WithFetchLimit(n int64) Option {
	return func(e *Engine) { e.limit = n }
}

// NewEngine returns an Engine. The speaker is opened lazily on first Play.
func NewEngine(log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		log:    log.With().Str("component", "player").Logger(),
		client: &http.Client{Timeout: defaultFetchTimeout},
		limit:  defaultFetchLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewElement returns a fresh element bound to this engine.
func (e *Engine) NewElement() Element {
	return &beepElement{engine: e}
}

// ensureSpeaker opens the audio device once. A failure is sticky: every later
// Play reports the same error.
func (e *Engine) ensureSpeaker() error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}

	e.initOnce.Do(func() {
		err := speaker.Init(outputSampleRate, outputSampleRate.N(outputBuffer))
		e.mu.Lock()
		e.initErr = err
		e.opened = err == nil
		e.mu.Unlock()
		if err != nil {
			e.log.Error().Err(err).Msg("audio output unavailable")
		}
	})
	return e.initErr
}

// Close shuts the audio output down. Elements should be released first.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if e.opened {
		speaker.Clear()
		speaker.Close()
	}
}
