package player

import (
	"context"
	"sync"
	"time"
)

// MockElement is a test double for Element. Its gain stage is a real Gain
// that is never attached to the speaker.
type MockElement struct {
	mu       sync.Mutex
	loaded   string
	playing  bool
	released bool
	position time.Duration
	gain     *Gain

	loadErr  error
	playErr  error
	loadGate <-chan struct{}

	loadCalls []string
	seekCalls []time.Duration
	playCalls int
}

// NewMock creates a new mock element.
func NewMock() *MockElement {
	return &MockElement{}
}

func (m *MockElement) Load(ctx context.Context, locator string) error {
	m.mu.Lock()
	m.loadCalls = append(m.loadCalls, locator)
	gate := m.loadGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return m.loadErr
	}
	m.loaded = locator
	m.position = 0
	return nil
}

func (m *MockElement) SeekTo(offset time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, offset)
	if m.loaded == "" {
		return ErrNotLoaded
	}
	m.position = offset
	return nil
}

func (m *MockElement) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	if m.playErr != nil {
		return m.playErr
	}
	m.playing = true
	return nil
}

func (m *MockElement) Pause() {
	m.mu.Lock()
	m.playing = false
	m.mu.Unlock()
}

func (m *MockElement) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *MockElement) ConnectGain() *Gain {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gain == nil {
		m.gain = NewGain()
	}
	return m.gain
}

func (m *MockElement) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
	m.released = true
	m.loaded = ""
	m.gain = nil
}

// Test helpers

func (m *MockElement) SetLoadError(err error) { m.mu.Lock(); m.loadErr = err; m.mu.Unlock() }

func (m *MockElement) SetPlayError(err error) { m.mu.Lock(); m.playErr = err; m.mu.Unlock() }

// SetLoadGate makes Load block until gate is closed or its context is done.
func (m *MockElement) SetLoadGate(gate <-chan struct{}) {
	m.mu.Lock()
	m.loadGate = gate
	m.mu.Unlock()
}

// Advance moves the playback position forward as if d of audio had played.
func (m *MockElement) Advance(d time.Duration) { m.mu.Lock(); m.position += d; m.mu.Unlock() }

func (m *MockElement) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loadCalls...)
}

func (m *MockElement) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

func (m *MockElement) PlayCalls() int { m.mu.Lock(); defer m.mu.Unlock(); return m.playCalls }

func (m *MockElement) IsPlaying() bool { m.mu.Lock(); defer m.mu.Unlock(); return m.playing }

func (m *MockElement) IsReleased() bool { m.mu.Lock(); defer m.mu.Unlock(); return m.released }

func (m *MockElement) Loaded() string { m.mu.Lock(); defer m.mu.Unlock(); return m.loaded }

// MockFactory hands out MockElements and remembers every one it created.
type MockFactory struct {
	mu       sync.Mutex
	elements []*MockElement
	playErr  error
	loadErr  error
	loadGate <-chan struct{}
}

// New returns a new MockElement; it has the signature of Engine.NewElement.
func (f *MockFactory) New() Element {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := NewMock()
	m.playErr = f.playErr
	m.loadErr = f.loadErr
	m.loadGate = f.loadGate
	f.elements = append(f.elements, m)
	return m
}

// SetPlayError makes elements created from now on fail to play.
func (f *MockFactory) SetPlayError(err error) { f.mu.Lock(); f.playErr = err; f.mu.Unlock() }

// SetLoadError makes elements created from now on fail to load.
func (f *MockFactory) SetLoadError(err error) { f.mu.Lock(); f.loadErr = err; f.mu.Unlock() }

// SetLoadGate makes elements created from now on block in Load until gate
// is closed.
func (f *MockFactory) SetLoadGate(gate <-chan struct{}) {
	f.mu.Lock()
	f.loadGate = gate
	f.mu.Unlock()
}

// Elements returns every element created so far, oldest first.
func (f *MockFactory) Elements() []*MockElement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*MockElement(nil), f.elements...)
}

// Last returns the most recently created element, or nil.
func (f *MockFactory) Last() *MockElement {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.elements) == 0 {
		return nil
	}
	return f.elements[len(f.elements)-1]
}
