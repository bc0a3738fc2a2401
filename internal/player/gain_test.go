package player

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constStreamer produces a fixed number of samples at a constant level.
type constStreamer struct {
	level     float64
	remaining int
}

func (c *constStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if c.remaining <= 0 {
		return 0, false
	}
	n = min(len(samples), c.remaining)
	for i := range n {
		samples[i] = [2]float64{c.level, c.level}
	}
	c.remaining -= n
	return n, true
}

func (c *constStreamer) Err() error { return nil }

func TestGain_SetValueClamps(t *testing.T) {
	g := NewGain()

	g.SetValue(0.4)
	assert.Equal(t, 0.4, g.Value())

	g.SetValue(3)
	assert.Equal(t, 1.0, g.Value())

	g.SetValue(-1)
	assert.Equal(t, 0.0, g.Value())
}

func TestGain_RampIsMonotonicAndExact(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := NewGain()
		g.SetValue(0.2)
		g.LinearRampTo(0.8, 300*time.Millisecond)

		prev := g.Value()
		assert.InDelta(t, 0.2, prev, 1e-9)
		for range 30 {
			time.Sleep(10 * time.Millisecond)
			v := g.Value()
			assert.GreaterOrEqual(t, v, prev, "ramp must not go backwards")
			assert.LessOrEqual(t, v, 0.8)
			prev = v
		}
		assert.Equal(t, 0.8, g.Value(), "ramp lands exactly on its target")
		assert.False(t, g.Ramping())
	})
}

func TestGain_RampDownHalfway(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := NewGain()
		g.SetValue(1)
		g.LinearRampTo(0, time.Second)

		time.Sleep(500 * time.Millisecond)
		assert.InDelta(t, 0.5, g.Value(), 1e-9)
		assert.True(t, g.Ramping())
	})
}

func TestGain_CancelFreezesValue(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := NewGain()
		g.SetValue(0)
		g.LinearRampTo(1, time.Second)

		time.Sleep(250 * time.Millisecond)
		g.CancelScheduled()
		time.Sleep(time.Second)

		assert.InDelta(t, 0.25, g.Value(), 1e-9)
	})
}

func TestGain_StreamAppliesGain(t *testing.T) {
	g := NewGain()
	g.SetValue(0.5)
	g.attach(&constStreamer{level: 1, remaining: 8}, beep.SampleRate(44100))

	buf := make([][2]float64, 8)
	n, ok := g.Stream(buf)

	require.True(t, ok)
	require.Equal(t, 8, n)
	for i := range n {
		assert.Equal(t, [2]float64{0.5, 0.5}, buf[i])
	}
}

func TestGain_StreamWithoutSourceIsSilent(t *testing.T) {
	g := NewGain()
	g.SetValue(1)

	buf := [][2]float64{{1, 1}, {1, 1}}
	n, ok := g.Stream(buf)

	assert.True(t, ok)
	assert.Equal(t, 2, n)
	assert.Equal(t, [][2]float64{{0, 0}, {0, 0}}, buf)
}

func TestGain_ReleasedStageEnds(t *testing.T) {
	g := NewGain()
	g.attach(&constStreamer{level: 1, remaining: 100}, beep.SampleRate(44100))
	g.release()

	n, ok := g.Stream(make([][2]float64, 4))
	assert.False(t, ok)
	assert.Zero(t, n)
}
