package core

import "github.com/spaghettifunk/anima/engine/containers"

const AVG_COUNT = 30

// Metrics keeps a rolling frame time average and a frames-per-second counter.
type Metrics struct {
	msTimes            *containers.RingQueue[float64]
	msAVG              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
}

func NewMetrics() *Metrics {
	return &Metrics{msTimes: containers.NewRingQueue[float64](AVG_COUNT)}
}

// Update records the duration of one frame, in seconds. It reports true once
// per second, when a new FPS value is available.
func (m *Metrics) Update(frameElapsedTime float64) bool {
	// Average over the last AVG_COUNT frames.
	frameMS := frameElapsedTime * 1000.0
	m.msTimes.Push(frameMS)
	var sum float64
	for _, ms := range m.msTimes.Values() {
		sum += ms
	}
	m.msAVG = sum / float64(m.msTimes.Len())

	// Count all frames.
	m.frames++

	// Calculate frames per second.
	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
		return true
	}
	return false
}

func (m *Metrics) FPS() float64 {
	return m.fps
}

func (m *Metrics) FrameTime() float64 {
	return m.msAVG
}

func (m *Metrics) Frame() (float64, float64) {
	return m.fps, m.msAVG
}
