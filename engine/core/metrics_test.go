package core

import "testing"

func TestMetricsAverage(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(0.010)
	}
	if got := m.FrameTime(); got < 9.999 || got > 10.001 {
		t.Fatalf("frame time average: got %f, want 10ms", got)
	}
}

func TestMetricsFPS(t *testing.T) {
	m := NewMetrics()
	reported := false
	// 61 frames of 1/60s crosses the one second mark once.
	for i := 0; i < 61; i++ {
		if m.Update(1.0 / 60.0) {
			reported = true
		}
	}
	if !reported {
		t.Fatal("no FPS report after one second of frames")
	}
	if fps := m.FPS(); fps < 60 || fps > 61 {
		t.Fatalf("fps: got %f", fps)
	}
}

func TestMetricsAverageSlides(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(0.010)
	}
	// A full window of 20ms frames pushes every 10ms sample out.
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(0.020)
	}
	if got := m.FrameTime(); got < 19.999 || got > 20.001 {
		t.Fatalf("frame time average: got %f, want 20ms", got)
	}
}
