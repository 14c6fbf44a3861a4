package core

import (
	"testing"
	"time"
)

func TestFrameMetricsAverage(t *testing.T) {
	m := NewFrameMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(10 * time.Millisecond)
	}
	if _, got := m.Frame(); got < 9.999 || got > 10.001 {
		t.Fatalf("FrameTime = %f, want 10", got)
	}
}

func TestFrameMetricsFPS(t *testing.T) {
	m := NewFrameMetrics()
	// 51 frames of 20ms cross the one second boundary once.
	for i := 0; i < 51; i++ {
		m.Update(20 * time.Millisecond)
	}
	if fps, _ := m.Frame(); fps != 50 {
		t.Fatalf("FPS = %f, want 50", fps)
	}
}

func TestClockElapsed(t *testing.T) {
	now := time.Unix(100, 0)
	c := NewClockWithSource(func() time.Time { return now })

	c.Update()
	if c.Elapsed() != 0 {
		t.Fatal("unstarted clock reported elapsed time")
	}

	c.Start()
	now = now.Add(1500 * time.Millisecond)
	c.Update()
	if c.Elapsed() != 1500*time.Millisecond {
		t.Fatalf("Elapsed = %v, want 1.5s", c.Elapsed())
	}

	c.Stop()
	now = now.Add(time.Second)
	c.Update()
	if c.Elapsed() != 1500*time.Millisecond {
		t.Fatalf("stopped clock moved to %v", c.Elapsed())
	}
	if c.Running() {
		t.Fatal("Running = true after Stop")
	}
}
