package resources

import (
	"testing"
	"time"

	"github.com/spaghettifunk/showroom/engine/core"
)

func TestPlayerLoops(t *testing.T) {
	now := time.Unix(0, 0)
	clock := core.NewClockWithSource(func() time.Time { return now })
	p := NewPlayer(&MediaElement{Loop: true}, clock)
	p.SetDuration(4 * time.Second)

	if !p.Paused() {
		t.Fatal("new player should be paused")
	}
	p.Play()
	now = now.Add(10 * time.Second)

	if got := p.CurrentTime(); got != 2*time.Second {
		t.Fatalf("CurrentTime = %v, want 2s", got)
	}
}

func TestPlayerPauseKeepsPosition(t *testing.T) {
	now := time.Unix(0, 0)
	clock := core.NewClockWithSource(func() time.Time { return now })
	p := NewPlayer(&MediaElement{}, clock)
	p.SetDuration(5 * time.Second)

	p.Play()
	now = now.Add(time.Second)
	p.Pause()
	now = now.Add(time.Hour)

	if got := p.CurrentTime(); got != time.Second {
		t.Fatalf("CurrentTime = %v, want 1s", got)
	}

	p.Play()
	now = now.Add(10 * time.Second)
	if got := p.CurrentTime(); got != 5*time.Second {
		t.Fatalf("non-looping CurrentTime = %v, want clamp to 5s", got)
	}
}
