package resources

import (
	"sync"
	"time"

	"github.com/spaghettifunk/showroom/engine/core"
)

// Player tracks the playback position of a MediaElement.
type Player struct {
	mu       sync.Mutex
	element  *MediaElement
	clock    *core.Clock
	offset   time.Duration
	duration time.Duration
}

func NewPlayer(element *MediaElement, clock *core.Clock) *Player {
	return &Player{
		element: element,
		clock:   clock,
	}
}

// SetDuration sets the length of the media. Zero means unknown, in which
// case looping has no effect.
func (p *Player) SetDuration(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.duration = d
}

func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clock.Running() {
		return
	}
	p.clock.Start()
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.clock.Running() {
		return
	}
	p.clock.Update()
	p.offset += p.clock.Elapsed()
	p.clock.Stop()
}

func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.clock.Running()
}

// CurrentTime returns the playback position, wrapped by the duration when
// the element loops.
func (p *Player) CurrentTime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos := p.offset
	if p.clock.Running() {
		p.clock.Update()
		pos += p.clock.Elapsed()
	}
	if p.duration <= 0 {
		return pos
	}
	if p.element.Loop {
		return pos % p.duration
	}
	if pos > p.duration {
		return p.duration
	}
	return pos
}
