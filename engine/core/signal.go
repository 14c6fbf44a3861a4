package core

import "sync"

// Signal is a one-shot notification. It can be fired at most once; every
// subscriber registered before that moment is invoked exactly once, and
// subscribers registered afterwards run immediately on the caller.
type Signal struct {
	mu        sync.Mutex
	once      sync.Once
	fired     bool
	done      chan struct{}
	listeners []func()
}

func NewSignal() *Signal {
	return &Signal{
		done: make(chan struct{}),
	}
}

// Subscribe registers fn. If the signal already fired, fn runs before
// Subscribe returns.
func (s *Signal) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	if !s.fired {
		s.listeners = append(s.listeners, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

// Fire resolves the signal. Only the first call has any effect and reports
// true. Listeners run on the firing goroutine, outside the lock, in
// registration order. Done is closed after the last of them returned.
func (s *Signal) Fire() bool {
	first := false
	s.once.Do(func() {
		first = true

		s.mu.Lock()
		s.fired = true
		listeners := s.listeners
		s.listeners = nil
		s.mu.Unlock()

		for _, fn := range listeners {
			fn()
		}
		close(s.done)
	})
	return first
}

// Done is closed once the signal fired and its listeners ran.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

func (s *Signal) Fired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}
