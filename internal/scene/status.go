package scene

import (
	"sort"
	"sync"
	"time"
)

// StatusMessage is the transient banner.
type StatusMessage struct {
	Text    string    `json:"text"`
	Kind    string    `json:"kind"`
	ShownAt time.Time `json:"shown_at"`
}

// Status shows one message at a time and hides it after ttl. A newer
// message restarts the countdown; an older countdown never hides it.
type Status struct {
	mu      sync.Mutex
	current *StatusMessage
	seq     uint64
	ttl     time.Duration
	timer   *time.Timer
}

// NewStatus creates a status banner that hides messages after ttl.
func NewStatus(ttl time.Duration) *Status {
	return &Status{ttl: ttl}
}

// Show displays text with the given kind ("success" or "error").
func (s *Status) Show(text, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	seq := s.seq
	s.current = &StatusMessage{Text: text, Kind: kind, ShownAt: time.Now()}
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.ttl <= 0 {
		return
	}
	s.timer = time.AfterFunc(s.ttl, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.seq == seq {
			s.current = nil
		}
	})
}

// Current returns the visible message, or nil.
func (s *Status) Current() *StatusMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	m := *s.current
	return &m
}

// Stop cancels a pending hide.
func (s *Status) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
}

// Controls tracks which UI controls accept input.
type Controls struct {
	mu       sync.RWMutex
	disabled map[string]bool
}

// NewControls creates controls that are all enabled.
func NewControls() *Controls {
	return &Controls{disabled: make(map[string]bool)}
}

// SetEnabled enables or disables control name.
func (c *Controls) SetEnabled(name string, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if enabled {
		delete(c.disabled, name)
		return
	}
	c.disabled[name] = true
}

// Enabled reports whether control name accepts input.
func (c *Controls) Enabled(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled[name]
}

// Disabled lists disabled controls in name order.
func (c *Controls) Disabled() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.disabled))
	for name := range c.disabled {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
