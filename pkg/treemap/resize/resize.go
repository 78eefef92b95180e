// Package resize forwards container size changes to a relayout callback,
// optionally debounced so that a burst of changes produces one relayout
// with the last size.
package resize

import (
	"sync"
	"time"
)

// Size is a container size in layout units.
type Size struct {
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// Empty reports whether the size has no area.
func (s Size) Empty() bool { return s.W <= 0 || s.H <= 0 }

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce delays relayouts until no change was observed for d.
// The first observation is always delivered immediately.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.deb = newDebouncer(d)
		}
	}
}

// Controller tracks the latest observed size. It never touches view state;
// the callback decides how to relayout.
type Controller struct {
	mu       sync.Mutex
	onResize func(Size)
	deb      *debouncer
	last     Size
	seen     bool
	closed   bool
}

// New creates a controller that calls onResize with each settled size.
func New(onResize func(Size), opts ...Option) *Controller {
	c := &Controller{onResize: onResize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observe records s. Repeated observations of the same size are ignored.
func (c *Controller) Observe(s Size) {
	c.mu.Lock()
	if c.closed || (c.seen && s == c.last) {
		c.mu.Unlock()
		return
	}
	first := !c.seen
	c.last, c.seen = s, true
	c.mu.Unlock()

	if first || c.deb == nil {
		c.fire()
		return
	}
	c.deb.trigger(c.fire)
}

// Last returns the most recent size and whether any was observed.
func (c *Controller) Last() (Size, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.seen
}

// Pending reports whether a debounced relayout is scheduled.
func (c *Controller) Pending() bool {
	return c.deb != nil && c.deb.pending()
}

// Flush delivers a pending relayout immediately.
func (c *Controller) Flush() {
	if !c.Pending() {
		return
	}
	c.deb.cancel()
	c.fire()
}

// Close cancels any pending relayout. Later observations are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	if c.deb != nil {
		c.deb.cancel()
	}
}

func (c *Controller) fire() {
	c.mu.Lock()
	if c.closed || c.onResize == nil {
		c.mu.Unlock()
		return
	}
	s := c.last
	c.mu.Unlock()
	c.onResize(s)
}
