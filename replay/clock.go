package replay

import (
	"sync"
	"time"
)

// Clock tracks elapsed real time for one Player. It can be stopped and
// restarted without losing the accumulated elapsed time, and its current
// reading can be forced, which is how seeks jump the session to the real
// time equivalent of a target tick.
//
// Elapsed time is monotonically non-decreasing while the clock runs.
// A Clock is owned by exactly one Player; the mutex exists because the
// Manager stops and forces the clock while quiescing that Player.
type Clock struct {
	mu        sync.Mutex
	running   bool
	elapsed   time.Duration
	startedAt time.Time
}

// NewClock returns a stopped clock at elapsed time zero.
func NewClock() *Clock {
	return &Clock{}
}

// Start begins accumulating real time. No-op if already running.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.startedAt = time.Now()
}

// Stop freezes the clock, folding the running interval into elapsed.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.elapsed += time.Since(c.startedAt)
	c.running = false
}

// Toggle flips between running and stopped.
func (c *Clock) Toggle() {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	if running {
		c.Stop()
	} else {
		c.Start()
	}
}

// Running reports whether the clock is accumulating time.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// CurrentTime returns elapsed plus the in-flight running interval.
func (c *Clock) CurrentTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return c.elapsed + time.Since(c.startedAt)
	}
	return c.elapsed
}

// SetElapsed forces the accumulated elapsed time. The running interval,
// if any, restarts from now.
func (c *Clock) SetElapsed(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elapsed = d
	c.startedAt = time.Now()
}

// SetCurrentTime forces the clock so that CurrentTime reads d.
func (c *Clock) SetCurrentTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.elapsed = d - time.Since(c.startedAt)
		return
	}
	c.elapsed = d
}
