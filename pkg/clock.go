package pkg

import (
	"fmt"
	"sync"
	"time"
)

// Clock tracks how long a match has gone without activity.
type Clock struct {
	Timeout time.Duration

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewClock(timeout time.Duration) *Clock {
	cl := &Clock{Timeout: timeout, now: time.Now}
	cl.last = cl.now()
	return cl
}

func (cl *Clock) String() string {
	idle := cl.Idle()
	return fmt.Sprintf("%d:%02d", int(idle.Minutes()), int(idle.Seconds())%60)
}

// Touch records activity.
func (cl *Clock) Touch() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.last = cl.now()
}

func (cl *Clock) Idle() time.Duration {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.now().Sub(cl.last)
}

// Expired reports whether the clock has been idle for longer than its timeout.
// A zero timeout never expires.
func (cl *Clock) Expired() bool {
	return cl.Timeout > 0 && cl.Idle() > cl.Timeout
}
