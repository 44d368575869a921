package contacts

import (
	"sync"
	"time"
)

// Debouncer runs a function once after a quiet period. Each Trigger cancels a
// pending run and rearms the timer, so a burst of edits fires exactly once.
type Debouncer struct {
	Delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{Delay: delay}
}

func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.Delay, fn)
}

// Stop cancels any pending run. Safe to call on an idle debouncer.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
