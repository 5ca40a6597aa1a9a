package muic

import (
	"sync"
	"time"
)

// watchdogRetry spaces redeliveries of a tick the trigger queue refused.
const watchdogRetry = 10 * time.Millisecond

// timerWatchdog feeds Watchdog back through the trigger queue. Each Arm
// starts a new generation so a tick queued before a Stop or re-Arm is
// recognised as stale when it is finally handled.
type timerWatchdog struct {
	mu    sync.Mutex
	t     *time.Timer
	gen   uint32
	armed bool
	fired bool
	retry time.Duration
	fire  func() bool // false when the tick was not queued
}

func newTimerWatchdog(fire func() bool) *timerWatchdog {
	return &timerWatchdog{fire: fire, retry: watchdogRetry}
}

func (w *timerWatchdog) Arm(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.t != nil {
		w.t.Stop()
	}
	w.gen++
	w.armed, w.fired = true, false
	w.schedule(d, w.gen)
}

// schedule runs with w.mu held.
func (w *timerWatchdog) schedule(d time.Duration, g uint32) {
	w.t = time.AfterFunc(d, func() { w.expire(g) })
}

// expire marks generation g fired and queues the tick. A refused tick is
// offered again until it lands or the generation moves on.
func (w *timerWatchdog) expire(g uint32) {
	w.mu.Lock()
	live := w.armed && w.gen == g
	if live {
		w.fired = true
	}
	w.mu.Unlock()
	if !live || w.fire() {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.armed && w.gen == g {
		println("[muic] watchdog tick dropped, retrying")
		w.schedule(w.retry, g)
	}
}

// Stop cancels a pending expiry and reports whether one was pending. A tick
// that already fired is left for take.
func (w *timerWatchdog) Stop() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.armed || w.fired {
		return false
	}
	w.t.Stop()
	w.armed = false
	w.gen++
	return true
}

// take consumes a fired tick of the current generation.
func (w *timerWatchdog) take() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.fired {
		return false
	}
	w.armed, w.fired = false, false
	return true
}
