package monitor

import "time"

// Clock abstracts the timers the monitor needs so tests can drive time
type Clock interface {
	NewTicker(d time.Duration) Ticker
	AfterFunc(d time.Duration, f func()) Timer
}

// Ticker delivers ticks on C
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Timer is a pending one-shot callback
type Timer interface {
	Stop() bool
}

// RealClock is the wall clock
type RealClock struct{}

func (RealClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }
