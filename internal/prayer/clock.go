package prayer

import "time"

// Clock is the single time source for a Timer. Every tick samples Now once
// and passes it down, so derivation never reads the wall clock itself.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Stopper
	NewTicker(d time.Duration) Ticker
}

type Stopper interface {
	Stop() bool
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

func (systemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{time.NewTicker(d)}
}

type systemTicker struct{ t *time.Ticker }

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }
