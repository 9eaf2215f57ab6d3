package prayer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrRegistryClosed is returned by Get after Close.
var ErrRegistryClosed = errors.New("timer registry closed")

// Factory builds a user's timer from their stored settings.
type Factory func(ctx context.Context, userID string) (*Timer, error)

type runningTimer struct {
	timer    *Timer
	cancel   context.CancelFunc
	done     chan struct{}
	lastUsed time.Time
}

// Registry runs one Timer per user and owns their lifetimes.
type Registry struct {
	factory Factory
	now     func() time.Time

	mu     sync.Mutex
	timers map[string]*runningTimer
	// versions counts Drops per user so a factory call that raced one is
	// not installed.
	versions map[string]uint64
	ctx      context.Context
	stop     context.CancelFunc
	closed   bool
}

func NewRegistry(factory Factory) *Registry {
	ctx, stop := context.WithCancel(context.Background())
	return &Registry{
		factory:  factory,
		now:      time.Now,
		timers:   make(map[string]*runningTimer),
		versions: make(map[string]uint64),
		ctx:      ctx,
		stop:     stop,
	}
}

// Get returns the user's running timer, starting one if needed.
func (r *Registry) Get(ctx context.Context, userID string) (*Timer, error) {
	for {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return nil, ErrRegistryClosed
		}
		if rt, ok := r.timers[userID]; ok {
			rt.lastUsed = r.now()
			r.mu.Unlock()
			return rt.timer, nil
		}
		version := r.versions[userID]
		r.mu.Unlock()

		t, err := r.factory(ctx, userID)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return nil, ErrRegistryClosed
		}
		// settings changed while the factory read them
		if r.versions[userID] != version {
			r.mu.Unlock()
			log.Debug().Str("user_id", userID).Msg("discarding timer built from stale settings")
			continue
		}
		// another request may have started one meanwhile
		if rt, ok := r.timers[userID]; ok {
			rt.lastUsed = r.now()
			r.mu.Unlock()
			return rt.timer, nil
		}
		r.startLocked(userID, t)
		r.mu.Unlock()
		return t, nil
	}
}

func (r *Registry) startLocked(userID string, t *Timer) {
	runCtx, cancel := context.WithCancel(r.ctx)
	rt := &runningTimer{timer: t, cancel: cancel, done: make(chan struct{}), lastUsed: r.now()}
	r.timers[userID] = rt
	go func() {
		defer close(rt.done)
		if err := t.Run(runCtx); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("prayer timer stopped")
		}
	}()
	log.Info().Str("user_id", userID).Msg("prayer timer started")
}

// Drop stops the user's timer and waits for it to release its resources.
// A timer being built for the user when Drop runs is discarded.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	r.versions[userID]++
	rt, ok := r.timers[userID]
	delete(r.timers, userID)
	r.mu.Unlock()
	if !ok {
		return
	}
	rt.cancel()
	<-rt.done
}

// EvictIdle stops timers not requested for maxIdle that have nothing to
// deliver, and returns how many it stopped. The next Get starts them again.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	var evicted []*runningTimer
	for userID, rt := range r.timers {
		if rt.lastUsed.After(cutoff) || !rt.timer.Idle() {
			continue
		}
		delete(r.timers, userID)
		evicted = append(evicted, rt)
		log.Debug().Str("user_id", userID).Msg("evicting idle prayer timer")
	}
	r.mu.Unlock()

	for _, rt := range evicted {
		rt.cancel()
		<-rt.done
	}
	return len(evicted)
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (r *Registry) RunEviction(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.EvictIdle(maxIdle); n > 0 {
				log.Info().Int("evicted", n).Msg("stopped idle prayer timers")
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Close stops every timer and waits for all of them.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	running := r.timers
	r.timers = make(map[string]*runningTimer)
	r.mu.Unlock()

	r.stop()
	for _, rt := range running {
		<-rt.done
	}
}
