package prayer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRegistry_StartsOneTimerPerUser(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := newFakeClock(at("18:00"))
	var mu sync.Mutex
	built := map[string]int{}
	r := NewRegistry(func(ctx context.Context, userID string) (*Timer, error) {
		mu.Lock()
		built[userID]++
		mu.Unlock()
		return NewTimer(clock, &fakeLookup{slots: testSlots()}, &fakeNotifier{}, testLocation, granted()), nil
	})

	a1, err := r.Get(context.Background(), "alice")
	require.NoError(t, err)
	a2, err := r.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Same(t, a1, a2)

	_, err = r.Get(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	require.Eventually(t, func() bool {
		return a1.View().State == StateReady
	}, time.Second, time.Millisecond)

	r.Drop("alice")
	assert.Equal(t, 1, r.Len())
	r.Drop("nobody")

	r.Close()
	assert.Zero(t, r.Len())
	assert.Zero(t, clock.liveTickers())
	assert.Empty(t, clock.pending())

	_, err = r.Get(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrRegistryClosed)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, built["alice"])
}

func TestRegistry_FactoryError(t *testing.T) {
	boom := errors.New("no preferences")
	r := NewRegistry(func(ctx context.Context, userID string) (*Timer, error) {
		return nil, boom
	})
	defer r.Close()

	_, err := r.Get(context.Background(), "alice")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, r.Len())
}

func TestRegistry_DropDuringBuildDiscardsStaleTimer(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := newFakeClock(at("18:00"))
	var (
		mu      sync.Mutex
		city    = "Old"
		calls   int
		entered = make(chan struct{})
		release = make(chan struct{})
	)
	r := NewRegistry(func(ctx context.Context, userID string) (*Timer, error) {
		mu.Lock()
		loc := testLocation
		loc.City = city
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(entered)
			<-release
		}
		return NewTimer(clock, &fakeLookup{slots: testSlots()}, &fakeNotifier{}, loc, granted()), nil
	})
	defer r.Close()

	got := make(chan *Timer, 1)
	go func() {
		tm, err := r.Get(context.Background(), "u1")
		assert.NoError(t, err)
		got <- tm
	}()

	<-entered
	mu.Lock()
	city = "New"
	mu.Unlock()
	r.Drop("u1")
	close(release)

	tm := <-got
	require.NotNil(t, tm)
	assert.Equal(t, "New", tm.loc.City)

	again, err := r.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Same(t, tm, again)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_EvictIdle(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := newFakeClock(at("18:00"))
	now := at("18:00")
	r := NewRegistry(func(ctx context.Context, userID string) (*Timer, error) {
		opts := granted()
		opts.NotificationsEnabled = userID == "reminded"
		return NewTimer(clock, &fakeLookup{slots: testSlots()}, &fakeNotifier{}, testLocation, opts), nil
	})
	r.now = func() time.Time { return now }
	defer r.Close()

	quiet, err := r.Get(context.Background(), "quiet")
	require.NoError(t, err)
	_, err = r.Get(context.Background(), "reminded")
	require.NoError(t, err)
	watched, err := r.Get(context.Background(), "watched")
	require.NoError(t, err)
	_, cancel := watched.Subscribe()
	defer cancel()

	require.Eventually(t, func() bool {
		return quiet.View().State == StateReady
	}, time.Second, time.Millisecond)

	assert.Zero(t, r.EvictIdle(30*time.Minute), "recently used")

	now = now.Add(time.Hour)
	assert.Equal(t, 1, r.EvictIdle(30*time.Minute))
	assert.Equal(t, 2, r.Len())

	again, err := r.Get(context.Background(), "quiet")
	require.NoError(t, err)
	assert.NotSame(t, quiet, again)
}
