package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context) error { return nil }

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	_, err := New(time.Now(), 0, noop)
	assert.Error(t, err)

	_, err = New(time.Now(), -time.Second, noop)
	assert.Error(t, err)

	_, err = New(time.Now(), time.Second, nil)
	assert.Error(t, err)
}

func TestPastAnchorIsDeferredByWholeIntervals(t *testing.T) {
	anchor := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	now := anchor.Add(2*time.Hour + 30*time.Minute)

	var calls atomic.Int64
	s, err := New(anchor, time.Hour, func(context.Context) error {
		calls.Add(1)
		return nil
	}, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	defer s.Dispose()

	assert.Equal(t, anchor.Add(3*time.Hour), s.NextRun())

	st := s.State()
	assert.Equal(t, anchor, st.Anchor, "anchor never moves")
	assert.Equal(t, int64(3), st.Skipped)
	assert.Equal(t, int64(0), st.Runs)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load(), "a past anchor must not fire immediately")
}

func TestAnchorExactlyNowIsDeferred(t *testing.T) {
	anchor := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	now := anchor.Add(2 * time.Hour)

	s, err := New(anchor, time.Hour, noop, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	defer s.Dispose()

	assert.Equal(t, anchor.Add(3*time.Hour), s.NextRun())
}

func TestFutureAnchorIsKept(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	anchor := now.Add(10 * time.Minute)

	s, err := New(anchor, time.Hour, noop, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	defer s.Dispose()

	assert.Equal(t, anchor, s.NextRun())
	assert.Zero(t, s.State().Skipped)
}

func TestNextRunIsDriftFree(t *testing.T) {
	const interval = 60 * time.Millisecond
	anchor := time.Now().Add(20 * time.Millisecond)

	// each tick is slow; without anchoring the error would grow with every tick
	s, err := New(anchor, interval, func(context.Context) error {
		time.Sleep(15 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)
	defer s.Dispose()

	require.Eventually(t, func() bool {
		st := s.State()
		assert.Equal(t, anchor.Add(time.Duration(st.Runs+st.Skipped)*interval), st.NextRun)
		return st.Runs >= 4
	}, 3*time.Second, 5*time.Millisecond)

	st := s.State()
	assert.Zero(t, st.Skipped)
	assert.Equal(t, anchor.Add(time.Duration(st.Runs)*interval), st.NextRun)
}

func TestOverrunSkipsMissedSlots(t *testing.T) {
	const interval = 20 * time.Millisecond
	anchor := time.Now().Add(10 * time.Millisecond)

	var calls atomic.Int64
	s, err := New(anchor, interval, func(context.Context) error {
		if calls.Add(1) == 1 {
			time.Sleep(5 * interval)
		}
		return nil
	})
	require.NoError(t, err)
	defer s.Dispose()

	require.Eventually(t, func() bool { return s.Runs() >= 1 }, 2*time.Second, 5*time.Millisecond)

	st := s.State()
	assert.GreaterOrEqual(t, st.Skipped, int64(3))
	assert.Equal(t, anchor.Add(time.Duration(st.Runs+st.Skipped)*interval), st.NextRun)
	assert.False(t, st.NextRun.Before(time.Now().Add(-interval)))
}

func TestFailuresDoNotStopTicks(t *testing.T) {
	var calls atomic.Int64
	s, err := New(time.Now().Add(5*time.Millisecond), 10*time.Millisecond, func(context.Context) error {
		switch calls.Add(1) {
		case 1:
			return errors.New("automation failed")
		case 2:
			panic("boom")
		}
		return nil
	})
	require.NoError(t, err)
	defer s.Dispose()

	require.Eventually(t, func() bool { return s.Runs() >= 4 }, 2*time.Second, 5*time.Millisecond)
}

func TestDisposeStopsTicks(t *testing.T) {
	var calls atomic.Int64
	s, err := New(time.Now(), 10*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)

	time.Sleep(35 * time.Millisecond)
	s.Dispose()
	s.Dispose()
	s.Wait()

	settled := calls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
	assert.True(t, s.State().Stopped)
}

func TestDisposeCancelsInFlightAction(t *testing.T) {
	entered := make(chan struct{})
	var cancelled atomic.Bool
	s, err := New(time.Now().Add(10*time.Millisecond), time.Hour, func(ctx context.Context) error {
		close(entered)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	})
	require.NoError(t, err)

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first tick did not fire")
	}

	s.Dispose()
	assert.True(t, cancelled.Load(), "Dispose returned before the in-flight action")
	s.Wait()
	assert.Equal(t, int64(1), s.Runs())
}

func TestDisposeDuringTickPreventsAction(t *testing.T) {
	anchor := time.Now().Add(20 * time.Millisecond)

	var current atomic.Pointer[Scheduler]
	var disposed, invokedAfterDispose atomic.Bool
	var calls atomic.Int64

	// the first clock reading at or past the anchor happens inside the tick
	clock := func() time.Time {
		now := time.Now()
		if s := current.Load(); s != nil && !now.Before(anchor) && !disposed.Load() {
			s.Dispose()
			disposed.Store(true)
		}
		return now
	}

	s, err := New(anchor, time.Hour, func(context.Context) error {
		calls.Add(1)
		invokedAfterDispose.Store(disposed.Load())
		return nil
	}, WithClock(clock))
	require.NoError(t, err)
	current.Store(s)

	require.Eventually(t, disposed.Load, 2*time.Second, 5*time.Millisecond)
	s.Wait()

	assert.False(t, invokedAfterDispose.Load())
	assert.Equal(t, int64(0), calls.Load())
	assert.Equal(t, int64(0), s.Runs())
	assert.True(t, s.State().Stopped)
}

func TestDailyAnchor(t *testing.T) {
	loc := time.FixedZone("test", 3*3600)
	now := time.Date(2024, 3, 1, 17, 45, 12, 0, loc)

	anchor, err := DailyAnchor(now, "09:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, loc), anchor)

	_, err = DailyAnchor(now, "25:00")
	assert.Error(t, err)

	// a morning time that already passed runs tomorrow
	s, err := New(anchor, EveryHours(0), noop, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	defer s.Dispose()
	assert.Equal(t, time.Date(2024, 3, 2, 9, 30, 0, 0, loc), s.NextRun())
}

func TestEveryHours(t *testing.T) {
	assert.Equal(t, 24*time.Hour, EveryHours(0))
	assert.Equal(t, 24*time.Hour, EveryHours(-3))
	assert.Equal(t, 6*time.Hour, EveryHours(6))
}
