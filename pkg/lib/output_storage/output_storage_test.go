package output_storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
)

func out(text string) lib.OutputLine {
	return lib.OutputLine{Stream: lib.StreamStdout, Text: text}
}

// helper: receive with timeout
func recvWithTimeout[T any](t *testing.T, ch <-chan T, d time.Duration) (T, bool) {
	t.Helper()
	var zero T
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(d):
		return zero, false
	}
}

func texts(lines []lib.OutputLine) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return out
}

func TestNewOutputStorage_Empty(t *testing.T) {
	s := RunNewOutputStorage()
	defer s.Stop()

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Lines())
	assert.Equal(t, "", s.String())
}

func TestAppendAndForEach_OrderAndEarlyStop(t *testing.T) {
	s := RunNewOutputStorage()
	defer s.Stop()
	s.Append(out("a"))
	s.Append(out("b"))
	s.Append(out("c"))

	assert.Equal(t, []string{"a", "b", "c"}, texts(s.Lines()))
	assert.Equal(t, 3, s.Len())

	var got []string
	s.ForEach(func(l lib.OutputLine) bool {
		got = append(got, l.Text)
		return len(got) < 2
	})
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestString_JoinsLines(t *testing.T) {
	s := RunNewOutputStorage()
	defer s.Stop()
	s.Append(out("hello"))
	s.Append(lib.OutputLine{Stream: lib.StreamStderr, Text: "world"})
	assert.Equal(t, "hello\nworld\n", s.String())
}

func TestNilReceiverSafety(t *testing.T) {
	var s *OutputStorage

	s.ForEach(nil)
	called := false
	s.ForEach(func(lib.OutputLine) bool {
		called = true
		return true
	})
	assert.False(t, called)

	s.Append(out("x"))
	s.Stop()
	assert.Equal(t, 0, s.Len())

	ch := s.Subscribe(context.Background(), 1)
	_, ok := <-ch
	assert.False(t, ok, "nil storage subscription must be closed")
}

func TestSubscribe_DeliversExistingItemsInOrder(t *testing.T) {
	s := RunNewOutputStorage()
	defer s.Stop()
	s.Append(out("a"))
	s.Append(out("b"))
	s.Append(out("c"))

	ch := s.Subscribe(context.Background(), 3)
	for _, want := range []string{"a", "b", "c"} {
		v, ok := recvWithTimeout(t, ch, 200*time.Millisecond)
		require.True(t, ok)
		assert.Equal(t, want, v.Text)
	}

	_, ok := recvWithTimeout(t, ch, 50*time.Millisecond)
	assert.False(t, ok, "no further lines expected without new appends")
}

func TestSubscribe_FollowsAppendsThenClosesOnStop(t *testing.T) {
	s := RunNewOutputStorage()
	s.Append(out("x"))

	ch := s.Subscribe(context.Background(), 1)
	v, ok := recvWithTimeout(t, ch, 200*time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, "x", v.Text)

	s.Append(out("y"))
	v, ok = recvWithTimeout(t, ch, 200*time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, "y", v.Text)

	s.Stop()
	require.Eventually(t, func() bool {
		select {
		case _, open := <-ch:
			return !open
		default:
			return false
		}
	}, 500*time.Millisecond, 5*time.Millisecond)
}

func TestSubscribe_LinesAppendedRightBeforeStopAreNotLost(t *testing.T) {
	for i := 0; i < 50; i++ {
		s := RunNewOutputStorage()
		ch := s.Subscribe(context.Background(), 0)
		s.Append(out("1"))
		s.Append(out("2"))
		s.Stop()

		var got []string
		for l := range ch {
			got = append(got, l.Text)
		}
		require.Equal(t, []string{"1", "2"}, got)
	}
}

func TestSubscribe_AfterStopReplaysAndCloses(t *testing.T) {
	s := RunNewOutputStorage()
	s.Append(out("a"))
	s.Append(out("b"))
	s.Stop()

	// let the broadcaster observe the stop
	require.Eventually(t, func() bool {
		_, err := s.broadcaster.Subscribe()
		return err != nil
	}, time.Second, 5*time.Millisecond)

	var got []string
	for l := range s.Subscribe(context.Background(), 1) {
		got = append(got, l.Text)
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestSubscribe_ContextCancelClosesChannel(t *testing.T) {
	s := RunNewOutputStorage()
	defer s.Stop()
	s.Append(out("a"))
	s.Append(out("b"))

	ctx, cancel := context.WithCancel(context.Background())
	// unbuffered and never read: the subscriber is blocked on send
	ch := s.Subscribe(ctx, 0)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, open := <-ch:
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
