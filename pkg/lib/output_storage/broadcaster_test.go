package output_storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_SingleSubscriberReceives(t *testing.T) {
	b := RunNewBroadcaster[string]()
	defer b.Stop()

	ch, err := b.Subscribe()
	require.NoError(t, err)

	b.Publish("hello")

	v, ok := recvWithTimeout(t, ch, 200*time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestBroadcaster_MultipleSubscribersReceive(t *testing.T) {
	b := RunNewBroadcaster[int]()
	defer b.Stop()

	ch1, err := b.Subscribe()
	require.NoError(t, err)
	b.Publish(1)
	v, ok := recvWithTimeout(t, ch1, 200*time.Millisecond)
	require.True(t, ok)
	require.Equal(t, 1, v)

	ch2, err := b.Subscribe()
	require.NoError(t, err)
	b.Publish(2)

	for _, ch := range []chan int{ch1, ch2} {
		v, ok := recvWithTimeout(t, ch, 200*time.Millisecond)
		require.True(t, ok)
		assert.Equal(t, 2, v)
	}
}

func TestBroadcaster_SlowSubscriberGetsLatest(t *testing.T) {
	b := RunNewBroadcaster[int]()
	defer b.Stop()

	slow, err := b.Subscribe()
	require.NoError(t, err)
	slow <- -1 // buffer full

	b.Publish(42)

	require.Eventually(t, func() bool {
		select {
		case v := <-slow:
			return v == 42
		default:
			return false
		}
	}, 200*time.Millisecond, 2*time.Millisecond)
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := RunNewBroadcaster[int]()
	defer b.Stop()

	a, err := b.Subscribe()
	require.NoError(t, err)
	other, err := b.Subscribe()
	require.NoError(t, err)

	b.Unsubscribe(a)
	_, open := <-a
	assert.False(t, open)

	// double unsubscribe is harmless
	b.Unsubscribe(a)

	b.Publish(7)
	v, ok := recvWithTimeout(t, other, 200*time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestBroadcaster_StopClosesSubscribersAndRejectsNew(t *testing.T) {
	b := RunNewBroadcaster[int]()
	ch, err := b.Subscribe()
	require.NoError(t, err)

	b.Stop()
	b.Stop()

	require.Eventually(t, func() bool {
		select {
		case _, open := <-ch:
			return !open
		default:
			return false
		}
	}, 200*time.Millisecond, 2*time.Millisecond)

	_, err = b.Subscribe()
	assert.Error(t, err)
}
