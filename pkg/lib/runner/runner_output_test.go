package runner

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
)

// readAll collects the text of every line from a subscription channel until it closes.
func readAll(ch <-chan lib.OutputLine) string {
	var b strings.Builder
	for line := range ch {
		b.WriteString(line.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

func TestOutput_MultipleSubscribers(t *testing.T) {
	requireShell(t)
	r := NewRunner()

	h, err := r.Start(context.Background(), shRequest("for i in 1 2 3 4 5; do echo $i; sleep 0.03; done"), nil)
	require.NoError(t, err)

	ch1, err := r.Output(context.Background(), h.ID())
	require.NoError(t, err)
	ch2, err := r.Output(context.Background(), h.ID())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	var s1, s2 string
	go func() { defer wg.Done(); s1 = readAll(ch1) }()
	go func() { defer wg.Done(); s2 = readAll(ch2) }()

	_, err = r.WaitForExit(context.Background(), h)
	require.NoError(t, err)
	wg.Wait()

	expected := "1\n2\n3\n4\n5\n"
	assert.Equal(t, expected, s1)
	assert.Equal(t, expected, s2)
}

func TestOutput_LateSubscriberReceivesBacklog(t *testing.T) {
	requireShell(t)
	r := NewRunner()

	h, err := r.Start(context.Background(), shRequest("for i in 1 2 3 4; do echo $i; sleep 0.05; done"), nil)
	require.NoError(t, err)

	ch1, err := r.Output(context.Background(), h.ID())
	require.NoError(t, err)

	// Wait until at least two lines are likely produced
	time.Sleep(120 * time.Millisecond)

	ch2, err := r.Output(context.Background(), h.ID())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	var s1, s2 string
	go func() { defer wg.Done(); s1 = readAll(ch1) }()
	go func() { defer wg.Done(); s2 = readAll(ch2) }()
	wg.Wait()

	expected := "1\n2\n3\n4\n"
	assert.Equal(t, expected, s1)
	assert.Equal(t, expected, s2)
}

func TestOutput_ReplayAfterCompletion(t *testing.T) {
	requireShell(t)
	r := NewRunner()

	outcome, err := r.Run(context.Background(), shRequest("echo a; echo b 1>&2"), nil)
	require.NoError(t, err)
	require.Equal(t, lib.Completed(0), outcome)

	list := r.List()
	require.Len(t, list, 1)

	ch, err := r.Output(context.Background(), list[0].ID)
	require.NoError(t, err)

	var streams []lib.Stream
	var texts []string
	for line := range ch {
		streams = append(streams, line.Stream)
		texts = append(texts, line.Text)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, texts)
	assert.ElementsMatch(t, []lib.Stream{lib.StreamStdout, lib.StreamStderr}, streams)
}

func TestOutput_ConcurrentSubscribers(t *testing.T) {
	requireShell(t)
	r := NewRunner()

	h, err := r.Start(context.Background(), shRequest("i=1; while [ $i -le 100 ]; do echo $i; i=$((i+1)); done;"), nil)
	require.NoError(t, err)

	const subs = 5
	outs := make([]string, subs)
	var wg sync.WaitGroup
	wg.Add(subs)
	for i := 0; i < subs; i++ {
		ch, err := r.Output(context.Background(), h.ID())
		require.NoError(t, err)
		go func() { defer wg.Done(); outs[i] = readAll(ch) }()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for subscribers to finish")
	}

	for i := 0; i < subs; i++ {
		assert.Equal(t, outs[0], outs[i])
	}
	assert.True(t, strings.HasSuffix(outs[0], "\n100\n"))
}

func TestOutput_NoOutputChannelCloses(t *testing.T) {
	requireShell(t)
	r := NewRunner()

	h, err := r.Start(context.Background(), shRequest(":"), nil)
	require.NoError(t, err)

	ch, err := r.Output(context.Background(), h.ID())
	require.NoError(t, err)

	done := make(chan string)
	go func() { done <- readAll(ch) }()

	select {
	case s := <-done:
		assert.Empty(t, s)
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close for no-output process")
	}
}

func TestOutput_UnknownRun(t *testing.T) {
	r := NewRunner()
	_, err := r.Output(context.Background(), "nope")
	assert.ErrorIs(t, err, lib.ErrNotFound)
}
