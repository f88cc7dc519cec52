package output_storage

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/logging"
)

// node represents an element in the singly linked list.
// The list uses a sentinel head node for simpler lock-free append logic.
type node struct {
	line lib.OutputLine
	next atomic.Pointer[node]
}

// OutputStorage is an append-only singly linked list of output lines of one run.
// A single goroutine appends; any number of readers iterate or subscribe concurrently.
// Subscribers always receive the full backlog from the first line.
type OutputStorage struct {
	head *node // sentinel head, immutable
	tail *node // last element in the list (or sentinel if empty); appender-owned

	count atomic.Int64

	broadcaster *Broadcaster[struct{}]
	logger      *zap.SugaredLogger
}

// RunNewOutputStorage creates a new, empty OutputStorage.
func RunNewOutputStorage() *OutputStorage {
	sentinel := &node{}
	return &OutputStorage{
		head:        sentinel,
		tail:        sentinel,
		broadcaster: RunNewBroadcaster[struct{}](),
		logger:      logging.ComponentLogger("output_storage"),
	}
}

// Stop marks the storage complete. Running subscribers drain what is left and close.
func (s *OutputStorage) Stop() {
	if s == nil {
		return
	}

	s.broadcaster.Stop()
}

// Append adds a line to the end of the list. Only one goroutine may append.
func (s *OutputStorage) Append(line lib.OutputLine) {
	if s == nil {
		return
	}

	newTail := &node{line: line}

	s.tail.next.Store(newTail)
	s.tail = newTail
	s.count.Add(1)

	s.broadcaster.Publish(struct{}{})
}

// Len returns the number of stored lines.
func (s *OutputStorage) Len() int {
	if s == nil {
		return 0
	}
	return int(s.count.Load())
}

// send pushes from prev onwards into ch, returning the last node sent or false if ctx ended.
func (s *OutputStorage) send(ctx context.Context, prev *node, ch chan<- lib.OutputLine) (*node, bool) {
	for {
		current := prev.next.Load()
		if current == nil {
			return prev, true
		}
		select {
		case ch <- current.line:
		case <-ctx.Done():
			return prev, false
		}
		prev = current
	}
}

func (s *OutputStorage) subscribeRunningProcess(ctx context.Context, notifier chan struct{}, ch chan lib.OutputLine) {
	id := uuid.New()
	defer close(ch)
	defer s.broadcaster.Unsubscribe(notifier)

	prev := s.head
	for {
		var ok bool
		if prev, ok = s.send(ctx, prev, ch); !ok {
			s.logger.Debugw("Subscriber cancelled", "subscriber", id)
			return
		}
		select {
		case _, open := <-notifier:
			if !open {
				// storage stopped: everything appended before Stop is already linked
				s.send(ctx, prev, ch)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *OutputStorage) subscribeStoppedProcess(ctx context.Context, ch chan lib.OutputLine) {
	defer close(ch)
	s.send(ctx, s.head, ch)
}

// Subscribe replays every stored line and follows new ones until the storage
// is stopped or ctx is done, then closes the returned channel.
func (s *OutputStorage) Subscribe(ctx context.Context, capacity int) <-chan lib.OutputLine {
	ch := make(chan lib.OutputLine, capacity)
	if s == nil {
		close(ch)
		return ch
	}
	notifier, err := s.broadcaster.Subscribe()
	if err == nil {
		go s.subscribeRunningProcess(ctx, notifier, ch)
	} else {
		go s.subscribeStoppedProcess(ctx, ch)
	}

	return ch
}

// ForEach iterates over all stored lines in insertion order.
// If iter returns false, iteration stops early.
func (s *OutputStorage) ForEach(iter func(lib.OutputLine) bool) {
	if s == nil || iter == nil {
		return
	}
	cur := s.head.next.Load() // skip sentinel
	for cur != nil {
		if !iter(cur.line) {
			return
		}
		cur = cur.next.Load()
	}
}

// Lines returns a snapshot of all stored lines.
func (s *OutputStorage) Lines() []lib.OutputLine {
	out := make([]lib.OutputLine, 0, s.Len())
	s.ForEach(func(l lib.OutputLine) bool {
		out = append(out, l)
		return true
	})
	return out
}

// String joins all stored lines with newlines, stderr lines included.
func (s *OutputStorage) String() string {
	var b strings.Builder
	s.ForEach(func(l lib.OutputLine) bool {
		b.WriteString(l.Text)
		b.WriteByte('\n')
		return true
	})
	return b.String()
}
