package output_storage

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// Broadcaster fans a stream of values out to subscribers. Sends never block:
// a subscriber whose buffer is full loses its oldest pending value.
type Broadcaster[T any] struct {
	messageReceiver chan T
	mu              sync.Mutex
	subscribers     map[chan T]struct{}
	stopped         bool
	stopOnce        sync.Once
}

func RunNewBroadcaster[T any]() *Broadcaster[T] {
	broadcaster := &Broadcaster[T]{
		messageReceiver: make(chan T, 1),
		subscribers:     make(map[chan T]struct{}),
	}

	go broadcaster.start()

	return broadcaster
}

func (broadcaster *Broadcaster[T]) start() {
	for msg := range broadcaster.messageReceiver {
		// Fan out under the lock so Unsubscribe cannot close a channel mid-send.
		broadcaster.mu.Lock()
		for s := range broadcaster.subscribers {
			select {
			case s <- msg:
			default:
				// channel is full, drop the oldest message
				select {
				case <-s:
				default:
				}
				select {
				case s <- msg:
				default:
				}
			}
		}
		broadcaster.mu.Unlock()
	}

	broadcaster.mu.Lock()
	for subscriberSender := range broadcaster.subscribers {
		close(subscriberSender)
	}
	broadcaster.stopped = true
	broadcaster.mu.Unlock()
}

// Stop closes every subscriber channel once pending messages are delivered.
// Publish must not be called after Stop.
func (broadcaster *Broadcaster[T]) Stop() {
	broadcaster.stopOnce.Do(func() {
		close(broadcaster.messageReceiver)
	})
}

func (broadcaster *Broadcaster[T]) Subscribe() (chan T, error) {
	// Use a buffer of 1 so we can drop stale notifications without blocking.
	ch := make(chan T, 1)
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if broadcaster.stopped {
		return nil, errors.New("failed to subscribe: broadcaster is stopped")
	}
	broadcaster.subscribers[ch] = struct{}{}
	return ch, nil
}

func (broadcaster *Broadcaster[T]) Unsubscribe(subscriberSender chan T) {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if _, ok := broadcaster.subscribers[subscriberSender]; !ok {
		return
	}
	delete(broadcaster.subscribers, subscriberSender)
	if !broadcaster.stopped {
		close(subscriberSender)
	}
}

func (broadcaster *Broadcaster[T]) Publish(msg T) {
	select {
	case broadcaster.messageReceiver <- msg:
	default:
		// channel is full, drop the first message
		select {
		case <-broadcaster.messageReceiver:
		default:
		}
		select {
		case broadcaster.messageReceiver <- msg:
		default:
		}
	}
}
