// Package signal implements the continue handshake with a running child: a
// sentinel file at an agreed path that the child polls for and deletes.
package signal

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/logging"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/metrics"
)

const (
	DefaultFileName = "continue.txt"
	DefaultSentinel = "go"
	DefaultTTL      = 2 * time.Second
)

// RunState tells the signaler whether a child is there to consume a signal.
type RunState interface {
	Busy() bool
}

// Signaler writes and expires continue signals.
type Signaler struct {
	path     string
	sentinel string
	ttl      time.Duration
	runs     RunState
	logger   *zap.SugaredLogger
	metrics  *metrics.Collector

	watcher *fsnotify.Watcher

	mu         sync.Mutex
	written    os.FileInfo // the pending file we created, nil if none
	expiry     *time.Timer
	generation uint64
	closed     bool
}

type Option func(*Signaler)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Signaler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(s *Signaler) { s.metrics = c }
}

// WithTTL sets how long an unconsumed signal stays on disk.
func WithTTL(ttl time.Duration) Option {
	return func(s *Signaler) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithSentinel(sentinel string) Option {
	return func(s *Signaler) {
		if sentinel != "" {
			s.sentinel = sentinel
		}
	}
}

// New creates a signaler for path. The directory of path is watched so a
// consumed signal cancels its expiry; without a watch the expiry alone applies.
func New(path string, runs RunState, opts ...Option) (*Signaler, error) {
	if runs == nil {
		return nil, errors.New("run state is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}

	s := &Signaler{
		path:     abs,
		sentinel: DefaultSentinel,
		ttl:      DefaultTTL,
		runs:     runs,
		logger:   logging.ComponentLogger("signal"),
	}
	for _, opt := range opts {
		opt(s)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warnw("Signal consumption watch unavailable", logging.FieldError, err)
		return s, nil
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		s.logger.Warnw("Signal consumption watch unavailable",
			logging.FieldPath, filepath.Dir(abs),
			logging.FieldError, err)
		return s, nil
	}
	s.watcher = watcher
	go s.watchLoop()

	return s, nil
}

func (s *Signaler) Path() string { return s.path }

// Pending reports whether a signal file is present.
func (s *Signaler) Pending() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Send writes the continue signal. With no active run it removes a stale
// signal instead and returns lib.ErrNotRunning. A signal that is already
// pending is left in place and its expiry restarts. Write failures are marked
// lib.ErrSignalWrite.
func (s *Signaler) Send(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.runs.Busy() {
		s.Clear()
		s.metrics.ContinueSignal("not_running")
		return errors.Wrap(lib.ErrNotRunning, "continue signal not sent")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.Mark(errors.New("signaler closed"), lib.ErrSignalWrite)
	}

	err := s.create()
	switch {
	case err == nil:
		s.metrics.ContinueSignal("sent")
		s.logger.Infow("Continue signal sent", logging.FieldPath, s.path)
	case errors.Is(err, fs.ErrExist):
		s.metrics.ContinueSignal("pending")
		s.logger.Debugw("Continue signal already pending", logging.FieldPath, s.path)
	default:
		s.metrics.ContinueSignal("write_failed")
		s.logger.Warnw("Continue signal write failed", logging.FieldPath, s.path, logging.FieldError, err)
		return errors.Mark(errors.Wrapf(err, "write %s", s.path), lib.ErrSignalWrite)
	}

	info, err := os.Stat(s.path)
	if err != nil {
		// consumed in between
		s.written = nil
		return nil
	}
	s.written = info
	s.armLocked()
	return nil
}

// create writes the sentinel to a temp file and links it into place, so the
// child never sees a partial file and an existing one is never replaced.
func (s *Signaler) create() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".continue-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(s.sentinel); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Link(tmpName, s.path)
}

func (s *Signaler) armLocked() {
	if s.expiry != nil {
		s.expiry.Stop()
	}
	s.generation++
	gen := s.generation
	s.expiry = time.AfterFunc(s.ttl, func() { s.expire(gen) })
}

func (s *Signaler) disarmLocked() {
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
	s.generation++
	s.written = nil
}

// expire removes the signal if it is still the file this signaler wrote.
func (s *Signaler) expire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.written == nil {
		return
	}
	if s.removeOwnLocked() {
		s.metrics.ContinueSignal("expired")
		s.logger.Infow("Continue signal expired unconsumed", logging.FieldPath, s.path)
	}
	s.disarmLocked()
}

// ownLocked reports whether the file at path is the one this signaler wrote.
// Size and mtime guard against a recycled inode.
func (s *Signaler) ownLocked() bool {
	if s.written == nil {
		return false
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return false
	}
	return os.SameFile(info, s.written) &&
		info.Size() == s.written.Size() &&
		info.ModTime().Equal(s.written.ModTime())
}

func (s *Signaler) removeOwnLocked() bool {
	return s.ownLocked() && os.Remove(s.path) == nil
}

// Clear removes any signal file, ours or stale, and stops its expiry.
func (s *Signaler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()

	err := os.Remove(s.path)
	switch {
	case err == nil:
		s.logger.Infow("Removed stale continue signal", logging.FieldPath, s.path)
	case !errors.Is(err, fs.ErrNotExist):
		s.logger.Warnw("Failed to remove continue signal", logging.FieldPath, s.path, logging.FieldError, err)
	}
}

func (s *Signaler) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				s.consumed()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warnw("Signal watcher error", logging.FieldError, err)
		}
	}
}

func (s *Signaler) consumed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.written == nil || s.ownLocked() {
		return
	}
	s.disarmLocked()
	s.metrics.ContinueSignal("consumed")
	s.logger.Infow("Continue signal consumed", logging.FieldPath, s.path)
}

// Close stops pending expiries and removes a signal this signaler wrote that
// was never consumed.
func (s *Signaler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.removeOwnLocked()
	s.disarmLocked()
	s.mu.Unlock()

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
