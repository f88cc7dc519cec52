package output_storage

import (
	"bytes"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
)

// MaxLineBytes caps a buffered line. Output that runs longer without a newline,
// such as a "\r" progress bar, is emitted in chunks of at most this size.
const MaxLineBytes = 64 << 10

// LineWriter is an io.Writer that splits a byte stream into lines tagged with a stream.
// Trailing "\r" is stripped so CRLF output from Windows scripts reads the same.
// Invalid UTF-8 is replaced; decoding happens upstream when a decoder is stacked on top.
type LineWriter struct {
	mu     sync.Mutex
	stream lib.Stream
	emit   func(lib.OutputLine)
	buf    []byte
	max    int
}

func NewLineWriter(stream lib.Stream, emit func(lib.OutputLine)) *LineWriter {
	return &LineWriter{stream: stream, emit: emit, max: MaxLineBytes}
}

// Write implements io.Writer. Complete lines are emitted immediately; a partial
// line is kept until its newline arrives or Flush is called.
func (w *LineWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emitLineLocked(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	for len(w.buf) > w.max {
		n := chunkEnd(w.buf, w.max)
		w.emitLocked(w.buf[:n])
		w.buf = w.buf[n:]
	}
	if len(w.buf) == 0 {
		w.buf = nil
	}
	return len(p), nil
}

// Flush emits any buffered partial line.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.emitLineLocked(w.buf)
	}
	w.buf = nil
}

// chunkEnd returns a cut point of at most limit bytes that does not split a rune.
func chunkEnd(buf []byte, limit int) int {
	for n := limit; n > limit-utf8.UTFMax && n > 0; n-- {
		if utf8.RuneStart(buf[n]) {
			return n
		}
	}
	return limit
}

func (w *LineWriter) emitLineLocked(line []byte) {
	for len(line) > w.max {
		n := chunkEnd(line, w.max)
		w.emitLocked(line[:n])
		line = line[n:]
	}
	w.emitLocked(line)
}

func (w *LineWriter) emitLocked(raw []byte) {
	raw = bytes.TrimSuffix(raw, []byte{'\r'})
	w.emit(lib.OutputLine{
		Stream: w.stream,
		Text:   strings.ToValidUTF8(string(raw), "�"),
		Time:   time.Now(),
	})
}
