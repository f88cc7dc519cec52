package output_storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
)

func collect() (*[]lib.OutputLine, func(lib.OutputLine)) {
	var lines []lib.OutputLine
	return &lines, func(l lib.OutputLine) { lines = append(lines, l) }
}

func TestLineWriter_SplitsAcrossWrites(t *testing.T) {
	lines, emit := collect()
	w := NewLineWriter(lib.StreamStderr, emit)

	n, err := w.Write([]byte("hel"))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, *lines)

	_, _ = w.Write([]byte("lo\r\nwor"))
	_, _ = w.Write([]byte("ld\n\n"))
	w.Flush()

	assert.Equal(t, []string{"hello", "world", ""}, texts(*lines))
	for _, l := range *lines {
		assert.Equal(t, lib.StreamStderr, l.Stream)
	}
}

func TestLineWriter_FlushEmitsPartialLine(t *testing.T) {
	lines, emit := collect()
	w := NewLineWriter(lib.StreamStdout, emit)

	_, _ = w.Write([]byte("no newline"))
	w.Flush()
	w.Flush()

	assert.Equal(t, []string{"no newline"}, texts(*lines))
}

func TestLineWriter_ReplacesInvalidUTF8(t *testing.T) {
	lines, emit := collect()
	w := NewLineWriter(lib.StreamStdout, emit)

	_, _ = w.Write([]byte{'o', 'k', 0xff, '\n'})

	assert.Equal(t, []string{"ok�"}, texts(*lines))
}

func TestLineWriter_CapsLineWithoutNewline(t *testing.T) {
	lines, emit := collect()
	w := NewLineWriter(lib.StreamStdout, emit)
	w.max = 8

	for i := 0; i < 5; i++ {
		_, _ = w.Write([]byte("10%\r20%\r"))
	}
	assert.LessOrEqual(t, len(w.buf), 8)
	_, _ = w.Write([]byte("done\n"))

	got := texts(*lines)
	for _, text := range got {
		assert.LessOrEqual(t, len(text), 8)
	}
	assert.Equal(t, "done", got[len(got)-1])
}

func TestLineWriter_ChunksKeepRunesWhole(t *testing.T) {
	lines, emit := collect()
	w := NewLineWriter(lib.StreamStdout, emit)
	w.max = 4

	_, _ = w.Write([]byte("aaaéé"))
	w.Flush()

	assert.Equal(t, []string{"aaa", "éé"}, texts(*lines))
}
