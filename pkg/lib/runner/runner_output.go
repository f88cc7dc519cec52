package runner

import (
	"context"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/logging"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/output_storage"
)

const lineBuffer = 256

// pipeline turns the child's two byte streams into lines and hands them to a
// single dispatcher goroutine, which stores them and calls the sink.
type pipeline struct {
	h          *RunHandle
	runner     *Runner
	sink       Sink
	lines      chan lib.OutputLine
	dispatched chan struct{}
	writers    [2]*output_storage.LineWriter
	decoders   [2]io.WriteCloser
}

func (runner *Runner) newPipeline(h *RunHandle, sink Sink) *pipeline {
	p := &pipeline{
		h:          h,
		runner:     runner,
		sink:       sink,
		lines:      make(chan lib.OutputLine, lineBuffer),
		dispatched: make(chan struct{}),
	}
	emit := func(line lib.OutputLine) { p.lines <- line }
	for i, stream := range []lib.Stream{lib.StreamStdout, lib.StreamStderr} {
		p.writers[i] = output_storage.NewLineWriter(stream, emit)
		// Invalid sequences become U+FFFD; a leading BOM is dropped.
		p.decoders[i] = transform.NewWriter(p.writers[i], unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	}
	return p
}

func (p *pipeline) stdout() io.Writer { return p.decoders[0] }

func (p *pipeline) stderr() io.Writer { return p.decoders[1] }

func (p *pipeline) run() {
	go func() {
		defer close(p.dispatched)
		for line := range p.lines {
			p.h.output.Append(line)
			p.runner.metrics.OutputLine(line.Stream.String())
			p.deliver(line)
		}
	}()
}

func (p *pipeline) deliver(line lib.OutputLine) {
	if p.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.runner.logger.Errorw("Output sink panicked",
				logging.FieldRunID, lib.ShortID(p.h.id),
				"panic", r)
		}
	}()
	p.sink(line)
}

// close flushes partial lines and waits until the dispatcher delivered everything.
// Must be called after cmd.Wait returned, when no copy goroutine writes anymore.
func (p *pipeline) close() {
	for i := range p.decoders {
		_ = p.decoders[i].Close()
		p.writers[i].Flush()
	}
	close(p.lines)
	<-p.dispatched
}

// Output subscribes to the output of the active run or a remembered one.
func (runner *Runner) Output(ctx context.Context, id string) (<-chan lib.OutputLine, error) {
	h, err := runner.getProcess(id)
	if err != nil {
		return nil, err
	}

	runner.logger.Debugw("Subscribing to output", logging.FieldRunID, lib.ShortID(id))
	return h.Output(ctx), nil
}
