package runner

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/logging"
)

// WaitForExit blocks until h has an outcome, polling at the runner's poll interval.
// If h was cancelled and the tree is still alive after the kill grace period,
// Cancelled is returned anyway while the runner stays busy until the child is reaped.
// ctx expiry returns ctx.Err() and leaves the run alone.
func (runner *Runner) WaitForExit(ctx context.Context, h *RunHandle) (lib.RunOutcome, error) {
	if h == nil {
		return lib.RunOutcome{}, errors.Wrap(lib.ErrInvalidRequest, "nil run handle")
	}

	ticker := time.NewTicker(runner.pollInterval)
	defer ticker.Stop()

	for {
		if outcome, ok := h.Outcome(); ok {
			return outcome, nil
		}
		if d := h.cancelledFor(time.Now()); d >= runner.killGrace {
			runner.logger.Warnw("Process tree still alive after kill",
				logging.FieldRunID, lib.ShortID(h.id),
				logging.FieldPID, h.pid,
				logging.FieldDurationMS, d.Milliseconds())
			return lib.Cancelled(), nil
		}

		select {
		case <-h.done:
		case <-ticker.C:
		case <-ctx.Done():
			return lib.RunOutcome{}, ctx.Err()
		}
	}
}
