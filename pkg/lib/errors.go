package lib

import (
	"github.com/cockroachdb/errors"
)

// Sentinel errors shared by the runner, scheduler, signal and control packages.
// Wrap them with errors.Wrap or attach them with errors.Mark; check with errors.Is.
var (
	// ErrInvalidRequest indicates the run request is malformed (e.g. no executable).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidScript indicates the script path is missing or not a regular file.
	ErrInvalidScript = errors.New("invalid script")

	// ErrAlreadyRunning rejects a Start while another run is active.
	ErrAlreadyRunning = errors.New("a run is already active")

	// ErrSpawnFailure indicates the OS could not create the child process.
	ErrSpawnFailure = errors.New("failed to spawn process")

	// ErrNotRunning indicates an operation needs an active run.
	ErrNotRunning = errors.New("no run is active")

	// ErrSignalWrite indicates the continue-signal file could not be written.
	ErrSignalWrite = errors.New("failed to write continue signal")

	// ErrNotFound indicates the requested run is unknown.
	ErrNotFound = errors.New("not found")

	// ErrScheduleActive rejects enabling a schedule while one exists.
	ErrScheduleActive = errors.New("schedule already enabled")

	// ErrNoSchedule indicates no schedule is enabled.
	ErrNoSchedule = errors.New("no schedule enabled")
)
