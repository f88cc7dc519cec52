package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
)

func TestPrintStatusTable(t *testing.T) {
	var buf bytes.Buffer
	printStatusTable(&buf, []*apiv1.StatusResponse{
		{
			ProcessIdentifier: "3f2c7a9e-0000-4000-8000-000000000001",
			Process:           &apiv1.Process{Command: "python", Args: []string{"main.py", "--password", "hunter2"}},
			Status: &apiv1.ProcessStatus{
				State:   apiv1.ProcessState_PROCESS_STATE_STOPPED,
				Outcome: &apiv1.Outcome{Kind: apiv1.OutcomeKind_OUTCOME_CANCELLED, Message: "cancelled by user"},
			},
		},
		{
			ProcessIdentifier: "3f2c7a9e-0000-4000-8000-000000000002",
			Process:           &apiv1.Process{Command: "sh"},
			Status:            &apiv1.ProcessStatus{State: apiv1.ProcessState_PROCESS_STATE_RUNNING},
		},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	for _, l := range lines {
		assert.Len(t, l, len(lines[0]), "every row has the same width")
	}
	assert.Contains(t, lines[1], "OUTCOME")
	assert.Contains(t, lines[3], "cancelled by user")
	assert.Contains(t, lines[3], "python main.py --password REDACTED")
	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, lines[4], "Running")
	assert.Contains(t, lines[4], "running")
}

func TestPrintSchedule(t *testing.T) {
	var buf bytes.Buffer
	printSchedule(&buf, nil)
	assert.Equal(t, "No schedule enabled\n", buf.String())

	buf.Reset()
	printSchedule(&buf, &apiv1.Schedule{
		NextRun:         time.Date(2026, 10, 19, 7, 15, 0, 0, time.Local),
		IntervalSeconds: 86400,
		Runs:            2,
		Skipped:         1,
		Request:         &apiv1.RunRequest{Executable: "python", Script: "main.py"},
	})
	out := buf.String()
	assert.Contains(t, out, "2026-10-19 07:15:00")
	assert.Contains(t, out, "24h0m0s")
	assert.Contains(t, out, "Skipped:   1")
	assert.Contains(t, out, "python main.py")
}
