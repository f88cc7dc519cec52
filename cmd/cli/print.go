package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
	"github.com/SanjoDeundiak/script-runner/pkg/lib"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/profile"
)

func stateText(st *apiv1.ProcessStatus) string {
	if st == nil {
		return ""
	}
	switch st.GetState() {
	case apiv1.ProcessState_PROCESS_STATE_RUNNING:
		return "Running"
	case apiv1.ProcessState_PROCESS_STATE_STOPPED:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// outcomeText is the final status line, e.g. "completed with exit code 3".
func outcomeText(st *apiv1.ProcessStatus) string {
	if o := st.GetOutcome(); o != nil {
		return o.Message
	}
	if st.GetState() == apiv1.ProcessState_PROCESS_STATE_RUNNING {
		return "running"
	}
	return ""
}

func commandText(p *apiv1.Process) string {
	if p == nil {
		return ""
	}
	return profile.Display(lib.RunRequest{Executable: p.GetCommand(), Args: p.GetArgs()})
}

func printStatusTable(w io.Writer, rows []*apiv1.StatusResponse) {
	headers := []string{"ID", "STATE", "OUTCOME", "COMMAND"}
	widths := []int{36, len(headers[1]), len(headers[2]), len(headers[3])}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		row := []string{r.ProcessIdentifier, stateText(r.GetStatus()), outcomeText(r.GetStatus()), commandText(r.GetProcess())}
		for i, c := range row {
			widths[i] = max(widths[i], len(c))
		}
		cells = append(cells, row)
	}

	sepParts := make([]string, len(widths))
	for i, wd := range widths {
		sepParts[i] = strings.Repeat("-", wd)
	}
	sep := "+-" + strings.Join(sepParts, "-+-") + "-+\n"

	printRow := func(row []string) {
		padded := make([]string, len(row))
		for i, c := range row {
			padded[i] = pad(c, widths[i])
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(padded, " | "))
	}

	fmt.Fprint(w, sep)
	printRow(headers)
	fmt.Fprint(w, sep)
	for _, row := range cells {
		printRow(row)
	}
	if len(cells) > 0 {
		fmt.Fprint(w, sep)
	}
}

func printSchedule(w io.Writer, s *apiv1.Schedule) {
	if s == nil {
		fmt.Fprintln(w, "No schedule enabled")
		return
	}
	interval := time.Duration(s.IntervalSeconds) * time.Second
	fmt.Fprintf(w, "Next run:  %s\n", s.NextRun.Local().Format(time.DateTime))
	fmt.Fprintf(w, "Interval:  %s\n", interval)
	fmt.Fprintf(w, "Runs:      %d\n", s.Runs)
	fmt.Fprintf(w, "Skipped:   %d\n", s.Skipped)
	if r := s.Request; r != nil {
		fmt.Fprintf(w, "Command:   %s\n", profile.Display(lib.RunRequest{
			Executable: r.Executable,
			Script:     r.Script,
			Args:       r.Args,
		}))
	}
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
