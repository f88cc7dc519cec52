package runner

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"testing"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/require"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("Skipping: needs a POSIX shell")
	}
}

func shRequest(script string) lib.RunRequest {
	return lib.RunRequest{Executable: "sh", Args: []string{"-c", script}}
}

// writeScript writes body to a shell script in a temp dir and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

type collector struct {
	mu    sync.Mutex
	lines []lib.OutputLine
}

func (c *collector) sink(line lib.OutputLine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

func (c *collector) texts(stream lib.Stream) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, l := range c.lines {
		if l.Stream == stream {
			out = append(out, l.Text)
		}
	}
	return out
}

// alive reports whether pid is a live, non-zombie process.
func alive(pid int) bool {
	exists, err := process.PidExists(int32(pid))
	if err != nil || !exists {
		return false
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	status, err := p.Status()
	if err != nil {
		return false
	}
	return !slices.Contains(status, process.Zombie)
}
