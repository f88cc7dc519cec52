package runner

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildEnv(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping: keys are case-insensitive on windows")
	}

	base := []string{"PATH=/bin", "LANG=C", "HOME=/root", "broken"}
	env := buildEnv(base, map[string]string{"HOME": "/tmp", "B": "2", "A": "1", "PYTHONUTF8": "0"})

	assert.Equal(t, []string{
		"PATH=/bin",
		"LANG=en_US.UTF-8",
		"HOME=/tmp",
		"A=1",
		"B=2",
		"PYTHONUTF8=1",
		"PYTHONIOENCODING=utf-8",
		"LC_ALL=en_US.UTF-8",
	}, env)
}
