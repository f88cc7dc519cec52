//go:build linux

package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/cockroachdb/errors"
)

const (
	cgroupRoot = "/sys/fs/cgroup/prn"
	// memoryHigh throttles a run (browser engines included) above 512 MiB.
	memoryHigh = int64(512) * 1024 * 1024
)

var (
	cgroupInitOnce sync.Once
	cgroupInitErr  error
)

// initCgroups initializes the cgroup root shared by all runs.
// It is safe to call multiple times; real work happens only once.
// As non-root, this is a no-op.
func initCgroups() error {
	cgroupInitOnce.Do(func() {
		cgroupInitErr = initCgroupsImpl()
	})
	return cgroupInitErr
}

func initCgroupsImpl() error {
	if os.Geteuid() != 0 {
		// Not running as root; don't attempt to create/modify cgroups
		return nil
	}

	if err := os.MkdirAll(cgroupRoot, 0755); err != nil {
		return errors.Wrap(err, "create cgroup root")
	}

	// Determine which controllers are available and already enabled on this cgroup
	available, err := readControllerSet(filepath.Join(cgroupRoot, "cgroup.controllers"))
	if err != nil {
		return err
	}
	enabled, err := readControllerSet(filepath.Join(cgroupRoot, "cgroup.subtree_control"))
	if err != nil {
		return err
	}

	desired := []string{"cpu", "io", "memory"}
	var toAdd []string
	for _, ctrl := range desired {
		if available[ctrl] && !enabled[ctrl] {
			toAdd = append(toAdd, "+"+ctrl)
		}
	}
	if len(toAdd) > 0 {
		if err := writeString(filepath.Join(cgroupRoot, "cgroup.subtree_control"), strings.Join(toAdd, " ")); err != nil {
			return errors.Wrap(err, "enable cgroup controllers")
		}
	}
	return nil
}

func readControllerSet(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool)
	fields := strings.Fields(string(data))
	for _, f := range fields {
		// Entries in these files are names like "cpu", "io", "memory"
		// subtree_control may present names without "+" prefix when read
		f = strings.TrimPrefix(f, "+")
		set[f] = true
	}
	return set, nil
}

// GetSysProcAttr puts the child in its own process group. As root the child is
// additionally spawned straight into a per-run cgroup so the whole tree can be
// killed with one write to cgroup.kill. Without a writable cgroup v2 hierarchy
// the process group alone is used.
func GetSysProcAttr(id string) (*SysProcAttr, error) {
	groupOnly := &SysProcAttr{
		Raw: &syscall.SysProcAttr{
			Setpgid: true,
		},
	}
	if os.Geteuid() != 0 {
		return groupOnly, nil
	}

	if err := initCgroups(); err != nil {
		return groupOnly, nil
	}

	cgPath, err := setupCgroupFor(id)
	if err != nil {
		_ = CleanupCgroup(id)
		return groupOnly, nil
	}

	cGroupFile, err := os.Open(cgPath)
	if err != nil {
		return nil, errors.Wrap(err, "open cgroup")
	}

	return &SysProcAttr{
		File: cGroupFile,
		Raw: &syscall.SysProcAttr{
			Setpgid:     true,
			UseCgroupFD: true,
			CgroupFD:    int(cGroupFile.Fd()),
		},
	}, nil
}

// KillCgroup kills every process in the run's cgroup. It reports false when the
// run has no cgroup.
func KillCgroup(id string) (bool, error) {
	cgDir := filepath.Join(cgroupRoot, id)
	if _, err := os.Stat(cgDir); err != nil {
		return false, nil
	}
	if err := writeString(filepath.Join(cgDir, "cgroup.kill"), "1"); err != nil {
		return false, errors.Wrapf(err, "kill cgroup %s", id)
	}
	return true, nil
}

// CleanupCgroup removes the run's cgroup once it is empty.
func CleanupCgroup(id string) error {
	cgDir := filepath.Join(cgroupRoot, id)
	if err := os.Remove(cgDir); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove cgroup %s", id)
	}
	return nil
}

func setupCgroupFor(processId string) (string, error) {
	processRoot := filepath.Join(cgroupRoot, processId)
	if err := os.MkdirAll(processRoot, 0755); err != nil {
		return "", errors.Wrap(err, "create run cgroup")
	}

	// Only write controller-specific files if controllers are enabled
	limits := []struct {
		controller, file, value string
	}{
		{"cpu", "cpu.weight", "100"},
		{"io", "io.weight", "100"},
		{"memory", "memory.high", fmt.Sprint(memoryHigh)},
	}
	for _, l := range limits {
		if !controllerEnabled(cgroupRoot, l.controller) {
			continue
		}
		if err := writeString(filepath.Join(processRoot, l.file), l.value); err != nil {
			return "", errors.Wrapf(err, "set %s", l.file)
		}
	}

	return processRoot, nil
}

func controllerEnabled(cgPath, controller string) bool {
	enabled, err := readControllerSet(filepath.Join(cgPath, "cgroup.subtree_control"))
	if err != nil {
		return false
	}
	return enabled[controller]
}

func writeString(path, val string) error {
	return os.WriteFile(path, []byte(val), 0644)
}
