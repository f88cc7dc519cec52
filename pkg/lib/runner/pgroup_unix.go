//go:build unix

package runner

import (
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// killProcessGroup sends SIGKILL to the group led by pid.
func killProcessGroup(pid int) error {
	err := unix.Kill(-pid, unix.SIGKILL)
	if err != nil && !errors.Is(err, unix.ESRCH) {
		return errors.Wrapf(err, "kill process group %d", pid)
	}
	return nil
}

// exitedOnItsOwn is false for a child ended by a signal, which includes every tree kill.
func exitedOnItsOwn(ps *os.ProcessState) bool {
	return ps.Exited()
}
