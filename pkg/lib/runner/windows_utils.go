//go:build windows

package runner

import (
	"os"
	"syscall"

	"golang.org/x/sys/windows"
)

// GetSysProcAttr detaches the child from the daemon's console so console
// control events aimed at the daemon do not reach it.
func GetSysProcAttr(id string) (*SysProcAttr, error) {
	return &SysProcAttr{
		Raw: &syscall.SysProcAttr{
			HideWindow:    true,
			CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.CREATE_NO_WINDOW,
		}}, nil
}

func KillCgroup(id string) (bool, error) {
	return false, nil
}

func CleanupCgroup(id string) error {
	return nil
}

// killProcessGroup is a no-op; the tree is killed through the process table walk.
func killProcessGroup(pid int) error {
	return nil
}

// exitedOnItsOwn cannot tell a killed child from one that exited: TerminateProcess
// leaves an ordinary exit code. The cancel flag decides instead.
func exitedOnItsOwn(ps *os.ProcessState) bool {
	return false
}
