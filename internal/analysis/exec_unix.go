//go:build unix

package analysis

import (
	"os/exec"
	"syscall"
)

// detachProcessGroup puts the child in its own process group so a
// timeout or cancel can kill the whole subtree as a unit.
func detachProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup signals the child's entire process group. Falls back
// to killing the direct child if the group signal fails.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
}
