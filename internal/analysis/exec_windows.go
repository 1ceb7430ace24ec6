//go:build windows

package analysis

import "os/exec"

// detachProcessGroup is a no-op on Windows; process groups are a POSIX
// concept. Child processes of the agent may outlive a kill here.
func detachProcessGroup(cmd *exec.Cmd) {}

// killProcessGroup kills the direct child only.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
