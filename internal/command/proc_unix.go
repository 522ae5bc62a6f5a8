//go:build !windows

package command

import (
	"os/exec"
	"syscall"
)

// setupProcessGroup starts the command in its own process group and makes
// context cancellation kill the whole group, so helpers spawned by the tool
// (interpreters, pagers) die with it.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
}
