//go:build unix

package tools

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the shell as a process group leader so that
// cancellation reaches every process it spawned, not just sh.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
