//go:build !windows

package procexec

import (
	"os/exec"
	"syscall"
)

// detachProcessGroup starts the child in its own process group. Terminal
// interrupts then reach only soundunpack, and shutdown decides which tools stop.
func detachProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
