//go:build windows

package cleaner

import "os/exec"

func prepareCommand(cmd *exec.Cmd) {}

func killCommand(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
