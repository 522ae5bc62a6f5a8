//go:build windows

package command

import "os/exec"

// setupProcessGroup keeps the exec default on Windows: cancellation kills
// the direct child only.
func setupProcessGroup(_ *exec.Cmd) {}
