package daemon

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/eliteGoblin/focusd/app_block/internal/infra"
)

// StartDaemon spawns the monitor daemon from the installed binary,
// falling back to the running executable when it is not installed.
func StartDaemon(configPath string) error {
	executable := infra.DetectExecMode().BinaryPath
	if _, err := os.Stat(executable); err != nil {
		executable, err = os.Executable()
		if err != nil {
			return err
		}
	}
	return StartDaemonWithPath(executable, configPath)
}

// StartDaemonWithPath spawns `<executable> daemon`, detached from the
// calling terminal.
func StartDaemonWithPath(executable, configPath string) error {
	cmd := exec.Command(executable, DaemonArgs(configPath)...)

	// New session: survives the CLI exiting and the terminal closing.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// DaemonArgs is the argv (after the executable) of the daemon process.
func DaemonArgs(configPath string) []string {
	args := []string{"daemon"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	return args
}
