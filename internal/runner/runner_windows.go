//go:build windows

package runner

import (
	"os/exec"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const stopTimeout = 5 * time.Second

func shellCommand(command string) *exec.Cmd {
	return exec.Command("cmd", "/C", command)
}

// Start starts the child process.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmd := r.newCmd()
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "starting %q", r.command)
	}
	r.log.Info("command started", zap.String("command", r.command), zap.Int("pid", cmd.Process.Pid))

	r.cmd = cmd
	r.done = make(chan struct{})
	go r.wait(cmd, r.done)
	return nil
}

// Stop kills the child process. Windows has no SIGTERM or process groups.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd == nil || r.cmd.Process == nil {
		return nil
	}
	select {
	case <-r.done:
		return nil
	default:
	}

	_ = r.cmd.Process.Kill()
	select {
	case <-r.done:
	case <-time.After(stopTimeout):
		<-r.done
	}
	return nil
}
