//go:build !windows

package runner

import (
	"os/exec"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// stopTimeout is how long a child gets after SIGTERM before SIGKILL.
const stopTimeout = 5 * time.Second

func shellCommand(command string) *exec.Cmd {
	return exec.Command("/bin/sh", "-c", command)
}

// Start starts the child process.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmd := r.newCmd()
	// Own process group so the whole pipeline can be signalled.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "starting %q", r.command)
	}
	r.log.Info("command started", zap.String("command", r.command), zap.Int("pid", cmd.Process.Pid))

	r.cmd = cmd
	r.done = make(chan struct{})
	go r.wait(cmd, r.done)
	return nil
}

// Stop terminates the child's process group, escalating to SIGKILL after
// stopTimeout.
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

	pgid, err := syscall.Getpgid(r.cmd.Process.Pid)
	if err == nil {
		_ = syscall.Kill(-pgid, syscall.SIGTERM)
	} else {
		_ = r.cmd.Process.Signal(syscall.SIGTERM)
	}

	select {
	case <-r.done:
	case <-time.After(stopTimeout):
		r.log.Warn("command ignored SIGTERM; killing", zap.String("command", r.command))
		if err == nil {
			_ = syscall.Kill(-pgid, syscall.SIGKILL)
		} else {
			_ = r.cmd.Process.Kill()
		}
		<-r.done
	}
	return nil
}
