// Package runner manages the follow-up command `svdts watch --exec` starts
// after each successful rebuild, e.g. a type check over the rewritten
// declarations.
package runner

import (
	"io"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"
)

// Runner owns at most one child process at a time.
type Runner struct {
	command string
	workDir string
	log     *zap.Logger

	// Stdout and Stderr receive the child's output. They default to the
	// parent's streams.
	Stdout io.Writer
	Stderr io.Writer

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
}

// New creates a runner for a shell command line. log may be nil.
func New(command, workDir string, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		command: command,
		workDir: workDir,
		log:     log.Named("exec"),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Command returns the command line the runner executes.
func (r *Runner) Command() string {
	return r.command
}

func (r *Runner) newCmd() *exec.Cmd {
	cmd := shellCommand(r.command)
	if r.workDir != "" {
		cmd.Dir = r.workDir
	}
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd
}

// wait reaps cmd and logs how it ended.
func (r *Runner) wait(cmd *exec.Cmd, done chan struct{}) {
	err := cmd.Wait()
	if err != nil {
		r.log.Debug("command exited", zap.String("command", r.command), zap.Error(err))
	} else {
		r.log.Debug("command finished", zap.String("command", r.command))
	}
	close(done)
}

// Restart stops a still-running previous invocation and starts a new one.
func (r *Runner) Restart() error {
	if err := r.Stop(); err != nil {
		return err
	}
	return r.Start()
}

// Wait blocks until the current child process exits.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Running reports whether the child process has been started and not yet
// exited.
func (r *Runner) Running() bool {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
