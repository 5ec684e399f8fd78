//go:build !windows

package runner

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a buffer written by the child's copy goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunner_StartStop(t *testing.T) {
	r := New("sleep 10", "", nil)
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !r.Running() {
		t.Error("expected process to be running")
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if r.Running() {
		t.Error("expected process to be stopped")
	}
}

func TestRunner_Restart(t *testing.T) {
	r := New("sleep 10", "", nil)
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := r.Restart(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if !r.Running() {
		t.Error("expected process to be running after restart")
	}
	r.Stop()
}

func TestRunner_StopWithoutStart(t *testing.T) {
	r := New("echo hello", "", nil)
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop without start should not error: %v", err)
	}
	if r.Running() {
		t.Error("never-started runner reported running")
	}
}

func TestRunner_ShellOutput(t *testing.T) {
	var out syncBuffer
	r := New("echo one && echo two", t.TempDir(), nil)
	r.Stdout = &out
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		r.Stop()
		t.Fatal("Wait timed out")
	}
	if got := out.String(); got != "one\ntwo\n" {
		t.Errorf("unexpected output %q", got)
	}
	if r.Running() {
		t.Error("expected process to not be running after exit")
	}
	// Stopping an exited command is a no-op.
	if err := r.Stop(); err != nil {
		t.Errorf("Stop after exit: %v", err)
	}
}

func TestRunner_Command(t *testing.T) {
	if got := New("svelte-check", "", nil).Command(); got != "svelte-check" {
		t.Errorf("Command() = %q", got)
	}
}
