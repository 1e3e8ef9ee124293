package tracer

import (
	"fmt"
	"syscall"
)

// terminator kills a tracee and reports the reason through the tracer's
// diagnostic channel (module G). SIGKILL is unblockable and, delivered by
// kill(2) directly (not through a ptrace resume), takes effect even while
// the tracee is ptrace-stopped — the next wait in TracerLoop observes it
// as a normal termination-by-signal and removes the tracee from
// TracerState like any other exit.
type terminator struct {
	logger Logger
}

// kill delivers SIGKILL to pid and logs reason. If the kill primitive
// itself fails, that is a tracer infrastructure failure and is returned
// rather than swallowed.
func (t *terminator) kill(pid int, syscallName, reason string) error {
	if t.logger != nil {
		t.logger.LogDecision(pid, syscallName, false, reason)
	}
	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil {
		return fmt.Errorf("killing tracee %d: %w", pid, err)
	}
	return nil
}
