package tracer

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// Launch implements the LauncherProtocol (module F): fork the target
// program with ptrace-on-exec requested, wait for it to reach its initial
// stop, and return the attached, stopped pid ready for Loop.Run.
//
// Go's os/exec, given SysProcAttr.Ptrace, has the forked child issue
// PTRACE_TRACEME before calling execve — the kernel then delivers SIGTRAP
// to the child the moment that execve succeeds, which is exactly the stop
// this function waits for. That first SIGTRAP is consumed here, before
// Loop.Run enables exec events, so the loop never sees the exec that
// loaded the target as an exec event.
//
// The caller must hold runtime.LockOSThread for the combined lifetime of
// Launch and the Loop.Run that follows it: ptrace state is per-thread, and
// every ptrace call against this tracee must originate from the thread
// that attached it.
func Launch(name string, args []string) (*exec.Cmd, int, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true}

	if err := cmd.Start(); err != nil {
		return nil, 0, fmt.Errorf("starting %q: %w", name, err)
	}

	pid := cmd.Process.Pid

	var ws syscall.WaitStatus
	if _, err := syscall.Wait4(pid, &ws, 0, nil); err != nil {
		return nil, 0, fmt.Errorf("waiting for initial stop of %q: %w", name, err)
	}
	if !ws.Stopped() {
		return nil, 0, fmt.Errorf("launching %q: child did not stop as expected (status %v)", name, ws)
	}

	return cmd, pid, nil
}
