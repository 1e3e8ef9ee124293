// Package tracer implements the ptrace-interposing syscall sandbox: the
// entry/exit state machine driving a traced child (and any descendants it
// is permitted to fork) through Loop, the per-syscall policy evaluation in
// the dispatcher, the cross-process string reads in memory.go, and the
// launch/kill primitives that bookend a trace.
package tracer

import (
	"fmt"
	"syscall"

	"ptraced/pkg/policy"
)

// ptraceFlags are installed together in a single PtraceSetOptions call,
// since each call to it replaces the previous option mask, so the kernel
// reports exec, clone, fork and vfork as distinct stop events in addition
// to ordinary syscall-stops.
const ptraceFlags = syscall.PTRACE_O_TRACESYSGOOD |
	syscall.PTRACE_O_TRACEFORK |
	syscall.PTRACE_O_TRACEVFORK |
	syscall.PTRACE_O_TRACECLONE |
	syscall.PTRACE_O_TRACEEXEC

// traceeProcess is the per-tracee bookkeeping the loop needs: its pid,
// its own entry/exit parity (tracked independently per tracee — sharing a
// single parity counter across tracees desyncs as soon as two of them
// interleave syscalls), and whether its initial exec waiver has already
// been consumed.
type traceeProcess struct {
	pid               int
	syscallParity     bool
	firstExecConsumed bool
	killedByPolicy    bool
	pendingEntry      *event
}

// Loop is the control-loop state machine driving a trace to completion.
// It owns the live pid → traceeProcess map exclusively; nothing outside
// the loop mutates it.
type Loop struct {
	dispatcher *dispatcher
	logger     Logger
	tracees    map[int]*traceeProcess
	rootPID    int
}

// NewLoop builds a Loop that will enforce pol (via authority) against
// every tracee it comes to own, logging trace and decision lines to
// logger (which may be nil for silent operation).
func NewLoop(pol policy.Policy, authority *policy.Authority, logger Logger) *Loop {
	return &Loop{
		dispatcher: newDispatcher(authority, pol, logger),
		logger:     logger,
		tracees:    make(map[int]*traceeProcess),
	}
}

// Result is what Run reports once every tracee has exited.
type Result struct {
	// ExitCode is the root tracee's own exit status on normal exit, a
	// synthesized 128+signal code if it died from an uncaught signal, or
	// a synthesized non-zero code if it was killed for a policy
	// violation (Killed is set in that case).
	ExitCode int
	// Killed is true if the root tracee's termination was a policy kill
	// rather than its own requested exit.
	Killed bool
}

// Run drives the control loop to completion: it installs trace options on
// the already-attached, already-stopped rootPID, resumes it, and services
// stops until every tracee it owns has exited.
func (l *Loop) Run(rootPID int) (Result, error) {
	l.rootPID = rootPID
	// Launch has already consumed the stop of the exec that loaded the
	// target, so the root's waiver is spent before the loop starts.
	l.tracees[rootPID] = &traceeProcess{pid: rootPID, firstExecConsumed: true}

	if err := syscall.PtraceSetOptions(rootPID, ptraceFlags); err != nil {
		return Result{}, fmt.Errorf("ptrace setoptions on %d: %w", rootPID, err)
	}
	if err := syscall.PtraceSyscall(rootPID, 0); err != nil {
		return Result{}, fmt.Errorf("ptrace syscall on %d: %w", rootPID, err)
	}

	var result Result

	for len(l.tracees) > 0 {
		var ws syscall.WaitStatus
		pid, err := syscall.Wait4(-1, &ws, 0, nil)
		if err != nil {
			if err == syscall.EINTR {
				continue
			}
			return result, fmt.Errorf("wait4: %w", err)
		}

		tracee, known := l.tracees[pid]
		if !known {
			// Belt-and-suspenders: the fork-event branch below always
			// inserts a child before the next resume that could surface
			// its stop, so this path is defensive rather than expected.
			tracee = &traceeProcess{pid: pid, firstExecConsumed: true}
			l.tracees[pid] = tracee
		}

		if ws.Exited() || ws.Signaled() {
			if pid == l.rootPID {
				result.ExitCode, result.Killed = exitResult(ws, tracee.killedByPolicy)
			}
			delete(l.tracees, pid)
			continue
		}

		if !ws.Stopped() {
			continue
		}

		if err := l.handleStop(tracee, ws); err != nil {
			return result, err
		}
	}

	return result, nil
}

func exitResult(ws syscall.WaitStatus, killedByPolicy bool) (code int, killed bool) {
	if killedByPolicy {
		return 128 + int(syscall.SIGKILL), true
	}
	if ws.Exited() {
		return ws.ExitStatus(), false
	}
	return 128 + int(ws.Signal()), false
}

// handleStop classifies one ptrace-stop and services it, resuming the
// tracee before returning unless it was just killed.
func (l *Loop) handleStop(tracee *traceeProcess, ws syscall.WaitStatus) error {
	pid := tracee.pid
	sig := ws.StopSignal()

	// Ordinary syscall-stop: SIGTRAP with the 0x80 tag set by
	// PTRACE_O_TRACESYSGOOD, distinguishing it from a plain SIGTRAP
	// ptrace-event stop.
	if sig == syscall.SIGTRAP|0x80 {
		return l.handleSyscallStop(tracee)
	}

	if sig == syscall.SIGTRAP {
		switch ws.TrapCause() {
		case syscall.PTRACE_EVENT_CLONE, syscall.PTRACE_EVENT_FORK, syscall.PTRACE_EVENT_VFORK:
			return l.handleForkEvent(tracee)
		case syscall.PTRACE_EVENT_EXEC:
			return l.handleExecEvent(tracee)
		}
		// A bare SIGTRAP with no recognized trap cause: resume quietly.
		return l.resume(pid, 0)
	}

	// Any other delivered signal: re-inject it so the tracee observes
	// what it would have outside ptrace. Never re-inject SIGTRAP itself.
	return l.resume(pid, int(sig))
}

// handleSyscallStop toggles this tracee's own parity, and on entry stops
// (not exit) extracts registers and hands the syscall off to the
// dispatcher.
func (l *Loop) handleSyscallStop(tracee *traceeProcess) error {
	isExit := tracee.syscallParity // first trap of each pair is entry, second is exit
	tracee.syscallParity = !tracee.syscallParity

	var raw syscall.PtraceRegs
	if err := syscall.PtraceGetRegs(tracee.pid, &raw); err != nil {
		return fmt.Errorf("ptrace getregs on %d: %w", tracee.pid, err)
	}
	r := &regs{raw: raw}

	if isExit {
		if l.logger != nil && tracee.pendingEntry != nil {
			ret := r.returnValue()
			l.logger.LogExit(tracee.pendingEntry, ret, ret < 0 && ret >= -4095)
		}
		tracee.pendingEntry = nil
		return l.resume(tracee.pid, 0)
	}

	e := newEvent(tracee.pid, r)
	tracee.pendingEntry = e

	killed, err := l.dispatcher.dispatch(e)
	if err != nil {
		return err
	}
	if killed {
		tracee.killedByPolicy = true
		// The tracee is dying to SIGKILL; don't issue a ptrace resume
		// against a pid we're about to see exit.
		return nil
	}

	return l.resume(tracee.pid, 0)
}

// handleForkEvent services a clone/fork/vfork event: deny-and-kill the
// parent if forking isn't permitted, otherwise install the new child
// before the next resume with firstExecConsumed already true, since the
// first-exec waiver belongs only to the originally launched tracee, not
// to any of its descendants.
func (l *Loop) handleForkEvent(parent *traceeProcess) error {
	if !l.dispatcher.pol.AllowFork {
		parent.killedByPolicy = true
		return l.dispatcher.term.kill(parent.pid, "fork", "the program is not allowed to fork or clone")
	}

	childPID, err := syscall.PtraceGetEventMsg(parent.pid)
	if err == nil {
		l.tracees[int(childPID)] = &traceeProcess{
			pid:               int(childPID),
			syscallParity:     false,
			firstExecConsumed: true,
		}
	}

	return l.resume(parent.pid, 0)
}

// handleExecEvent resumes a tracee whose firstExecConsumed is still false
// without consulting policy, and judges every other exec against the exec
// policy flag. Run and handleForkEvent create every tracee with
// firstExecConsumed already set (the exec that loaded the target is
// observed by Launch, before exec events are enabled), so every exec
// event reaching this function is judged.
func (l *Loop) handleExecEvent(tracee *traceeProcess) error {
	if !tracee.firstExecConsumed {
		tracee.firstExecConsumed = true
		return l.resume(tracee.pid, 0)
	}

	if l.dispatcher.pol.AllowExec {
		return l.resume(tracee.pid, 0)
	}

	tracee.killedByPolicy = true
	return l.dispatcher.term.kill(tracee.pid, "execve", "the program is not allowed to exec")
}

func (l *Loop) resume(pid, signal int) error {
	if err := syscall.PtraceSyscall(pid, signal); err != nil {
		return fmt.Errorf("ptrace syscall resume on %d: %w", pid, err)
	}
	return nil
}
