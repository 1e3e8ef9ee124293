package tracer

// event is the transient per-dispatch view of a syscall-entry stop: the
// syscall number, its six raw argument words, and the pid that issued it.
// It lives for exactly one dispatcher.dispatch call.
type event struct {
	pid    int
	number uint64
	args   [6]uint64
}

func newEvent(pid int, r *regs) *event {
	return &event{
		pid:    pid,
		number: r.syscallNumber(),
		args:   r.args(),
	}
}

// string resolves argument index as a tracee pointer and reads the
// NUL-terminated string it refers to. A zero pointer or a failed read
// both resolve to the empty string rather than panicking: an empty path
// fails every allow-list check, so unreadable arguments are denied
// rather than crashing the control loop.
func (e *event) string(argIndex int) string {
	s, err := readCString(e.pid, e.args[argIndex])
	if err != nil {
		return ""
	}
	return s
}
