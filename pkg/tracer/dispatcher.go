package tracer

import (
	"ptraced/pkg/policy"
)

// dispatcher evaluates a syscall-entry event against a Policy's PathAuthority
// and either lets it proceed or kills the tracee (module D). Every syscall
// number not explicitly handled below is DefaultAllow: dispatch returns
// immediately without consulting policy or touching Termination.
type dispatcher struct {
	authority *policy.Authority
	pol       policy.Policy
	term      *terminator
	logger    Logger
}

func newDispatcher(authority *policy.Authority, pol policy.Policy, logger Logger) *dispatcher {
	return &dispatcher{
		authority: authority,
		pol:       pol,
		term:      &terminator{logger: logger},
		logger:    logger,
	}
}

// dispatch evaluates one syscall-entry event. It returns killed=true if
// the tracee was terminated for a policy violation; err is non-nil only
// for a tracer infrastructure failure (the kill primitive itself failing),
// which the caller must treat as tracer-fatal.
func (d *dispatcher) dispatch(e *event) (killed bool, err error) {
	name := syscallName(e.number)

	if isForkFamily(e.number) {
		// Handled by TracerLoop's ptrace-event path; this entry stop is
		// logged only.
		if d.logger != nil {
			d.logger.LogEntry(e)
		}
		return false, nil
	}

	if d.logger != nil {
		d.logger.LogEntry(e)
	}

	switch e.number {
	case sysOpen:
		return d.checkOpen(e, 1)
	case sysOpenat:
		return d.deny(e, name, "openat is not permitted; use open with an absolute path instead")
	case sysStat, sysLstat, sysReadlink:
		return d.requireRead(e, name, 0)
	case sysTruncate, sysMkdir, sysRmdir, sysCreat, sysUnlink, sysChmod, sysChown, sysLchown:
		return d.requireReadWrite(e, name, 0)
	case sysRename, sysLink:
		if killed, err := d.requireReadWrite(e, name, 0); killed || err != nil {
			return killed, err
		}
		return d.requireReadWrite(e, name, 1)
	case sysSymlink:
		// symlink(target, linkpath): linkpath (arg 1) is being created,
		// target (arg 0) is merely read as the link's contents.
		if killed, err := d.requireReadWrite(e, name, 1); killed || err != nil {
			return killed, err
		}
		return d.requireRead(e, name, 0)
	case sysChdir:
		return d.requireRead(e, name, 0)
	case sysGetcwd:
		return d.requireReadPath(e, name, ".")
	case sysSocket:
		if !d.pol.AllowSocket {
			return true, d.term.kill(e.pid, name, "socket operations are not allowed")
		}
		return d.allow(e.pid, name)
	case sysKill, sysTkill, sysTgkill, sysRtSigqueueinfo, sysRtTgsigqueueinfo:
		return true, d.term.kill(e.pid, name, "the program is not allowed to send signals")
	default:
		return false, nil
	}
}

// checkOpen applies open(2)'s write-intent test: if either O_WRONLY or
// O_RDWR is set in the flags argument, the syscall is a write and
// requires ReadWrite; otherwise (O_RDONLY == 0) it requires only Read.
func (d *dispatcher) checkOpen(e *event, flagsArg int) (bool, error) {
	flags := e.args[flagsArg]
	if flags&writeIntentMask != 0 {
		return d.requireReadWrite(e, "open", 0)
	}
	return d.requireRead(e, "open", 0)
}

func (d *dispatcher) requireRead(e *event, name string, pathArg int) (bool, error) {
	return d.requireReadPath(e, name, e.string(pathArg))
}

func (d *dispatcher) requireReadPath(e *event, name, path string) (bool, error) {
	if d.authority.IsAllowed(path, policy.Read) {
		return d.allow(e.pid, name)
	}
	return true, d.term.kill(e.pid, name, "the file is not granted read permission")
}

func (d *dispatcher) requireReadWrite(e *event, name string, pathArg int) (bool, error) {
	path := e.string(pathArg)
	if d.authority.IsAllowed(path, policy.ReadWrite) {
		return d.allow(e.pid, name)
	}
	return true, d.term.kill(e.pid, name, "the file is not granted read-write permission")
}

func (d *dispatcher) deny(e *event, name, reason string) (bool, error) {
	return true, d.term.kill(e.pid, name, reason)
}

func (d *dispatcher) allow(pid int, name string) (bool, error) {
	if d.logger != nil {
		d.logger.LogDecision(pid, name, true, "")
	}
	return false, nil
}
