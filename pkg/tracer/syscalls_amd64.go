//go:build linux && amd64

package tracer

import "syscall"

// The fixed set of syscalls the dispatcher registers handlers for.
// Everything else is allowed by default.
const (
	sysOpen     = syscall.SYS_OPEN
	sysOpenat   = syscall.SYS_OPENAT
	sysStat     = syscall.SYS_STAT
	sysLstat    = syscall.SYS_LSTAT
	sysReadlink = syscall.SYS_READLINK
	sysTruncate = syscall.SYS_TRUNCATE
	sysMkdir    = syscall.SYS_MKDIR
	sysRmdir    = syscall.SYS_RMDIR
	sysCreat    = syscall.SYS_CREAT
	sysUnlink   = syscall.SYS_UNLINK
	sysChmod    = syscall.SYS_CHMOD
	sysChown    = syscall.SYS_CHOWN
	sysLchown   = syscall.SYS_LCHOWN
	sysRename   = syscall.SYS_RENAME
	sysLink     = syscall.SYS_LINK
	sysSymlink  = syscall.SYS_SYMLINK
	sysChdir    = syscall.SYS_CHDIR
	sysGetcwd   = syscall.SYS_GETCWD
	sysSocket   = syscall.SYS_SOCKET

	sysKill               = syscall.SYS_KILL
	sysTkill              = syscall.SYS_TKILL
	sysTgkill             = syscall.SYS_TGKILL
	sysRtSigqueueinfo     = syscall.SYS_RT_SIGQUEUEINFO
	sysRtTgsigqueueinfo   = syscall.SYS_RT_TGSIGQUEUEINFO

	sysClone  = syscall.SYS_CLONE
	sysFork   = syscall.SYS_FORK
	sysVfork  = syscall.SYS_VFORK
	sysExecve = syscall.SYS_EXECVE

	// O_RDONLY is 0 on Linux and contributes no bit to the write-intent
	// test; write intent is the union of O_WRONLY and O_RDWR, tested as a
	// bitwise AND against this mask.
	writeIntentMask = syscall.O_WRONLY | syscall.O_RDWR
)

// syscallNames maps the handled syscall numbers to their textual name,
// for diagnostics only.
var syscallNames = map[uint64]string{
	sysOpen:             "open",
	sysOpenat:           "openat",
	sysStat:             "stat",
	sysLstat:            "lstat",
	sysReadlink:         "readlink",
	sysTruncate:         "truncate",
	sysMkdir:            "mkdir",
	sysRmdir:            "rmdir",
	sysCreat:            "creat",
	sysUnlink:           "unlink",
	sysChmod:            "chmod",
	sysChown:            "chown",
	sysLchown:           "lchown",
	sysRename:           "rename",
	sysLink:             "link",
	sysSymlink:          "symlink",
	sysChdir:            "chdir",
	sysGetcwd:           "getcwd",
	sysSocket:           "socket",
	sysKill:             "kill",
	sysTkill:            "tkill",
	sysTgkill:           "tgkill",
	sysRtSigqueueinfo:   "rt_sigqueueinfo",
	sysRtTgsigqueueinfo: "rt_tgsigqueueinfo",
	sysClone:            "clone",
	sysFork:             "fork",
	sysVfork:            "vfork",
	sysExecve:           "execve",
}

// syscallName returns the diagnostic name for nr, or a generic fallback
// for any syscall outside the handled set. Unhandled syscalls are allowed
// by default but may still be logged by Logger.LogEntry/LogExit.
func syscallName(nr uint64) string {
	if name, ok := syscallNames[nr]; ok {
		return name
	}
	return "syscall"
}

// isForkFamily reports whether nr is one of the syscalls whose effect is
// handled by the tracer loop's ptrace-event path rather than by the
// dispatcher: these entry stops are logged only, never judged here.
func isForkFamily(nr uint64) bool {
	switch nr {
	case sysClone, sysFork, sysVfork, sysExecve:
		return true
	default:
		return false
	}
}
