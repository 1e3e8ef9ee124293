package tracer

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger logs syscall trace lines and policy decisions: one line per
// intercepted syscall (optional) and one line per policy decision. A nil
// Logger is valid throughout this package — every call site guards
// against it — and simply means silent operation.
type Logger interface {
	LogEntry(e *event)
	LogExit(e *event, ret int64, isError bool)
	LogDecision(pid int, syscallName string, allowed bool, reason string)
}

// StreamLogger writes human-readable trace lines to an io.Writer.
type StreamLogger struct {
	Out io.Writer
}

// NewStreamLogger creates a new StreamLogger.
func NewStreamLogger(out io.Writer) *StreamLogger {
	return &StreamLogger{Out: out}
}

// pathArgSyscalls names, per index, which of a syscall's six arguments are
// tracee pointers to a path string worth resolving for the trace line.
var pathArgSyscalls = map[string][]int{
	"open":     {0},
	"openat":   {1},
	"stat":     {0},
	"lstat":    {0},
	"readlink": {0},
	"truncate": {0},
	"mkdir":    {0},
	"rmdir":    {0},
	"creat":    {0},
	"unlink":   {0},
	"chmod":    {0},
	"chown":    {0},
	"lchown":   {0},
	"chdir":    {0},
	"rename":   {0, 1},
	"link":     {0, 1},
	"symlink":  {0, 1},
}

func (l *StreamLogger) LogEntry(e *event) {
	name := syscallName(e.number)
	args := e.args
	formatted := make([]string, len(args))
	for i, arg := range args {
		formatted[i] = fmt.Sprintf("0x%x", arg)
	}

	for _, idx := range pathArgSyscalls[name] {
		if s := e.string(idx); s != "" || args[idx] == 0 {
			formatted[idx] = fmt.Sprintf("%q", s)
		}
	}

	fmt.Fprintf(l.Out, "[trace] [%-5d] -> %s(%s)\n", e.pid, name, strings.Join(formatted, ", "))
}

func (l *StreamLogger) LogExit(e *event, ret int64, isError bool) {
	name := syscallName(e.number)
	if isError {
		fmt.Fprintf(l.Out, "[trace] [%-5d] <- %s = -1 (errno=%d)\n", e.pid, name, -ret)
		return
	}
	fmt.Fprintf(l.Out, "[trace] [%-5d] <- %s = %d\n", e.pid, name, ret)
}

func (l *StreamLogger) LogDecision(pid int, syscallName string, allowed bool, reason string) {
	if allowed {
		fmt.Fprintf(l.Out, "[policy] [%-5d] allow %s\n", pid, syscallName)
		return
	}
	fmt.Fprintf(l.Out, "[policy] [%-5d] deny %s: %s\n", pid, syscallName, reason)
}

// FileLogger logs to a file.
type FileLogger struct {
	*StreamLogger
	file *os.File
}

// NewFileLogger creates a logger that appends to a file, creating it if
// necessary.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{
		StreamLogger: NewStreamLogger(f),
		file:         f,
	}, nil
}

// Close closes the underlying file.
func (l *FileLogger) Close() error {
	return l.file.Close()
}
