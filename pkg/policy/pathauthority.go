package policy

import (
	"os"
	"path/filepath"
	"strings"
)

// Mode is a filesystem access mode a candidate path is judged against.
type Mode int

const (
	// Read permits access under either the read or read-write root.
	Read Mode = iota
	// ReadWrite permits access only under the read-write root.
	ReadWrite
)

// Authority decides whether a candidate path is covered by a Policy's
// allow-list roots, given the tracer's own working directory at
// construction. An Authority is immutable and safe for concurrent use by
// every TraceeProcess sharing the Policy it was built from.
type Authority struct {
	cwd           string // canonical, trailing separator included
	readRoot      string
	readWriteRoot string
}

// NewAuthority builds an Authority from a Policy and the tracer's current
// working directory.
func NewAuthority(p Policy) (*Authority, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cwd = filepath.Clean(cwd)
	if !strings.HasSuffix(cwd, string(os.PathSeparator)) {
		cwd += string(os.PathSeparator)
	}

	return &Authority{
		cwd:           cwd,
		readRoot:      p.ReadRoot,
		readWriteRoot: p.ReadWriteRoot,
	}, nil
}

// IsAllowed reports whether path, resolved against the tracer's working
// directory, falls under the allow-list root for mode. It is total: every
// input produces a boolean, never an error.
func (a *Authority) IsAllowed(path string, mode Mode) bool {
	if path == "" {
		return false
	}

	candidate := a.toAbsolute(path)

	if mode == Read {
		if underRoot(candidate, a.readRoot) {
			return true
		}
		return underRoot(candidate, a.readWriteRoot)
	}
	return underRoot(candidate, a.readWriteRoot)
}

// toAbsolute forms the absolute candidate path: if path already starts
// with the separator it is kept as-is, otherwise the tracer's cwd is
// prepended. No symlink resolution or path cleaning is performed on the
// candidate — only the already-canonical root is compared against it.
func (a *Authority) toAbsolute(path string) string {
	if strings.HasPrefix(path, string(os.PathSeparator)) {
		return path
	}
	return a.cwd + path
}

// underRoot reports whether root is a directory-boundary prefix of
// candidate: root is empty never matches; otherwise root must be a byte
// prefix of candidate and the next byte in candidate must be either the
// path separator or end-of-string. This rejects e.g. "/tmp/abc" against
// root "/tmp/a" — a plain substring test would wrongly admit it.
func underRoot(candidate, root string) bool {
	if root == "" {
		return false
	}
	root = strings.TrimRight(root, string(os.PathSeparator))

	if !strings.HasPrefix(candidate, root) {
		return false
	}
	rest := candidate[len(root):]
	if rest == "" {
		return true
	}
	return rest[0] == os.PathSeparator
}
