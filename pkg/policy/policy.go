// Package policy holds the declarative permission policy the sandbox
// enforces against a traced program, and the authority that judges
// filesystem paths against it.
package policy

import (
	"fmt"
	"os"
	"path/filepath"
)

// Policy is an immutable description of what the tracee may do: two
// filesystem allow-list roots (read, read-write) and three capability
// flags. A zero Policy denies all filesystem access and all three
// capabilities.
type Policy struct {
	// ReadRoot is the canonicalized absolute read-only allow-list root.
	// Empty means no read reach.
	ReadRoot string
	// ReadWriteRoot is the canonicalized absolute read-write allow-list
	// root. Empty means no write reach.
	ReadWriteRoot string

	AllowFork   bool
	AllowExec   bool
	AllowSocket bool
}

// New validates and canonicalizes the given roots and returns a Policy.
// A non-empty root must be given as an absolute path and must exist as a
// directory; relative forms are rejected rather than silently resolved
// against the current directory, since the caller's intent for a relative
// root is ambiguous at this layer.
func New(readRoot, readWriteRoot string, allowFork, allowExec, allowSocket bool) (Policy, error) {
	canonicalRead, err := canonicalRoot(readRoot)
	if err != nil {
		return Policy{}, fmt.Errorf("read root: %w", err)
	}
	canonicalReadWrite, err := canonicalRoot(readWriteRoot)
	if err != nil {
		return Policy{}, fmt.Errorf("read-write root: %w", err)
	}

	return Policy{
		ReadRoot:      canonicalRead,
		ReadWriteRoot: canonicalReadWrite,
		AllowFork:     allowFork,
		AllowExec:     allowExec,
		AllowSocket:   allowSocket,
	}, nil
}

// canonicalRoot validates and canonicalizes a single allow-list root. An
// empty input is passed through unchanged (no reach configured for that
// mode).
func canonicalRoot(root string) (string, error) {
	if root == "" {
		return "", nil
	}
	if !filepath.IsAbs(root) {
		return "", fmt.Errorf("%q: must be an absolute path", root)
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("%q: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%q: not a directory", root)
	}

	canonical, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("%q: %w", root, err)
	}
	return filepath.Clean(canonical), nil
}
