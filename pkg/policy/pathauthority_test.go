package policy

import "testing"

func newTestAuthority(t *testing.T, readRoot, readWriteRoot string) *Authority {
	t.Helper()
	a := &Authority{
		cwd:           "/home/agent/",
		readRoot:      readRoot,
		readWriteRoot: readWriteRoot,
	}
	return a
}

func TestIsAllowedRejectsSiblingWithSharedPrefix(t *testing.T) {
	a := newTestAuthority(t, "/tmp/a", "")
	if a.IsAllowed("/tmp/abc/secret", Read) {
		t.Fatalf("a naive prefix match must not admit /tmp/abc under root /tmp/a")
	}
	if !a.IsAllowed("/tmp/a/file", Read) {
		t.Fatalf("/tmp/a/file should be allowed under root /tmp/a")
	}
	if !a.IsAllowed("/tmp/a", Read) {
		t.Fatalf("the root itself should be allowed")
	}
}

func TestIsAllowedResolvesRelativePathsAgainstCwd(t *testing.T) {
	a := newTestAuthority(t, "/home/agent", "")
	if !a.IsAllowed("notes.txt", Read) {
		t.Fatalf("a relative path should resolve against cwd and fall under the read root")
	}
	if a.IsAllowed("sub/notes.txt", ReadWrite) {
		t.Fatalf("a relative path under an unconfigured read-write root must be denied")
	}
}

func TestIsAllowedReadModeAcceptsEitherRoot(t *testing.T) {
	a := newTestAuthority(t, "/srv/ro", "/srv/rw")
	if !a.IsAllowed("/srv/ro/file", Read) {
		t.Fatalf("expected the read root to satisfy Read mode")
	}
	if !a.IsAllowed("/srv/rw/file", Read) {
		t.Fatalf("expected the read-write root to also satisfy Read mode")
	}
}

func TestIsAllowedReadWriteModeRejectsReadOnlyRoot(t *testing.T) {
	a := newTestAuthority(t, "/srv/ro", "/srv/rw")
	if a.IsAllowed("/srv/ro/file", ReadWrite) {
		t.Fatalf("the read-only root must not satisfy ReadWrite mode")
	}
	if !a.IsAllowed("/srv/rw/file", ReadWrite) {
		t.Fatalf("expected the read-write root to satisfy ReadWrite mode")
	}
}

func TestIsAllowedEmptyPathIsAlwaysDenied(t *testing.T) {
	a := newTestAuthority(t, "/srv/ro", "/srv/rw")
	if a.IsAllowed("", Read) {
		t.Fatalf("an empty path must never be allowed")
	}
}

func TestIsAllowedUnconfiguredRootDeniesEverything(t *testing.T) {
	a := newTestAuthority(t, "", "")
	if a.IsAllowed("/anything", Read) {
		t.Fatalf("an empty root must never match any candidate")
	}
}
