package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewRejectsRelativeRoot(t *testing.T) {
	if _, err := New("relative/path", "", false, false, false); err == nil {
		t.Fatalf("expected an error for a relative read root")
	}
}

func TestNewRejectsMissingRoot(t *testing.T) {
	if _, err := New("", "/no/such/directory/surely", false, false, false); err == nil {
		t.Fatalf("expected an error for a nonexistent read-write root")
	}
}

func TestNewRejectsFileRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("writing fixture file: %v", err)
	}
	if _, err := New(file, "", false, false, false); err == nil {
		t.Fatalf("expected an error for a root that is a regular file")
	}
}

func TestNewCanonicalizesAndPreservesFlags(t *testing.T) {
	dir := t.TempDir()
	pol, err := New(dir, "", true, false, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if pol.ReadRoot == "" {
		t.Fatalf("expected a non-empty canonical read root")
	}
	if !pol.AllowFork || pol.AllowExec || !pol.AllowSocket {
		t.Fatalf("capability flags not preserved: %+v", pol)
	}
}

func TestNewEmptyRootsAreZeroValue(t *testing.T) {
	pol, err := New("", "", false, false, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if pol.ReadRoot != "" || pol.ReadWriteRoot != "" {
		t.Fatalf("expected empty roots to stay empty: %+v", pol)
	}
}

func TestDefaultDeniesEverything(t *testing.T) {
	pol := Default()
	if pol.ReadRoot != "" || pol.ReadWriteRoot != "" || pol.AllowFork || pol.AllowExec || pol.AllowSocket {
		t.Fatalf("expected the default policy to deny all reach and capabilities: %+v", pol)
	}
}
