package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigParsesEveryField(t *testing.T) {
	dir := t.TempDir()
	readDir := filepath.Join(dir, "ro")
	rwDir := filepath.Join(dir, "rw")
	for _, d := range []string{readDir, rwDir} {
		if err := os.Mkdir(d, 0755); err != nil {
			t.Fatalf("mkdir %q: %v", d, err)
		}
	}

	cfgPath := filepath.Join(dir, "policy.json")
	contents := `{"read":"` + readDir + `","read_write":"` + rwDir + `","fork":true,"exec":true,"socket":false}`
	if err := os.WriteFile(cfgPath, []byte(contents), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	pol, err := LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if pol.ReadRoot == "" || pol.ReadWriteRoot == "" {
		t.Fatalf("expected both roots to be set: %+v", pol)
	}
	if !pol.AllowFork || !pol.AllowExec || pol.AllowSocket {
		t.Fatalf("capability flags not parsed correctly: %+v", pol)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.json")); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}

func TestLoadConfigMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(cfgPath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := LoadConfig(cfgPath); err == nil {
		t.Fatalf("expected an error for malformed JSON")
	}
}

func TestLoadConfigAbsentKeysLeaveZeroValues(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(cfgPath, []byte(`{}`), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	pol, err := LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if pol != (Policy{}) {
		t.Fatalf("expected an all-zero policy, got %+v", pol)
	}
}
