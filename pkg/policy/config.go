package policy

import (
	"encoding/json"
	"fmt"
	"os"
)

// fileConfig mirrors the sandbox's configuration file: a small key/value
// object where every key is optional and an absent key leaves the
// corresponding Policy field at its zero value.
type fileConfig struct {
	Read      string `json:"read"`
	ReadWrite string `json:"read_write"`
	Fork      bool   `json:"fork"`
	Exec      bool   `json:"exec"`
	Socket    bool   `json:"socket"`
}

// LoadConfig reads and parses a configuration file at path and builds the
// Policy it describes. A missing file, unreadable file, or malformed JSON
// is a configuration error: the caller should abort before launching a
// tracee.
func LoadConfig(path string) (Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return Policy{}, fmt.Errorf("opening config %q: %w", path, err)
	}
	defer f.Close()

	var cfg fileConfig
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return Policy{}, fmt.Errorf("parsing config %q: %w", path, err)
	}

	return New(cfg.Read, cfg.ReadWrite, cfg.Fork, cfg.Exec, cfg.Socket)
}

// Default returns the policy used when no configuration file is supplied:
// no read root, no read-write root, and every capability flag false.
func Default() Policy {
	return Policy{}
}
