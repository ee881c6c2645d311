//go:build !windows

package envstate

import (
	"os"
	"path/filepath"
)

// NewDefaultStore returns the platform store: profile.d style snippet files.
// Machine scope lives under /etc/profile.d, which requires root; writes there
// fail with ErrPrivilegeInsufficient for ordinary users and degrade to the
// user-scope snippet.
func NewDefaultStore() Store {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	userPath := filepath.Join(home, ".config", "rigup", "env.sh")
	_ = os.MkdirAll(filepath.Dir(userPath), 0o750)
	return NewFileStore("/etc/profile.d/rigup.sh", userPath)
}
