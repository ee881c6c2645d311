package envstate

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Store persists environment variables at a scope. Implementations must
// treat a missing variable as ("", false, nil), not an error.
type Store interface {
	Get(scope Scope, name string) (value string, ok bool, err error)
	Set(scope Scope, name, value string) error
}

// MemoryStore is an in-memory Store for tests. FailMachineWrites simulates a
// process without administrative privilege.
type MemoryStore struct {
	mu                sync.Mutex
	values            map[Scope]map[string]string
	FailMachineWrites bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[Scope]map[string]string{
		ScopeMachine: {},
		ScopeUser:    {},
	}}
}

// Get implements Store.
func (s *MemoryStore) Get(scope Scope, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[scope][name]
	return v, ok, nil
}

// Set implements Store.
func (s *MemoryStore) Set(scope Scope, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scope == ScopeMachine && s.FailMachineWrites {
		return fmt.Errorf("%w: machine scope write denied", ErrPrivilegeInsufficient)
	}
	s.values[scope][name] = value
	return nil
}

// FileStore persists variables as `export NAME="value"` lines in per-scope
// shell snippet files (profile.d style). It is the POSIX backing store; the
// Windows build uses the registry instead.
type FileStore struct {
	mu          sync.Mutex
	machinePath string
	userPath    string
}

// NewFileStore creates a FileStore over the two snippet paths.
func NewFileStore(machinePath, userPath string) *FileStore {
	return &FileStore{machinePath: machinePath, userPath: userPath}
}

func (s *FileStore) path(scope Scope) string {
	if scope == ScopeMachine {
		return s.machinePath
	}
	return s.userPath
}

// Get implements Store.
func (s *FileStore) Get(scope Scope, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.readLines(scope)
	if err != nil {
		return "", false, err
	}
	prefix := "export " + name + "="
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			return unquote(strings.TrimPrefix(line, prefix)), true, nil
		}
	}
	return "", false, nil
}

// Set implements Store. The variable's line is rewritten in place, or
// appended when absent. Permission errors propagate so the caller can apply
// the user-scope fallback.
func (s *FileStore) Set(scope Scope, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.readLines(scope)
	if err != nil {
		return err
	}

	entry := fmt.Sprintf("export %s=%q", name, value)
	prefix := "export " + name + "="
	replaced := false
	for i, line := range lines {
		if strings.HasPrefix(line, prefix) {
			lines[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, entry)
	}

	content := strings.Join(lines, "\n") + "\n"
	if writeErr := os.WriteFile(s.path(scope), []byte(content), 0o644); writeErr != nil { //nolint:gosec // Profile snippets are world-readable by convention.
		if os.IsPermission(writeErr) {
			return fmt.Errorf("%w: %v", ErrPrivilegeInsufficient, writeErr)
		}
		return writeErr
	}
	return nil
}

func (s *FileStore) readLines(scope Scope) ([]string, error) {
	data, err := os.ReadFile(s.path(scope))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %v", ErrPrivilegeInsufficient, err)
		}
		return nil, err
	}
	raw := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	lines := raw[:0]
	for _, line := range raw {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}
