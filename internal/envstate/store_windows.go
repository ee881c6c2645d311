//go:build windows

package envstate

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/windows/registry"
)

const machineEnvKey = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`

// registryStore persists variables in the Windows registry: HKLM for machine
// scope, HKCU for user scope.
type registryStore struct{}

// NewDefaultStore returns the platform store backed by the registry.
func NewDefaultStore() Store {
	return registryStore{}
}

func openKey(scope Scope, access uint32) (registry.Key, error) {
	if scope == ScopeMachine {
		return registry.OpenKey(registry.LOCAL_MACHINE, machineEnvKey, access)
	}
	return registry.OpenKey(registry.CURRENT_USER, "Environment", access)
}

// Get implements Store.
func (registryStore) Get(scope Scope, name string) (string, bool, error) {
	key, err := openKey(scope, registry.QUERY_VALUE)
	if err != nil {
		return "", false, fmt.Errorf("opening %s environment key: %w", scope, err)
	}
	defer key.Close()

	value, _, err := key.GetStringValue(name)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s (%s): %w", name, scope, err)
	}
	return value, true, nil
}

// Set implements Store. Values containing %-style references are stored as
// REG_EXPAND_SZ so the shell expands them, matching what setx does.
func (registryStore) Set(scope Scope, name, value string) error {
	key, err := openKey(scope, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("%w: opening %s environment key: %v", ErrPrivilegeInsufficient, scope, err)
	}
	defer key.Close()

	if strings.Contains(value, "%") {
		err = key.SetExpandStringValue(name, value)
	} else {
		err = key.SetStringValue(name, value)
	}
	if err != nil {
		return fmt.Errorf("%w: writing %s (%s): %v", ErrPrivilegeInsufficient, name, scope, err)
	}
	return nil
}
