package cli

import (
	"errors"
	"fmt"

	"github.com/rigup-dev/rigup/internal/catalog"
)

// Exit codes. Stable: automation keys off them.
const (
	ExitSuccess        = 0
	ExitPartialFailure = 1
	ExitAborted        = 2
	ExitCatalogError   = 3
)

// ExitCodeError carries an explicit process exit code through Cobra's error
// return. main unwraps it with ExitCode.
type ExitCodeError struct {
	Code int
	Err  error
}

// Error implements the error interface.
func (e *ExitCodeError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

// Unwrap exposes the wrapped error for errors.Is/As.
func (e *ExitCodeError) Unwrap() error { return e.Err }

// ExitCode maps a command error to the process exit code. A malformed or
// unreadable catalog always maps to ExitCatalogError, wherever it surfaced.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, catalog.ErrCatalogMalformed) {
		return ExitCatalogError
	}
	return ExitPartialFailure
}

// loadCatalog loads the catalog selected by --catalog, or the embedded
// default. Load and validation failures surface as catalog errors (exit 3).
func loadCatalog(flags *rootFlags) (*catalog.Catalog, error) {
	if flags.catalog != "" {
		return catalog.Load(flags.catalog)
	}
	return catalog.Default()
}
