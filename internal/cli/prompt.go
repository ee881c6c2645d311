package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ConfirmRemoval prompts before destructive removal. It returns false
// immediately in non-interactive environments: scripted callers must pass
// --yes explicitly.
//
// The prompt defaults to "No" when the user presses Enter without input.
// Valid inputs: "y", "yes" (any case) accept; anything else declines.
func ConfirmRemoval(writer io.Writer, reader io.Reader, components []string) bool {
	if !isTerminal(os.Stdin) {
		return false
	}

	if len(components) == 0 {
		fmt.Fprintf(writer, "This removes every managed component. Continue? [y/N] ")
	} else {
		fmt.Fprintf(writer, "This removes %s. Continue? [y/N] ", strings.Join(components, ", "))
	}

	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
