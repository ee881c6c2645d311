package probe

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// versionToken matches the first dotted-numeric token in arbitrary CLI
// output. External tools report versions in wildly different shapes
// ("v18.18.2", "Python 3.11.6", "Android Debug Bridge version 1.0.41"); the
// first dotted-numeric token is the version in every tool rigup manages.
var versionToken = regexp.MustCompile(`\d+\.\d+(?:\.\d+)*`)

// ParseVersion extracts a version from raw command output. It is a pure
// function and never returns an error: the second result is false when no
// parseable version is present, and callers must handle that branch
// explicitly.
func ParseVersion(output string) (*semver.Version, bool) {
	token := versionToken.FindString(output)
	if token == "" {
		return nil, false
	}
	v, err := semver.NewVersion(strings.TrimSpace(token))
	if err != nil {
		return nil, false
	}
	return v, true
}
