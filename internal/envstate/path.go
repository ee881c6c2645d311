package envstate

import (
	"os"
	"strings"
)

// listSeparator is the separator for PATH-like list variables.
const listSeparator = string(os.PathListSeparator)

// normalizeEntry prepares a list entry for comparison: surrounding quotes and
// whitespace are dropped and trailing path separators ignored, so
// `C:\Android\platform-tools\` and `"c:\android\platform-tools"` compare
// equal.
func normalizeEntry(entry string) string {
	e := strings.TrimSpace(entry)
	e = strings.Trim(e, `"`)
	e = strings.TrimRight(e, `\/`)
	return e
}

// ContainsEntry reports whether list (a separator-joined value) already holds
// entry, using case-insensitive, separator-aware comparison.
func ContainsEntry(list, entry string) bool {
	want := normalizeEntry(entry)
	for _, have := range strings.Split(list, listSeparator) {
		if have == "" {
			continue
		}
		if strings.EqualFold(normalizeEntry(have), want) {
			return true
		}
	}
	return false
}

// AppendEntry returns list with entry appended, or list unchanged when the
// entry is already present. The second result is false for the no-op case.
func AppendEntry(list, entry string) (string, bool) {
	if ContainsEntry(list, entry) {
		return list, false
	}
	if strings.TrimSpace(list) == "" {
		return entry, true
	}
	return strings.TrimRight(list, listSeparator) + listSeparator + entry, true
}
