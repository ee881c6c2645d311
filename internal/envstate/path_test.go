package envstate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func joinList(entries ...string) string {
	return strings.Join(entries, listSeparator)
}

func TestContainsEntry(t *testing.T) {
	list := joinList("/usr/bin", "/opt/platform-tools", "/home/rig/.local/bin")

	t.Run("exact match", func(t *testing.T) {
		assert.True(t, ContainsEntry(list, "/opt/platform-tools"))
	})

	t.Run("case-insensitive", func(t *testing.T) {
		assert.True(t, ContainsEntry(list, "/OPT/Platform-Tools"))
	})

	t.Run("trailing slash ignored", func(t *testing.T) {
		assert.True(t, ContainsEntry(list, "/opt/platform-tools/"))
	})

	t.Run("surrounding quotes ignored", func(t *testing.T) {
		assert.True(t, ContainsEntry(list, `"/opt/platform-tools"`))
	})

	t.Run("substring is not a match", func(t *testing.T) {
		assert.False(t, ContainsEntry(list, "/opt/platform"))
	})

	t.Run("absent entry", func(t *testing.T) {
		assert.False(t, ContainsEntry(list, "/opt/other"))
	})

	t.Run("empty list", func(t *testing.T) {
		assert.False(t, ContainsEntry("", "/opt/platform-tools"))
	})
}

func TestAppendEntry(t *testing.T) {
	t.Run("appends when absent", func(t *testing.T) {
		got, changed := AppendEntry("/usr/bin", "/opt/platform-tools")
		assert.True(t, changed)
		assert.Equal(t, joinList("/usr/bin", "/opt/platform-tools"), got)
	})

	t.Run("no duplicate when present", func(t *testing.T) {
		list := joinList("/usr/bin", "/opt/platform-tools")
		got, changed := AppendEntry(list, "/opt/platform-tools")
		assert.False(t, changed)
		assert.Equal(t, list, got)
	})

	t.Run("no duplicate for equivalent spellings", func(t *testing.T) {
		list := joinList("/usr/bin", "/opt/platform-tools")
		got, changed := AppendEntry(list, "/OPT/PLATFORM-TOOLS/")
		assert.False(t, changed)
		assert.Equal(t, list, got)
	})

	t.Run("empty list becomes single entry", func(t *testing.T) {
		got, changed := AppendEntry("", "/opt/platform-tools")
		assert.True(t, changed)
		assert.Equal(t, "/opt/platform-tools", got)
	})

	t.Run("idempotent under repetition", func(t *testing.T) {
		list := ""
		for i := 0; i < 3; i++ {
			list, _ = AppendEntry(list, "/opt/platform-tools")
		}
		assert.Equal(t, "/opt/platform-tools", list)
	})
}
