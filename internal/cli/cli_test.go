package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigup-dev/rigup/internal/catalog"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub scripts require a POSIX shell")
	}
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body+"\n"), 0o755))
}

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// execute runs the root command with args and returns stdout and the error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	root := NewRootCmd("1.2.3")
	assert.Equal(t, "rigup", root.Use)
	assert.Equal(t, "1.2.3", root.Version)

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"status", "install", "env", "catalog", "uninstall", "launch"} {
		assert.Contains(t, names, want)
	}
}

func TestCatalogValidateCommand(t *testing.T) {
	t.Run("embedded catalog is valid", func(t *testing.T) {
		out, err := execute(t, "catalog", "validate")
		require.NoError(t, err)
		assert.Contains(t, out, "catalog ok")
		assert.Contains(t, out, "install order")
	})

	t.Run("malformed catalog maps to catalog exit code", func(t *testing.T) {
		path := writeCatalog(t, `
version: 1
components:
  - id: alpha
    name: Alpha
    requires: ">=1.0"
    probe:
      command: ["alpha"]
    install:
      - strategy: teleport
        command: ["x"]
`)
		_, err := execute(t, "catalog", "validate", "--catalog", path)
		require.Error(t, err)
		assert.ErrorIs(t, err, catalog.ErrCatalogMalformed)
		assert.Equal(t, ExitCatalogError, ExitCode(err))
	})

	t.Run("missing catalog file", func(t *testing.T) {
		_, err := execute(t, "catalog", "validate", "--catalog", "/does/not/exist.yaml")
		assert.Equal(t, ExitCatalogError, ExitCode(err))
	})
}

func TestStatusCommand(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	writeScript(t, dir, "statustool", `echo "1.4.0"`)

	path := writeCatalog(t, `
version: 1
components:
  - id: statustool
    name: Status Tool
    requires: ">=1.0"
    probe:
      command: ["statustool"]
    install:
      - strategy: online
        command: ["install-statustool"]
  - id: ghost
    name: Ghost Tool
    requires: ">=1.0"
    probe:
      command: ["no-such-ghost-tool"]
    install:
      - strategy: online
        command: ["install-ghost"]
`)

	out, err := execute(t, "status", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "statustool")
	assert.Contains(t, out, "installed")
	assert.Contains(t, out, "1.4.0")
	assert.Contains(t, out, "ghost")
	assert.Contains(t, out, "missing")
}

func TestInstallCommandExitCodes(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	t.Run("all satisfied exits zero", func(t *testing.T) {
		writeScript(t, dir, "okay", `echo "2.0.0"`)
		path := writeCatalog(t, `
version: 1
components:
  - id: okay
    name: Okay
    requires: ">=1.0"
    probe:
      command: ["okay"]
    install:
      - strategy: online
        command: ["install-okay"]
`)
		out, err := execute(t, "install", "--catalog", path)
		require.NoError(t, err)
		assert.Contains(t, out, "all-succeeded")
	})

	t.Run("failed install exits with partial failure", func(t *testing.T) {
		writeScript(t, dir, "doomed", `exit 1`)
		writeScript(t, dir, "install-doomed", `exit 1`)
		path := writeCatalog(t, `
version: 1
components:
  - id: doomed
    name: Doomed
    requires: ">=1.0"
    probe:
      command: ["doomed"]
    install:
      - strategy: online
        command: ["install-doomed"]
`)
		out, err := execute(t, "install", "--catalog", path)
		require.Error(t, err)
		assert.Equal(t, ExitPartialFailure, ExitCode(err))
		assert.Contains(t, out, "partial-failure")
	})

	t.Run("unknown component", func(t *testing.T) {
		_, err := execute(t, "install", "definitely-not-real")
		require.Error(t, err)
	})
}

func TestEnvCheckCommand(t *testing.T) {
	path := writeCatalog(t, `
version: 1
components:
  - id: sdk
    name: SDK
    requires: ">=1.0"
    probe:
      command: ["sdk"]
    install:
      - strategy: online
        command: ["install-sdk"]
    env:
      - name: RIGUP_TEST_SDK_HOME
        value: /opt/sdk
        scope: user
        policy: replace
`)

	out, err := execute(t, "env", "check", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "RIGUP_TEST_SDK_HOME")
}

func TestLaunchRefusesWhenNotReady(t *testing.T) {
	skipOnWindows(t)
	path := writeCatalog(t, `
version: 1
launch:
  command: ["true"]
components:
  - id: ghost
    name: Ghost
    requires: ">=1.0"
    probe:
      command: ["no-such-ghost-tool"]
    install:
      - strategy: online
        command: ["install-ghost"]
`)

	out, err := execute(t, "launch", "--catalog", path)
	require.Error(t, err)
	assert.Equal(t, ExitPartialFailure, ExitCode(err))
	assert.Contains(t, out, "not ready")
}

func TestUninstallNonInteractiveRequiresYes(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	marker := filepath.Join(dir, "removed")
	writeScript(t, dir, "remove-tool", `touch `+marker)

	path := writeCatalog(t, `
version: 1
components:
  - id: tool
    name: Tool
    requires: ">=1.0"
    probe:
      command: ["tool"]
    install:
      - strategy: online
        command: ["install-tool"]
    uninstall: ["remove-tool"]
`)

	// Without --yes and without a TTY the command declines to act.
	out, err := execute(t, "uninstall", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "aborted")
	assert.NoFileExists(t, marker)

	// With --yes it runs the uninstall command.
	out, err = execute(t, "uninstall", "--yes", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "removed")
	assert.FileExists(t, marker)
}
