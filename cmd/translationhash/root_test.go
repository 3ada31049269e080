package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/test-moodle/moodle-tiny-translations/pkg/marker"
)

// executeCommand runs a fresh root command with args and stdin, capturing its output.
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func encode(t *testing.T, h string) string {
	t.Helper()
	s, err := marker.Encode(h)
	require.NoError(t, err)
	return s
}

func TestRootCmd_Help(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "--help")
	require.NoError(t, err)
	for _, want := range []string{"Usage:", "ensure", "submit", "paste", "replace", "strip", "inspect", "migrate", "--hash-source", "--config"} {
		assert.Contains(t, stdout, want)
	}
}

func TestRootCmd_Version(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "translationhash version dev")
}

func TestMigrateCmd_HelpListsFlags(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "migrate", "--help")
	require.NoError(t, err)
	var cmd *cobra.Command
	for _, c := range newRootCmd().Commands() {
		if c.Name() == "migrate" {
			cmd = c
		}
	}
	require.NotNil(t, cmd)
	for _, name := range []string{"input", "output", "mode", "concurrency", "extension", "ignore", "onError", "no-cache", "report"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag --%s", name)
		assert.Contains(t, stdout, "--"+name)
	}
}

func TestEnsureCmd_Stdin(t *testing.T) {
	stdout, _, err := executeCommand(t, "<p>Hi</p>", "ensure", "--hash-source", "static", "--hash", "abc123")
	require.NoError(t, err)
	assert.Equal(t, encode(t, "abc123")+"<p>Hi</p>", stdout)
}

func TestEnsureCmd_GeneratedHash(t *testing.T) {
	stdout, _, err := executeCommand(t, "<p>Hi</p>", "ensure")
	require.NoError(t, err)
	m, ok := marker.First(stdout)
	require.True(t, ok)
	assert.True(t, m.Canonical)
	assert.Len(t, m.Hash, 32)
}

func TestSubmitCmd_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.html")
	require.NoError(t, os.WriteFile(path, []byte(encode(t, "abc123")), 0o644))

	stdout, _, err := executeCommand(t, "", "submit", path, "--hash-source", "static", "--hash", "zzz1")
	require.NoError(t, err)
	assert.Empty(t, stdout, "a marker-only field is stored empty")
}

func TestStripAndPasteCmds(t *testing.T) {
	in := encode(t, "abc123") + "<p>Body</p>"

	stdout, _, err := executeCommand(t, in, "strip")
	require.NoError(t, err)
	assert.Equal(t, "<p>Body</p>", stdout)

	stdout, _, err = executeCommand(t, in, "paste", "-")
	require.NoError(t, err)
	assert.Equal(t, "<p>Body</p>", stdout)
}

func TestInspectCmd_JSON(t *testing.T) {
	stdout, _, err := executeCommand(t, encode(t, "abc123"), "inspect", "--report-format", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"hashes": [`)
	assert.Contains(t, stdout, `"markerOnly": true`)
}

func TestCmd_InvalidConfig(t *testing.T) {
	_, _, err := executeCommand(t, "", "ensure", "--hash-source", "static")
	assert.Error(t, err)
}

func TestMigrateCmd(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "a.html"), []byte(`<span data-translationhash="old1"></span><p>A</p>`), 0o644))

	stdout, _, err := executeCommand(t, "", "migrate", "-i", in, "-o", out, "--no-cache", "--hash-source", "none")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 processed")

	data, err := os.ReadFile(filepath.Join(out, "a.html"))
	require.NoError(t, err)
	assert.Equal(t, `<span data-translationhash="old1"></span><p>A</p>`, string(data), "no hash source leaves fields alone")
}

func TestMigrateCmd_RequiresPaths(t *testing.T) {
	_, _, err := executeCommand(t, "", "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
