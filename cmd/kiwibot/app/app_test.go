package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCheck(t *testing.T, body string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.auto"), []byte(body), 0o644))

	var out bytes.Buffer
	cmd := newCheckCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--script.dir", dir, "demo"})
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckResolvesTokens(t *testing.T) {
	out, err := runCheck(t, "# comment\nBEGIN\nDRIVE 0, 0.5, 0\nENDING\n")
	require.NoError(t, err)
	assert.Contains(t, out, "DRIVE")
	assert.Contains(t, out, "ENDING")
	assert.NotContains(t, out, "comment")
}

func TestCheckReportsUnknown(t *testing.T) {
	_, err := runCheck(t, "BEGIN\nJUMP 3\nEND\n")
	assert.ErrorIs(t, err, errUnknownTokens)
}

func TestCheckReportsWhitespaceLine(t *testing.T) {
	out, err := runCheck(t, "BEGIN\n  \nEND\n")
	assert.ErrorIs(t, err, errUnknownTokens)
	assert.Contains(t, out, "missing token")
}

func TestCheckMissingScript(t *testing.T) {
	cmd := newCheckCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--script.dir", t.TempDir(), "nope"})
	assert.Error(t, cmd.Execute())
}

func TestNewApp(t *testing.T) {
	a := NewApp()
	assert.Equal(t, commandName, a.Command().Name())
	assert.NotNil(t, a.Command().Flags().Lookup("coordinator.fan-in"))
	assert.NotNil(t, a.Command().Flags().Lookup("config"))
}
