//go:build !windows

package proc

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gary-dev/gary-install/internal/testutil"
)

func TestRealRunner_RunWritesOutputAndUsesDir(t *testing.T) {
	dir := t.TempDir()
	script := testutil.WriteScript(t, dir, "show", "pwd\necho \"$1\"\necho warn >&2\n")

	var stdout, stderr bytes.Buffer
	r := RealRunner{Stdout: &stdout, Stderr: &stderr}
	require.NoError(t, r.Run(Command{Path: script, Args: []string{"hello world"}, Dir: dir}))

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), resolved)
	assert.Contains(t, stdout.String(), "hello world\n")
	assert.Equal(t, "warn\n", stderr.String())
}

func TestRealRunner_RunQuietDiscardsOutput(t *testing.T) {
	dir := t.TempDir()
	script := testutil.WriteScript(t, dir, "noisy", "echo noise\n")

	var stdout bytes.Buffer
	r := RealRunner{Stdout: &stdout, Stderr: &stdout}
	require.NoError(t, r.Run(Command{Path: script, Quiet: true}))
	assert.Empty(t, stdout.String())
}

func TestRealRunner_RunNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteStubWithExit(t, dir, "fail", 3)

	err := RealRunner{}.Run(Command{Path: filepath.Join(dir, "fail"), Quiet: true})
	require.Error(t, err)
	code, ok := ExitCode(err)
	require.True(t, ok)
	assert.Equal(t, 3, code)
	assert.Contains(t, err.Error(), "exited with status 3")
}

func TestRealRunner_RunMissingBinary(t *testing.T) {
	err := RealRunner{}.Run(Command{Path: filepath.Join(t.TempDir(), "nope"), Quiet: true})
	require.Error(t, err)
	_, ok := ExitCode(err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "start")
}

func TestRealRunner_PTYFallsBackToPipes(t *testing.T) {
	orig := ptyStart
	ptyStart = func(*exec.Cmd) (*os.File, error) { return nil, errors.New("no pty") }
	t.Cleanup(func() { ptyStart = orig })

	dir := t.TempDir()
	script := testutil.WriteScript(t, dir, "hi", "echo hi\n")

	var stdout bytes.Buffer
	r := RealRunner{Stdout: &stdout, Stderr: &stdout, PTY: true}
	require.NoError(t, r.Run(Command{Path: script, Terminal: true}))
	assert.Equal(t, "hi\n", stdout.String())
}

func TestRealRunner_PTYPropagatesOutputAndExitCode(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	_ = ptmx.Close()
	_ = tty.Close()

	dir := t.TempDir()
	script := testutil.WriteScript(t, dir, "setup", "echo installing\nexit 4\n")

	var stdout bytes.Buffer
	r := RealRunner{Stdout: &stdout, Stderr: &stdout, PTY: true}
	err = r.Run(Command{Path: script, Terminal: true})
	require.Error(t, err)
	code, ok := ExitCode(err)
	require.True(t, ok)
	assert.Equal(t, 4, code)
	assert.Contains(t, stdout.String(), "installing")
}

func TestRealRunner_Output(t *testing.T) {
	dir := t.TempDir()
	script := testutil.WriteScript(t, dir, "ver", "echo 3.11\n")

	out, err := RealRunner{}.Output(Command{Path: script})
	require.NoError(t, err)
	assert.Equal(t, "3.11\n", string(out))
}

func TestRealRunner_OutputIncludesStderrOnFailure(t *testing.T) {
	dir := t.TempDir()
	script := testutil.WriteScript(t, dir, "broken", "echo 'No module named venv' >&2\nexit 1\n")

	_, err := RealRunner{}.Output(Command{Path: script})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No module named venv")
}

func TestCommandString(t *testing.T) {
	c := Command{Path: "curl", Args: []string{"-fsSL", "-o", "/tmp/x", "https://example.com"}}
	assert.Equal(t, "curl -fsSL -o /tmp/x https://example.com", c.String())
}
