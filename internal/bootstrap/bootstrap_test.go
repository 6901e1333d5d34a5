package bootstrap

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gary-dev/gary-install/internal/archive"
	"github.com/gary-dev/gary-install/internal/config"
	"github.com/gary-dev/gary-install/internal/lock"
	"github.com/gary-dev/gary-install/internal/proc"
	"github.com/gary-dev/gary-install/internal/report"
	"github.com/gary-dev/gary-install/internal/shellpath"
	"github.com/gary-dev/gary-install/internal/testutil"
)

type fakeProbe struct {
	paths   map[string]string
	version string
}

func (f fakeProbe) LookPath(name string) (string, error) {
	if p, ok := f.paths[name]; ok {
		return p, nil
	}
	return "", exec.ErrNotFound
}

func (f fakeProbe) Output(string, ...string) ([]byte, error) {
	return []byte(f.version + "\n"), nil
}

// fakeRunner plays curl, venv, pip and the setup script.
type fakeRunner struct {
	t       *testing.T
	tarball []byte
	fail    map[string]bool
	cmds    []proc.Command
}

func (f *fakeRunner) Run(cmd proc.Command) error {
	f.cmds = append(f.cmds, cmd)
	role := roleOf(cmd)
	if f.fail[role] {
		return errors.New(role + " exited with status 1")
	}
	switch role {
	case "curl":
		return os.WriteFile(cmd.Args[2], f.tarball, 0o600)
	case "venv":
		bin := filepath.Join(cmd.Args[2], "bin")
		require.NoError(f.t, os.MkdirAll(bin, 0o755))
		return os.WriteFile(filepath.Join(bin, "python"), []byte("#!/bin/sh\n"), 0o755)
	}
	return nil
}

func (f *fakeRunner) Output(proc.Command) ([]byte, error) { return nil, nil }

func (f *fakeRunner) roles() []string {
	roles := make([]string, 0, len(f.cmds))
	for _, c := range f.cmds {
		roles = append(roles, roleOf(c))
	}
	return roles
}

func roleOf(cmd proc.Command) string {
	switch {
	case filepath.Base(cmd.Path) == "curl":
		return "curl"
	case len(cmd.Args) > 1 && cmd.Args[1] == "venv":
		return "venv"
	case len(cmd.Args) > 1 && cmd.Args[1] == "pip":
		return "pip"
	case len(cmd.Args) > 0 && strings.HasSuffix(cmd.Args[0], "setup.py"):
		return "setup"
	}
	return cmd.Path
}

type fixture struct {
	home    string
	tmp     string
	cfg     config.Config
	layout  config.Layout
	runner  *fakeRunner
	out     *bytes.Buffer
	options Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })

	home := t.TempDir()
	tmp := t.TempDir()
	cfg := config.Defaults("linux", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".bashrc"), []byte("# bashrc\n"), 0o644))

	runner := &fakeRunner{t: t, fail: map[string]bool{}, tarball: testutil.TarGz(t, map[string]string{
		"gary-main/":               "",
		"gary-main/stm32_agent.py": "print('agent')",
		"gary-main/setup.py":       "# setup",
	})}
	out := &bytes.Buffer{}
	f := &fixture{home: home, tmp: tmp, cfg: cfg, layout: cfg.Layout("linux"), runner: runner, out: out}
	f.options = Options{
		Config:   cfg,
		Reporter: report.New(out),
		Home:     home,
		GOOS:     "linux",
		Runner:   runner,
		Probe: fakeProbe{
			paths:   map[string]string{"python3.11": "/usr/bin/python3.11", "curl": "/usr/bin/curl"},
			version: "3.11",
		},
		TempDir: tmp,
		Now:     func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local) },
	}
	return f
}

func (f *fixture) assertTempEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "artifact must not outlive the run")
}

func (f *fixture) assertLockFree(t *testing.T) {
	t.Helper()
	l, err := lock.Acquire(f.layout.LockPath)
	require.NoError(t, err)
	require.NoError(t, l.Release())
}

func TestRun_FullPipeline(t *testing.T) {
	f := newFixture(t)

	res, err := Run(f.options)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "python3.11", res.Interpreter.Name)
	assert.Equal(t, "curl", res.Transfer.Name)
	assert.Equal(t, []string{"curl", "venv", "pip", "setup"}, f.runner.roles())

	setup := f.runner.cmds[3]
	assert.Equal(t, f.layout.RuntimePython, setup.Path)
	assert.Equal(t, []string{f.layout.SetupScript, "--auto"}, setup.Args)
	assert.Equal(t, f.layout.InstallDir, setup.Dir)

	snap := testutil.SnapshotDir(t, f.layout.InstallDir)
	assert.Equal(t, "print('agent')", snap["stm32_agent.py"])
	assert.Empty(t, res.Install.Backup)

	launcher, err := os.ReadFile(f.layout.LauncherPath)
	require.NoError(t, err)
	assert.Contains(t, string(launcher), "exec '"+f.layout.RuntimePython+"' '"+f.layout.EntryPoint+"' \"$@\"")

	bashrc, err := os.ReadFile(filepath.Join(f.home, ".bashrc"))
	require.NoError(t, err)
	assert.Equal(t, "# bashrc\n"+`export PATH="$HOME/.local/bin:$PATH"  # added by gary-install`+"\n", string(bashrc))
	assert.Equal(t, shellpath.StatusAppended, res.Path.Status)

	f.assertTempEmpty(t)
	f.assertLockFree(t)
	assert.Contains(t, f.out.String(), "[8/8]")
}

func TestRun_SecondRunBacksUpAndLeavesRCFileAlone(t *testing.T) {
	f := newFixture(t)
	_, err := Run(f.options)
	require.NoError(t, err)
	first := testutil.SnapshotDir(t, f.layout.InstallDir)
	bashrc, err := os.ReadFile(filepath.Join(f.home, ".bashrc"))
	require.NoError(t, err)

	f.out.Reset()
	res, err := Run(f.options)
	require.NoError(t, err)
	assert.Equal(t, f.layout.InstallDir+".bak.20260102-030405", res.Install.Backup)
	assert.Equal(t, first, testutil.SnapshotDir(t, res.Install.Backup))
	assert.Equal(t, shellpath.StatusPresent, res.Path.Status)
	assert.Contains(t, f.out.String(), "WARN")

	after, err := os.ReadFile(filepath.Join(f.home, ".bashrc"))
	require.NoError(t, err)
	assert.Equal(t, bashrc, after)

	backups, err := archive.ListBackups(nil, f.layout.InstallDir)
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestRun_TransferFailureLeavesExistingInstallUntouched(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(f.layout.InstallDir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.layout.InstallDir, "stm32_agent.py"), []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.layout.InstallDir, "lib", "x.py"), []byte("x"), 0o644))
	before := testutil.SnapshotDir(t, f.layout.InstallDir)
	f.runner.fail["curl"] = true

	_, err := Run(f.options)
	require.Error(t, err)
	var bootErr *Error
	require.True(t, errors.As(err, &bootErr))
	assert.Equal(t, KindDownloadFailure, bootErr.Kind)
	assert.Contains(t, bootErr.Hint, config.DefaultMirrorURL)
	assert.Equal(t, []string{"curl"}, f.runner.roles())

	assert.Equal(t, before, testutil.SnapshotDir(t, f.layout.InstallDir))
	backups, err := archive.ListBackups(nil, f.layout.InstallDir)
	require.NoError(t, err)
	assert.Empty(t, backups)
	f.assertTempEmpty(t)
	f.assertLockFree(t)
}

func TestRun_ConcurrentRunFailsFast(t *testing.T) {
	f := newFixture(t)
	held, err := lock.Acquire(f.layout.LockPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = held.Release() })

	_, err = Run(f.options)
	require.Error(t, err)
	assert.Equal(t, KindConcurrentRun, KindOf(err))
	assert.True(t, errors.Is(err, lock.ErrLocked))
	assert.Empty(t, f.runner.cmds, "nothing is fetched while another run holds the lock")
}

func TestRun_NoInterpreter(t *testing.T) {
	f := newFixture(t)
	f.options.Probe = fakeProbe{paths: map[string]string{"python3": "/usr/bin/python3", "curl": "/usr/bin/curl"}, version: "3.6"}

	_, err := Run(f.options)
	var bootErr *Error
	require.True(t, errors.As(err, &bootErr))
	assert.Equal(t, KindEnvironmentMissing, bootErr.Kind)
	assert.Contains(t, bootErr.Err.Error(), "python3 (3.6)")
	assert.NotEmpty(t, bootErr.Hint)
	assert.Empty(t, f.runner.cmds)
}

func TestRun_NoTransferTool(t *testing.T) {
	f := newFixture(t)
	f.options.Probe = fakeProbe{paths: map[string]string{"python3.11": "/usr/bin/python3.11"}, version: "3.11"}

	_, err := Run(f.options)
	var bootErr *Error
	require.True(t, errors.As(err, &bootErr))
	assert.Equal(t, KindEnvironmentMissing, bootErr.Kind)
	assert.Contains(t, bootErr.Hint, "curl")
}

func TestRun_StepFailureKinds(t *testing.T) {
	tests := []struct {
		fail string
		kind Kind
	}{
		{fail: "venv", kind: KindProvisioningFailure},
		{fail: "pip", kind: KindProvisioningFailure},
		{fail: "setup", kind: KindDependencyInstallFailure},
	}
	for _, tt := range tests {
		t.Run(tt.fail, func(t *testing.T) {
			f := newFixture(t)
			f.runner.fail[tt.fail] = true

			_, err := Run(f.options)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			f.assertTempEmpty(t)
			f.assertLockFree(t)
			_, statErr := os.Stat(f.layout.LauncherPath)
			assert.True(t, errors.Is(statErr, os.ErrNotExist), "no launcher after a failed step")
		})
	}
}

func TestRun_CorruptArchiveIsExtractionFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.tarball = []byte("<html>rate limited</html>")

	_, err := Run(f.options)
	assert.Equal(t, KindExtractionFailure, KindOf(err))
	f.assertTempEmpty(t)
}

func TestError_Format(t *testing.T) {
	err := &Error{Kind: KindWriteFailure, Step: "Writing launcher", Err: errors.New("disk full")}
	assert.Equal(t, "WriteFailure (Writing launcher): disk full", err.Error())
	assert.Equal(t, "ConfigInvalid: bad", (&Error{Kind: KindConfigInvalid, Err: errors.New("bad")}).Error())
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
