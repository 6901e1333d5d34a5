package probe

import (
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gary-dev/gary-install/internal/config"
)

// fakeSystem maps candidate names to paths and paths to version output.
type fakeSystem struct {
	paths    map[string]string
	versions map[string]string
	noVenv   map[string]bool
	queried  []string
	lookedUp []string
}

func (f *fakeSystem) LookPath(file string) (string, error) {
	f.lookedUp = append(f.lookedUp, file)
	if p, ok := f.paths[file]; ok {
		return p, nil
	}
	return "", exec.ErrNotFound
}

func (f *fakeSystem) Output(path string, args ...string) ([]byte, error) {
	if len(args) == 2 && args[1] == isolationScript {
		if f.noVenv[path] {
			return nil, errors.New("ModuleNotFoundError: No module named 'venv'")
		}
		return nil, nil
	}
	f.queried = append(f.queried, path)
	v, ok := f.versions[path]
	if !ok {
		return nil, fmt.Errorf("boom")
	}
	return []byte(v + "\n"), nil
}

var py38 = Requirement{Major: 3, MinMinor: 8}

func TestSelectInterpreter_FirstAcceptableWins(t *testing.T) {
	sys := &fakeSystem{
		paths:    map[string]string{"py36": "/usr/bin/py36", "py39": "/usr/bin/py39", "py310": "/usr/bin/py310"},
		versions: map[string]string{"/usr/bin/py36": "3.6", "/usr/bin/py39": "3.9", "/usr/bin/py310": "3.10"},
	}
	got, err := SelectInterpreter(sys, []string{"py36", "py39", "py310"}, py38)
	require.NoError(t, err)
	assert.Equal(t, "py39", got.Name)
	assert.Equal(t, Version{3, 9}, got.Version)
	assert.Equal(t, []string{"/usr/bin/py36", "/usr/bin/py39"}, sys.queried, "3.10 must never be queried")
}

func TestSelectInterpreter_SkipsMissingAndBroken(t *testing.T) {
	sys := &fakeSystem{
		paths:    map[string]string{"python3": "/usr/bin/python3", "python": "/usr/bin/python"},
		versions: map[string]string{"/usr/bin/python": "Python 3.12.1"},
	}
	got, err := SelectInterpreter(sys, []string{"python3.13", "python3", "python"}, py38)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/python", got.Path)
}

func TestSelectInterpreter_NoneAcceptable(t *testing.T) {
	sys := &fakeSystem{
		paths:    map[string]string{"python": "/usr/bin/python", "python3": "/usr/bin/python3"},
		versions: map[string]string{"/usr/bin/python": "2.7", "/usr/bin/python3": "3.7"},
	}
	_, err := SelectInterpreter(sys, []string{"python3", "python"}, py38)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoInterpreter))
	assert.Contains(t, err.Error(), "python3 (3.7)")
	assert.Contains(t, err.Error(), "python (2.7)")
	assert.Contains(t, err.Error(), "3.8+")
}

func TestSelectInterpreter_NothingOnPath(t *testing.T) {
	_, err := SelectInterpreter(&fakeSystem{}, []string{"python3"}, py38)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoInterpreter))
	assert.Contains(t, err.Error(), "none found on PATH")
}

func TestSelectInterpreter_MajorMustMatch(t *testing.T) {
	sys := &fakeSystem{
		paths:    map[string]string{"python4": "/usr/bin/python4"},
		versions: map[string]string{"/usr/bin/python4": "4.0"},
	}
	_, err := SelectInterpreter(sys, []string{"python4"}, py38)
	assert.True(t, errors.Is(err, ErrNoInterpreter))
}

func TestSelectInterpreter_NoIsolation(t *testing.T) {
	sys := &fakeSystem{
		paths:    map[string]string{"python3": "/usr/bin/python3"},
		versions: map[string]string{"/usr/bin/python3": "3.11"},
		noVenv:   map[string]bool{"/usr/bin/python3": true},
	}
	_, err := SelectInterpreter(sys, []string{"python3"}, py38)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoIsolation))
	assert.Contains(t, err.Error(), "No module named 'venv'")
}

func TestSelectTransfer(t *testing.T) {
	sys := &fakeSystem{paths: map[string]string{"wget": "/usr/bin/wget"}}
	got, err := SelectTransfer(sys, []string{config.TransferCurl, config.TransferWget})
	require.NoError(t, err)
	assert.Equal(t, Transfer{Name: "wget", Path: "/usr/bin/wget"}, got)

	got, err = SelectTransfer(&fakeSystem{}, []string{config.TransferCurl, config.TransferHTTP})
	require.NoError(t, err)
	assert.Equal(t, Transfer{Name: config.TransferHTTP}, got)

	_, err = SelectTransfer(&fakeSystem{}, []string{config.TransferCurl, config.TransferWget})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoTransfer))
	assert.Contains(t, err.Error(), "curl, wget")
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want Version
		ok   bool
	}{
		{in: "3.9", want: Version{3, 9}, ok: true},
		{in: "Python 3.10.4\n", want: Version{3, 10}, ok: true},
		{in: "garbage", ok: false},
	}
	for _, tt := range tests {
		got, err := ParseVersion(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestRequirementAccepts(t *testing.T) {
	assert.False(t, py38.Accepts(Version{3, 7}))
	assert.True(t, py38.Accepts(Version{3, 8}))
	assert.True(t, py38.Accepts(Version{3, 13}))
	assert.False(t, py38.Accepts(Version{2, 9}))
	assert.Equal(t, "3.8+", py38.String())
}
