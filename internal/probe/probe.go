// Package probe inspects the host for a usable runtime interpreter and a
// transfer tool. Candidates are tried in the configured order and the first
// acceptable one wins; there is no scoring across candidates.
package probe

import (
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/gary-dev/gary-install/internal/config"
	"github.com/gary-dev/gary-install/internal/logging"
	"github.com/gary-dev/gary-install/internal/messages"
	"github.com/gary-dev/gary-install/internal/proc"
)

// Sentinel errors for the three ways the probe can fail.
var (
	ErrNoInterpreter = errors.New(messages.ProbeNoInterpreter)
	ErrNoIsolation   = errors.New(messages.ProbeNoIsolation)
	ErrNoTransfer    = errors.New(messages.ProbeNoTransfer)
)

const (
	versionScript   = `import sys; print("%d.%d" % sys.version_info[:2])`
	isolationScript = "import venv, ensurepip"
)

// System abstracts the host lookups the probe needs.
type System interface {
	LookPath(file string) (string, error)
	Output(path string, args ...string) ([]byte, error)
}

// RealSystem implements System with exec.LookPath and a proc.Runner.
type RealSystem struct {
	Runner proc.Runner
}

// LookPath searches PATH for file.
func (RealSystem) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Output runs path with args and returns stdout.
func (s RealSystem) Output(path string, args ...string) ([]byte, error) {
	return s.Runner.Output(proc.Command{Path: path, Args: args})
}

// Version is a major.minor interpreter version.
type Version struct {
	Major int
	Minor int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Requirement accepts versions with exactly Major and at least MinMinor.
type Requirement struct {
	Major    int
	MinMinor int
}

// Accepts reports whether v satisfies r.
func (r Requirement) Accepts(v Version) bool {
	return v.Major == r.Major && v.Minor >= r.MinMinor
}

func (r Requirement) String() string {
	return fmt.Sprintf("%d.%d+", r.Major, r.MinMinor)
}

// Interpreter is the selected runtime.
type Interpreter struct {
	Name    string
	Path    string
	Version Version
}

// Transfer is the selected download mechanism. Path is empty for the
// in-process http mechanism.
type Transfer struct {
	Name string
	Path string
}

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)`)

// ParseVersion extracts major.minor from interpreter output such as "3.9"
// or "Python 3.9.18".
func ParseVersion(out string) (Version, error) {
	m := versionPattern.FindStringSubmatch(out)
	if m == nil {
		return Version{}, fmt.Errorf(messages.ProbeParseVersionFmt, strings.TrimSpace(out))
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	return Version{Major: major, Minor: minor}, nil
}

// SelectInterpreter returns the first candidate present on the host whose
// version satisfies req, then checks it can create isolated environments.
func SelectInterpreter(sys System, candidates []string, req Requirement) (Interpreter, error) {
	log := logging.GetLogger("probe")
	var rejected []string
	for _, name := range candidates {
		path, err := sys.LookPath(name)
		if err != nil {
			log.Debug().Str("candidate", name).Msg("not on PATH")
			continue
		}
		out, err := sys.Output(path, "-c", versionScript)
		if err != nil {
			log.Debug().Str("candidate", name).Err(err).Msg("version query failed")
			rejected = append(rejected, fmt.Sprintf("%s (unusable)", name))
			continue
		}
		version, err := ParseVersion(string(out))
		if err != nil {
			rejected = append(rejected, fmt.Sprintf("%s (unknown version)", name))
			continue
		}
		if !req.Accepts(version) {
			log.Debug().Str("candidate", name).Str("version", version.String()).Msg("version rejected")
			rejected = append(rejected, fmt.Sprintf("%s (%s)", name, version))
			continue
		}

		found := Interpreter{Name: name, Path: path, Version: version}
		if _, err := sys.Output(path, "-c", isolationScript); err != nil {
			return Interpreter{}, fmt.Errorf(messages.ProbeNoIsolationFmt, ErrNoIsolation, path, version, err)
		}
		log.Info().Str("interpreter", path).Str("version", version.String()).Msg("interpreter selected")
		return found, nil
	}

	tried := "none found on PATH"
	if len(rejected) > 0 {
		tried = strings.Join(rejected, ", ")
	}
	return Interpreter{}, fmt.Errorf(messages.ProbeNoInterpreterFmt, ErrNoInterpreter, req, tried)
}

// SelectTransfer returns the first available transfer mechanism from tools.
func SelectTransfer(sys System, tools []string) (Transfer, error) {
	for _, tool := range tools {
		if tool == config.TransferHTTP {
			return Transfer{Name: tool}, nil
		}
		if path, err := sys.LookPath(tool); err == nil {
			return Transfer{Name: tool, Path: path}, nil
		}
	}
	return Transfer{}, fmt.Errorf(messages.ProbeNoTransferFmt, ErrNoTransfer, strings.Join(tools, ", "))
}
