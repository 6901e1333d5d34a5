// Package venv provisions the isolated runtime inside the installation root
// and hands dependency installation to the package's own setup script.
package venv

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/gary-dev/gary-install/internal/config"
	"github.com/gary-dev/gary-install/internal/logging"
	"github.com/gary-dev/gary-install/internal/messages"
	"github.com/gary-dev/gary-install/internal/proc"
)

// AutoFlag asks the setup script for unattended operation.
const AutoFlag = "--auto"

var (
	// ErrSetupMissing is returned when the extracted package has no setup script.
	ErrSetupMissing = errors.New(messages.VenvSetupMissing)

	osStat = os.Stat
)

// Provisioner creates runtimes and runs the setup script through Runner.
type Provisioner struct {
	Runner proc.Runner
	// GOOS selects the runtime layout; empty means runtime.GOOS.
	GOOS string
}

// Create builds a fresh isolated runtime at dir using interpreter and
// upgrades its pip quietly. It returns the runtime's own interpreter path.
func (p Provisioner) Create(interpreter string, dir string) (string, error) {
	log := logging.GetLogger("venv")
	start := time.Now()
	goos := p.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	create := proc.Command{Path: interpreter, Args: []string{"-m", "venv", dir}, Quiet: true}
	if err := p.Runner.Run(create); err != nil {
		return "", fmt.Errorf(messages.VenvCreateFmt, dir, err)
	}
	python := config.RuntimePython(dir, goos)
	if _, err := osStat(python); err != nil {
		return "", fmt.Errorf(messages.VenvPythonMissingFmt, python, err)
	}
	log.Info().Str("dir", dir).Str("python", python).Msg("runtime created")

	upgrade := proc.Command{Path: python, Args: []string{"-m", "pip", "install", "--upgrade", "pip", "-q"}, Quiet: true}
	if err := p.Runner.Run(upgrade); err != nil {
		return "", fmt.Errorf(messages.VenvUpgradePipFmt, err)
	}
	logging.LogDuration(log, start, "provision runtime")
	return python, nil
}

// Setup runs script with the runtime's python, once, from workDir. AutoFlag
// is always passed first; args follow it.
func (p Provisioner) Setup(python string, script string, workDir string, args ...string) error {
	log := logging.GetLogger("venv")
	if _, err := osStat(script); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf(messages.VenvSetupMissingFmt, ErrSetupMissing, script)
		}
		return fmt.Errorf(messages.VenvSetupStatFmt, script, err)
	}
	start := time.Now()
	argv := []string{script, AutoFlag}
	for _, arg := range args {
		if arg != AutoFlag {
			argv = append(argv, arg)
		}
	}
	cmd := proc.Command{Path: python, Args: argv, Dir: workDir, Terminal: true}
	if err := p.Runner.Run(cmd); err != nil {
		return fmt.Errorf(messages.VenvSetupFailedFmt, script, err)
	}
	logging.LogDuration(log, start, "setup script")
	return nil
}
