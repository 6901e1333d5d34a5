// Package proc runs the external programs the installer depends on: the
// transfer tool, the runtime interpreter and the setup collaborator.
package proc

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/creack/pty"

	"github.com/gary-dev/gary-install/internal/logging"
	"github.com/gary-dev/gary-install/internal/messages"
)

// Command describes one synchronous subprocess invocation.
type Command struct {
	Path string
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env replaces the environment when non-nil.
	Env []string
	// Quiet discards the child's output.
	Quiet bool
	// Terminal asks for a pseudo-terminal when the runner allows one.
	Terminal bool
}

// String renders the command line for logs and diagnostics.
func (c Command) String() string {
	parts := append([]string{c.Path}, c.Args...)
	return strings.Join(parts, " ")
}

// Runner executes commands. Calls block until the child exits and are not
// cancellable.
type Runner interface {
	Run(cmd Command) error
	Output(cmd Command) ([]byte, error)
}

// RealRunner runs commands with os/exec.
type RealRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	// PTY attaches children that ask for a terminal to a pseudo-terminal so
	// their progress output keeps its formatting. It falls back to plain pipes
	// when a pty cannot be opened.
	PTY bool
}

var (
	execCommand = exec.Command
	ptyStart    = pty.Start
)

// Run executes cmd and returns an error wrapping *exec.ExitError on a non-zero exit.
func (r RealRunner) Run(cmd Command) error {
	log := logging.GetLogger("proc")
	log.Debug().Str("cmd", cmd.String()).Str("dir", cmd.Dir).Bool("quiet", cmd.Quiet).Msg("run")

	c := r.build(cmd)
	if cmd.Quiet {
		return wrapRunErr(cmd, c.Run())
	}
	if r.PTY && cmd.Terminal && r.Stdout != nil {
		ptmx, err := ptyStart(c)
		if err == nil {
			_, _ = io.Copy(r.Stdout, ptmx)
			_ = ptmx.Close()
			return wrapRunErr(cmd, c.Wait())
		}
		log.Debug().Err(err).Msg("pty unavailable; using pipes")
		c = r.build(cmd)
	}
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr
	return wrapRunErr(cmd, c.Run())
}

// Output executes cmd and returns its standard output.
func (r RealRunner) Output(cmd Command) ([]byte, error) {
	log := logging.GetLogger("proc")
	log.Debug().Str("cmd", cmd.String()).Msg("output")
	c := r.build(cmd)
	out, err := c.Output()
	if err != nil {
		return out, wrapRunErr(cmd, err)
	}
	return out, nil
}

func (r RealRunner) build(cmd Command) *exec.Cmd {
	c := execCommand(cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	if cmd.Env != nil {
		c.Env = cmd.Env
	}
	return c
}

func wrapRunErr(cmd Command, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		if stderr != "" {
			return fmt.Errorf(messages.ProcExitStderrFmt, cmd.Path, exitErr.ExitCode(), stderr, err)
		}
		return fmt.Errorf(messages.ProcExitFmt, cmd.Path, exitErr.ExitCode(), err)
	}
	return fmt.Errorf(messages.ProcStartFmt, cmd.Path, err)
}

// ExitCode extracts the child's exit status from an error returned by Run.
func ExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}
