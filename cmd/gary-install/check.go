package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gary-dev/gary-install/internal/config"
	"github.com/gary-dev/gary-install/internal/launchers"
	"github.com/gary-dev/gary-install/internal/messages"
	"github.com/gary-dev/gary-install/internal/probe"
	"github.com/gary-dev/gary-install/internal/proc"
	"github.com/gary-dev/gary-install/internal/report"
	"github.com/gary-dev/gary-install/internal/shellpath"
)

var (
	newProbeSystem = func() probe.System { return probe.RealSystem{Runner: proc.RealRunner{}} }
	readFile       = os.ReadFile
	statFile       = os.Stat
)

type checkResult struct {
	status report.Status
	name   string
	msg    string
	hint   string
	// detail is printed verbatim below the line, e.g. a diff.
	detail string
}

func newCheckCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.CheckUse,
		Short: messages.CheckShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := report.New(cmd.OutOrStdout())
			cfg, home, err := resolveConfig(flags, rep)
			if err != nil {
				return err
			}
			layout := cfg.Layout(goos)
			rep.Header(messages.CheckHeaderFmt, layout.InstallDir)

			failed := false
			for _, r := range collectChecks(cfg, layout, home, newProbeSystem()) {
				rep.Check(r.status, r.name, r.msg, r.hint)
				if r.detail != "" {
					rep.Block(r.detail)
				}
				if r.status == report.StatusFail {
					failed = true
				}
			}
			if failed {
				rep.Fail(messages.CheckFailedLabel, messages.CheckFailedSummary, "")
				return &SilentExitError{Code: 1}
			}
			rep.Summary(messages.CheckOKSummary)
			return nil
		},
	}
}

func collectChecks(cfg config.Config, layout config.Layout, home string, sys probe.System) []checkResult {
	return []checkResult{
		checkInterpreter(cfg, sys),
		checkTransfer(cfg, sys),
		checkPathExists(messages.CheckNameInstallDir, layout.InstallDir, messages.CheckReinstallHint),
		checkPathExists(messages.CheckNameEntryPoint, layout.EntryPoint, messages.CheckReinstallHint),
		checkPathExists(messages.CheckNameRuntime, layout.RuntimePython, messages.CheckReinstallHint),
		checkLauncher(layout),
		checkShellPath(layout, home),
	}
}

func checkInterpreter(cfg config.Config, sys probe.System) checkResult {
	res := checkResult{name: messages.CheckNameInterpreter}
	req := probe.Requirement{Major: cfg.Runtime.Major, MinMinor: cfg.Runtime.MinMinor}
	interp, err := probe.SelectInterpreter(sys, cfg.Runtime.Interpreters, req)
	if err != nil {
		res.status = report.StatusFail
		res.msg = err.Error()
		res.hint = messages.ProbeNoInterpreterHint
		if errors.Is(err, probe.ErrNoIsolation) {
			res.hint = messages.ProbeNoIsolationHint
		}
		return res
	}
	res.msg = fmt.Sprintf(messages.CheckInterpreterFmt, interp.Name, interp.Version, interp.Path)
	return res
}

func checkTransfer(cfg config.Config, sys probe.System) checkResult {
	res := checkResult{name: messages.CheckNameTransfer}
	transfer, err := probe.SelectTransfer(sys, cfg.Transfer.Tools)
	if err != nil {
		res.status = report.StatusFail
		res.msg = err.Error()
		res.hint = messages.ProbeNoTransferHint
		return res
	}
	res.msg = transfer.Name
	if transfer.Path != "" {
		res.msg = fmt.Sprintf(messages.CheckTransferFmt, transfer.Name, transfer.Path)
	}
	return res
}

func checkPathExists(name string, path string, hint string) checkResult {
	if _, err := statFile(path); err != nil {
		return checkResult{status: report.StatusFail, name: name, msg: fmt.Sprintf(messages.CheckMissingFmt, path), hint: hint}
	}
	return checkResult{name: name, msg: path}
}

func checkLauncher(layout config.Layout) checkResult {
	res := checkResult{name: messages.CheckNameLauncher, msg: layout.LauncherPath}
	current, err := readFile(layout.LauncherPath)
	if err != nil {
		res.status = report.StatusFail
		res.msg = fmt.Sprintf(messages.CheckMissingFmt, layout.LauncherPath)
		res.hint = messages.CheckReinstallHint
		return res
	}
	want, err := launchers.Render(launchers.Launcher{
		Path:       layout.LauncherPath,
		Python:     layout.RuntimePython,
		EntryPoint: layout.EntryPoint,
		GOOS:       layout.GOOS,
	})
	if err != nil {
		res.status = report.StatusFail
		res.msg = err.Error()
		return res
	}
	if !bytes.Equal(current, want) {
		res.status = report.StatusWarn
		res.msg = fmt.Sprintf(messages.CheckLauncherStaleFmt, layout.LauncherPath)
		res.hint = messages.CheckReinstallHint
	}
	return res
}

func checkShellPath(layout config.Layout, home string) checkResult {
	res := checkResult{name: messages.CheckNamePath}
	line := shellpath.ExportLine(layout.LauncherDir, home)
	first := ""
	var firstContent []byte
	for _, rc := range layout.RCFiles {
		content, err := readFile(rc)
		if err != nil {
			continue
		}
		if shellpath.References(content, layout.LauncherDir, home) {
			if !onPath(layout.LauncherDir) {
				res.status = report.StatusWarn
				res.msg = fmt.Sprintf(messages.CheckPathInactiveFmt, rc)
				res.hint = fmt.Sprintf(messages.ShellReloadHintFmt, line)
				return res
			}
			res.msg = fmt.Sprintf(messages.CheckPathConfiguredFmt, rc)
			return res
		}
		if first == "" {
			first, firstContent = rc, content
		}
	}
	if onPath(layout.LauncherDir) {
		res.msg = fmt.Sprintf(messages.CheckPathFromEnvFmt, layout.LauncherDir)
		return res
	}
	res.status = report.StatusWarn
	if first == "" {
		res.msg = messages.ShellNoRCFile
		res.hint = fmt.Sprintf(messages.ShellManualHintFmt, line)
		return res
	}
	res.msg = fmt.Sprintf(messages.CheckPathPendingFmt, first)
	res.detail = shellpath.Preview(first, firstContent, layout.LauncherDir, home)
	return res
}

// onPath reports whether dir is listed in the current PATH.
func onPath(dir string) bool {
	want := filepath.Clean(dir)
	for _, entry := range filepath.SplitList(getenv("PATH")) {
		if entry != "" && filepath.Clean(entry) == want {
			return true
		}
	}
	return false
}
