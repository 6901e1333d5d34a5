// Package bootstrap runs the install pipeline: probe the host, take the
// install lock, fetch and unpack the package, provision its runtime, write
// the launcher and put it on PATH. The first failing step ends the run.
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gary-dev/gary-install/internal/archive"
	"github.com/gary-dev/gary-install/internal/config"
	"github.com/gary-dev/gary-install/internal/fetch"
	"github.com/gary-dev/gary-install/internal/launchers"
	"github.com/gary-dev/gary-install/internal/lock"
	"github.com/gary-dev/gary-install/internal/logging"
	"github.com/gary-dev/gary-install/internal/messages"
	"github.com/gary-dev/gary-install/internal/probe"
	"github.com/gary-dev/gary-install/internal/proc"
	"github.com/gary-dev/gary-install/internal/report"
	"github.com/gary-dev/gary-install/internal/shellpath"
)

var newRunID = uuid.NewString

// Options carries everything one run needs. Zero-valued collaborators fall
// back to the real implementations.
type Options struct {
	Config   config.Config
	Reporter *report.Reporter
	// Home anchors the PATH export line; GOOS selects platform layouts.
	Home string
	GOOS string

	Runner    proc.Runner
	Probe     probe.System
	Archive   archive.System
	Launchers launchers.System
	Shell     shellpath.System
	// TempDir holds the downloaded artifact; empty means os.TempDir().
	TempDir string
	Now     func() time.Time

	// HandleSignals installs the SIGINT/SIGTERM cleanup handler.
	HandleSignals bool
	// Exit ends the process from the signal handler; nil means os.Exit.
	Exit func(int)
}

// Result summarizes a completed run.
type Result struct {
	RunID         string
	Interpreter   probe.Interpreter
	Transfer      probe.Transfer
	Install       archive.Result
	RuntimePython string
	Launcher      string
	Path          shellpath.Result
}

type step struct {
	title string
	kind  Kind
	run   func() error
	hint  func(err error) string
}

// run is the state of one invocation.
type run struct {
	opts     Options
	layout   config.Layout
	rep      *report.Reporter
	log      zerolog.Logger
	cleanups *registry
	result   Result

	artifact       *fetch.Artifact
	forgetArtifact func()
}

// Run executes the pipeline and returns the first failure as an *Error.
func Run(opts Options) (Result, error) {
	r := newRun(opts)
	start := time.Now()
	r.log.Info().Str("install_dir", r.layout.InstallDir).Str("url", opts.Config.Source.URL).Msg("bootstrap started")

	if opts.HandleSignals {
		exit := opts.Exit
		if exit == nil {
			exit = os.Exit
		}
		stop := r.cleanups.watch(func(os.Signal) {
			r.rep.Warn(messages.BootstrapInterrupted, "")
		}, exit)
		defer stop()
	}
	defer r.cleanups.releaseAll()

	r.rep.Header(messages.BootstrapHeaderFmt, r.layout.InstallDir)
	steps := r.steps()
	for i, s := range steps {
		r.rep.Step(i+1, len(steps), s.title)
		if err := s.run(); err != nil {
			hint := ""
			if s.hint != nil {
				hint = s.hint(err)
			}
			r.log.Info().Err(err).Str("step", s.title).Str("kind", string(s.kind)).Msg("step failed")
			return r.result, &Error{Kind: s.kind, Step: s.title, Hint: hint, Err: err}
		}
	}
	r.summary()
	logging.LogDuration(r.log, start, "bootstrap")
	return r.result, nil
}

func newRun(opts Options) *run {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.Runner == nil {
		opts.Runner = proc.RealRunner{Stdout: os.Stdout, Stderr: os.Stderr}
	}
	if opts.Probe == nil {
		opts.Probe = probe.RealSystem{Runner: opts.Runner}
	}
	if opts.Archive == nil {
		opts.Archive = archive.RealSystem{}
	}
	if opts.Launchers == nil {
		opts.Launchers = launchers.RealSystem{}
	}
	if opts.Shell == nil {
		opts.Shell = shellpath.RealSystem{}
	}
	runID := newRunID()
	return &run{
		opts:     opts,
		layout:   opts.Config.Layout(opts.GOOS),
		rep:      opts.Reporter,
		log:      logging.GetLogger("bootstrap").With().Str("run", runID).Logger(),
		cleanups: newRegistry(),
		result:   Result{RunID: runID},
	}
}

func (r *run) steps() []step {
	return []step{
		{title: messages.StepProbe, kind: KindEnvironmentMissing, run: r.probe, hint: probeHint},
		{title: messages.StepLock, kind: KindConcurrentRun, run: r.lock, hint: r.lockHint},
		{title: messages.StepFetch, kind: KindDownloadFailure, run: r.fetch, hint: r.fetchHint},
		{title: messages.StepExtract, kind: KindExtractionFailure, run: r.extract, hint: r.extractHint},
		{title: messages.StepRuntime, kind: KindProvisioningFailure, run: r.provision, hint: r.provisionHint},
		{title: messages.StepSetup, kind: KindDependencyInstallFailure, run: r.setup, hint: r.setupHint},
		{title: messages.StepLauncher, kind: KindWriteFailure, run: r.launcher, hint: r.launcherHint},
		{title: messages.StepPath, kind: KindWriteFailure, run: r.path, hint: r.pathHint},
	}
}

func (r *run) probe() error {
	cfg := r.opts.Config
	req := probe.Requirement{Major: cfg.Runtime.Major, MinMinor: cfg.Runtime.MinMinor}
	interp, err := probe.SelectInterpreter(r.opts.Probe, cfg.Runtime.Interpreters, req)
	if err != nil {
		return err
	}
	r.result.Interpreter = interp
	r.rep.OK(messages.ProbeFoundInterpreterFmt, interp.Name, interp.Version, interp.Path)

	transfer, err := probe.SelectTransfer(r.opts.Probe, cfg.Transfer.Tools)
	if err != nil {
		return err
	}
	r.result.Transfer = transfer
	if transfer.Path == "" {
		r.rep.OK(messages.ProbeFoundBuiltinTransferFmt, transfer.Name)
	} else {
		r.rep.OK(messages.ProbeFoundTransferFmt, transfer.Name, transfer.Path)
	}
	return nil
}

func probeHint(err error) string {
	switch {
	case errors.Is(err, probe.ErrNoIsolation):
		return messages.ProbeNoIsolationHint
	case errors.Is(err, probe.ErrNoTransfer):
		return messages.ProbeNoTransferHint
	default:
		return messages.ProbeNoInterpreterHint
	}
}

func (r *run) lock() error {
	if err := os.MkdirAll(filepath.Dir(r.layout.LockPath), 0o755); err != nil {
		return fmt.Errorf(messages.LockOpenFmt, r.layout.LockPath, err)
	}
	l, err := lock.Acquire(r.layout.LockPath)
	if err != nil {
		return err
	}
	r.cleanups.add("install lock", l.Release)
	r.log.Debug().Str("lock", l.Path()).Msg("install lock held")
	r.rep.OK(messages.LockAcquiredFmt, l.Path())
	return nil
}

func (r *run) lockHint(err error) string {
	if errors.Is(err, lock.ErrLocked) {
		return fmt.Sprintf(messages.LockHeldHintFmt, r.layout.LockPath)
	}
	return ""
}

func (r *run) fetch() error {
	f := fetch.Fetcher{Transfer: r.result.Transfer, Runner: r.opts.Runner, TempDir: r.opts.TempDir}
	r.rep.Info(messages.FetchStartFmt, r.opts.Config.Source.URL)
	artifact, err := f.Fetch(r.opts.Config.Source.URL)
	if err != nil {
		return err
	}
	r.artifact = artifact
	r.forgetArtifact = r.cleanups.add("artifact", artifact.Release)
	r.rep.OK(messages.FetchDoneFmt, artifact.Name())
	return nil
}

func (r *run) fetchHint(error) string {
	if r.opts.Config.Source.MirrorURL == "" {
		return messages.FetchNoMirrorHint
	}
	return fmt.Sprintf(messages.FetchHintFmt, r.opts.Config.Source.MirrorURL, config.EnvURL)
}

func (r *run) extract() error {
	installer := archive.Installer{Target: r.layout.InstallDir, Now: r.opts.Now, System: r.opts.Archive}
	res, err := installer.Install(r.artifact)
	// Install has released the artifact on every path.
	r.forgetArtifact()
	r.result.Install = res
	if res.Backup != "" {
		r.rep.OK(messages.ArchiveBackedUpFmt, res.Backup)
	}
	if err != nil {
		return err
	}
	r.rep.OK(messages.ArchiveExtractedFmt, res.Files, res.Target)
	return nil
}

func (r *run) extractHint(error) string {
	if r.result.Install.Backup != "" {
		return fmt.Sprintf(messages.ArchiveRestoreHintFmt, r.result.Install.Backup, r.layout.InstallDir)
	}
	return ""
}

func (r *run) provision() error {
	p := venvProvisioner(r)
	python, err := p.Create(r.result.Interpreter.Path, r.layout.RuntimeDir)
	if err != nil {
		return err
	}
	r.result.RuntimePython = python
	r.rep.OK(messages.VenvCreatedFmt, r.layout.RuntimeDir)
	return nil
}

func (r *run) provisionHint(error) string {
	return fmt.Sprintf(messages.VenvCreateHintFmt, r.result.Interpreter.Name)
}

func (r *run) setup() error {
	p := venvProvisioner(r)
	if err := p.Setup(r.result.RuntimePython, r.layout.SetupScript, r.layout.InstallDir, r.opts.Config.Install.SetupArgs...); err != nil {
		return err
	}
	r.rep.OK(messages.VenvSetupDone)
	return nil
}

func (r *run) setupHint(error) string {
	return fmt.Sprintf(messages.VenvSetupHintFmt, r.layout.InstallDir, r.result.RuntimePython, filepath.Base(r.layout.SetupScript))
}

func (r *run) launcher() error {
	l := launchers.Launcher{
		Path:       r.layout.LauncherPath,
		Python:     r.result.RuntimePython,
		EntryPoint: r.layout.EntryPoint,
		GOOS:       r.opts.GOOS,
	}
	if err := launchers.Write(r.opts.Launchers, l); err != nil {
		return err
	}
	r.result.Launcher = l.Path
	r.rep.OK(messages.LauncherWrittenFmt, l.Path)
	return nil
}

func (r *run) launcherHint(error) string {
	return fmt.Sprintf(messages.LauncherWriteHintFmt, r.layout.LauncherDir)
}

func (r *run) path() error {
	res, err := shellpath.Integrate(r.opts.Shell, r.layout.LauncherDir, r.layout.RCFiles, r.opts.Home)
	r.result.Path = res
	if err != nil {
		return err
	}
	switch res.Status {
	case shellpath.StatusAppended:
		r.rep.OK(messages.ShellAppendedFmt, res.File)
	case shellpath.StatusPresent:
		r.rep.Warn(fmt.Sprintf(messages.ShellAlreadyPresentFmt, res.File), fmt.Sprintf(messages.ShellReloadHintFmt, res.Line))
	default:
		r.rep.Warn(messages.ShellNoRCFile, fmt.Sprintf(messages.ShellManualHintFmt, res.Line))
	}
	return nil
}

func (r *run) pathHint(error) string {
	return fmt.Sprintf(messages.ShellManualHintFmt, shellpath.ExportLine(r.layout.LauncherDir, r.opts.Home))
}

func (r *run) summary() {
	lines := []string{
		fmt.Sprintf(messages.SummaryInstalledFmt, r.layout.InstallDir),
		fmt.Sprintf(messages.SummaryLauncherFmt, r.result.Launcher),
	}
	if r.result.Install.Backup != "" {
		lines = append(lines, fmt.Sprintf(messages.SummaryBackupFmt, r.result.Install.Backup))
	}
	if r.result.Path.Status == shellpath.StatusAppended {
		lines = append(lines, fmt.Sprintf(messages.SummaryReloadFmt, r.result.Path.File))
	}
	lines = append(lines, fmt.Sprintf(messages.SummaryNextFmt, filepath.Base(r.result.Launcher)))
	r.rep.Summary(messages.SummaryTitle, lines...)
}
