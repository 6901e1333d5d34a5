package messages

// Step titles, in pipeline order.
const (
	StepProbe    = "Checking environment"
	StepLock     = "Acquiring install lock"
	StepFetch    = "Downloading package"
	StepExtract  = "Installing files"
	StepRuntime  = "Creating isolated runtime"
	StepSetup    = "Installing dependencies"
	StepLauncher = "Writing launcher"
	StepPath     = "Updating PATH"
)

// Bootstrap banner, interruption and summary.
const (
	BootstrapHeaderFmt   = "gary installer -> %s"
	BootstrapInterrupted = "Interrupted; temporary files and the install lock were released."

	SummaryTitle        = "gary is installed."
	SummaryInstalledFmt = "Installed to  %s"
	SummaryLauncherFmt  = "Launcher      %s"
	SummaryBackupFmt    = "Previous copy %s"
	SummaryReloadFmt    = "Open a new terminal or run: source %s"
	SummaryNextFmt      = "Then run: %s"
)

// Environment probe messages.
const (
	ProbeNoInterpreter    = "no compatible python interpreter"
	ProbeNoIsolation      = "python cannot create isolated environments"
	ProbeNoTransfer       = "no download tool available"
	ProbeParseVersionFmt  = "cannot parse python version from %q"
	ProbeNoInterpreterFmt = "%w: need python %s, tried %s"
	ProbeNoIsolationFmt   = "%w: %s (python %s): %v"
	ProbeNoTransferFmt    = "%w: tried %s"

	ProbeFoundInterpreterFmt     = "%s (Python %s) at %s"
	ProbeFoundTransferFmt        = "Download tool %s (%s)"
	ProbeFoundBuiltinTransferFmt = "Download tool %s (built in)"

	ProbeNoInterpreterHint = "Install Python 3.8 or newer:\n  Debian/Ubuntu: sudo apt install python3\n  Fedora: sudo dnf install python3\n  macOS: brew install python@3.12\n  Windows: winget install Python.Python.3.12"
	ProbeNoIsolationHint   = "Install the venv module for your Python:\n  Debian/Ubuntu: sudo apt install python3-venv\n  Fedora: sudo dnf install python3-libs"
	ProbeNoTransferHint    = "Install curl or wget (for example: sudo apt install curl), or add \"http\" to [transfer] tools in the config file."
)

// Package fetcher messages.
const (
	FetchCreateTempFmt       = "create download file %s: %w"
	FetchUnknownTransferFmt  = "unknown transfer tool %q"
	FetchFailedFmt           = "download %s: %w"
	FetchEmptyFmt            = "download %s: server returned an empty file"
	FetchUnexpectedStatusFmt = "unexpected HTTP status %s"
	FetchRemoveArtifactFmt   = "remove download %s: %w"
	FetchStartFmt            = "Fetching %s"
	FetchDoneFmt             = "Downloaded %s"
	FetchHintFmt             = "Check your network connection, or download from the mirror instead:\n  %[2]s=%[1]s gary-install"
	FetchNoMirrorHint        = "Check your network connection and the configured source.url, then run gary-install again."
)

// Archive installer messages.
const (
	ArchiveStatTargetFmt   = "inspect %s: %w"
	ArchiveBackupTakenFmt  = "backup path %s already exists"
	ArchiveBackupRenameFmt = "move %s to %s: %w"
	ArchiveCreateRootFmt   = "create install dir %s: %w"
	ArchiveOpenFmt         = "open archive %s: %w"
	ArchiveGzipFmt         = "archive %s is not valid gzip: %w"
	ArchiveReadFmt         = "read archive %s: %w"
	ArchiveUnsafePathFmt   = "archive member %q would be written outside the install dir"
	ArchiveUnsafeLinkFmt   = "archive link %q -> %q points outside the install dir"
	ArchiveWriteMemberFmt  = "extract %s: %w"
	ArchiveListBackupsFmt  = "list backups in %s: %w"

	ArchiveBackedUpFmt    = "Previous installation moved to %s"
	ArchiveExtractedFmt   = "Extracted %d files into %s"
	ArchiveRestoreHintFmt = "Your previous installation is intact at %[1]s.\nTo restore it: rm -rf %[2]s && mv %[1]s %[2]s"
)

// Runtime provisioner messages.
const (
	VenvSetupMissing     = "setup script not found"
	VenvCreateFmt        = "create virtual environment %s: %w"
	VenvPythonMissingFmt = "virtual environment interpreter %s missing: %w"
	VenvUpgradePipFmt    = "upgrade pip: %w"
	VenvSetupMissingFmt  = "%w: %s"
	VenvSetupStatFmt     = "inspect setup script %s: %w"
	VenvSetupFailedFmt   = "setup script %s failed: %w"

	VenvCreatedFmt    = "Runtime ready in %s"
	VenvSetupDone     = "Dependencies installed"
	VenvCreateHintFmt = "%s could not build a virtual environment. On Debian/Ubuntu install it with: sudo apt install python3-venv"
	VenvSetupHintFmt  = "The package's setup step failed. Re-run it by hand to see the full output:\n  cd %s && %s %s --auto"
)

// Launcher messages.
const (
	LauncherReadTemplateFmt  = "read launcher template %s: %w"
	LauncherParseTemplateFmt = "parse launcher template %s: %w"
	LauncherRenderFmt        = "render launcher template %s: %w"
	LauncherCreateDirFmt     = "create launcher dir %s: %w"
	LauncherWriteFmt         = "write launcher %s: %w"
	LauncherWrittenFmt       = "Launcher written to %s"
	LauncherWriteHintFmt     = "Make sure %s is writable, or choose another directory with GARY_BIN_DIR."
)

// Path integrator messages.
const (
	ShellReadRCFmt         = "read %s: %w"
	ShellAppendRCFmt       = "update %s: %w"
	ShellAppendedFmt       = "Added launcher dir to PATH in %s"
	ShellAlreadyPresentFmt = "PATH already configured in %s; no file changed"
	ShellNoRCFile          = "No shell start-up file found; PATH not changed"
	ShellReloadHintFmt     = "Open a new terminal so the change takes effect. If gary is still not found, add:\n  %s"
	ShellManualHintFmt     = "Add the launcher dir to PATH yourself, for example in your shell start-up file:\n  %s"
)
