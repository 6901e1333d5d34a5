package messages

// CLI messages for user-facing commands.
const (
	// RootUse is the CLI command name.
	RootUse         = "gary-install"
	RootShort       = "Install the gary STM32 agent"
	RootLong        = "Install or reinstall the gary STM32 agent into ~/.gary, with its own Python runtime and a `gary` launcher on your PATH.\nAn existing installation is moved to a timestamped backup first."
	RootConfigFlag  = "Path to config.toml (default: $XDG_CONFIG_HOME/gary-install/config.toml)"
	RootVerboseFlag = "Increase log verbosity (-v info, -vv debug, -vvv trace)"
	RootVersionFlag = "Print version and exit"
	RootLogFileFmt  = "Debug log: %s"

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"

	CheckUse               = "check"
	CheckShort             = "Check the environment and the current installation without changing anything"
	CheckHeaderFmt         = "Checking gary installation in %s"
	CheckNameInterpreter   = "Runtime interpreter"
	CheckNameTransfer      = "Transfer tool"
	CheckNameInstallDir    = "Install dir"
	CheckNameEntryPoint    = "Entry point"
	CheckNameRuntime       = "Isolated runtime"
	CheckNameLauncher      = "Launcher"
	CheckNamePath          = "PATH"
	CheckInterpreterFmt    = "%s %s (%s)"
	CheckTransferFmt       = "%s (%s)"
	CheckMissingFmt        = "%s is missing"
	CheckLauncherStaleFmt  = "%s differs from what this installer would write"
	CheckPathConfiguredFmt = "configured in %s"
	CheckPathInactiveFmt   = "configured in %s but not active in this shell"
	CheckPathFromEnvFmt    = "%s is on PATH"
	CheckPathPendingFmt    = "not configured; the installer would change %s:"
	CheckReinstallHint     = "Run gary-install to (re)install."
	CheckFailedLabel       = "Check"
	CheckFailedSummary     = "one or more checks failed"
	CheckOKSummary         = "All checks passed."

	BackupsUse        = "backups"
	BackupsShort      = "List previous installations kept as backups, newest first"
	BackupsNoneFmt    = "No backups of %s.\n"
	BackupsLineFmt    = "%s  %s\n"
	BackupsTimeLayout = "2006-01-02 15:04:05"
	BackupsRestoreFmt = "\nTo restore the newest backup:\n  mv %[1]s %[1]s.replaced && mv %[2]s %[1]s\n"
)

// Reporter layout.
const (
	ReportStepFmt      = "[%d/%d] %s"
	ReportLineFmt      = "  %s %s\n"
	ReportCheckLineFmt = "  %s %s: %s\n"
	ReportFailFmt      = "%s: %s"
	ReportOKLabel      = "OK  "
	ReportInfoLabel    = "->  "
	ReportWarnLabel    = "WARN"
	ReportFailLabel    = "FAIL"
	ReportHintPrefix   = "       hint: "
	ReportHintIndent   = "             "
)
