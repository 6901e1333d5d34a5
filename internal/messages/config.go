package messages

// Config messages for loading and validating config.toml.
const (
	ConfigResolveHomeFmt         = "resolve home directory: %w"
	ConfigReadFileFmt            = "read config %s: %w"
	ConfigInvalidFileFmt         = "invalid config %s: %w"
	ConfigExpandPathFmt          = "expand path %q: %w"
	ConfigInvalidURLFmt          = "%s: %s: %w"
	ConfigURLSchemeFmt           = "unsupported URL scheme %q (want http or https)"
	ConfigURLHostMissing         = "URL has no host"
	ConfigPathNotAbsoluteFmt     = "%s: %s must be an absolute path, got %q"
	ConfigInvalidRelativeFmt     = "%s: %s must be a relative path inside the install dir, got %q"
	ConfigInvalidLauncherNameFmt = "%s: launcher.name must be a plain file name, got %q"
	ConfigEmptyListFmt           = "%s: %s must not be empty"
	ConfigInvalidVersionFmt      = "%s: runtime requirement %d.%d+ is not supported (major must be at least 3)"
	ConfigUnknownTransferFmt     = "%s: unknown transfer tool %q (want %s, %s or %s)"
	ConfigInstallDirOverlapFmt   = "%s: install.dir %q contains the %s %q and would be moved aside on every install"

	ConfigFileHint       = "Check the path passed to --config, or remove the flag to use built-in defaults."
	ConfigValidationHint = "Fix the value in the config file or the GARY_INSTALL_* environment variable named above."
)
