package messages

// Filesystem helper messages.
const (
	FsutilCreateTempFileFmt = "create temp file for %s: %w"
	FsutilSetPermissionsFmt = "set permissions on temp file for %s: %w"
	FsutilWriteTempFileFmt  = "write temp file for %s: %w"
	FsutilSyncTempFileFmt   = "sync temp file for %s: %w"
	FsutilCloseTempFileFmt  = "close temp file for %s: %w"
	FsutilRenameTempFileFmt = "rename temp file to %s: %w"
	FsutilOpenAppendFmt     = "open %s for append: %w"
	FsutilAppendFmt         = "append to %s: %w"
)

// Install lock messages.
const (
	LockHeld        = "install lock is held by another process"
	LockOpenFmt     = "open lock %s: %w"
	LockHeldFmt     = "another installation is already running (lock %s): %w"
	LockFmt         = "lock %s: %w"
	LockAcquiredFmt = "Holding install lock %s"
	LockHeldHintFmt = "Wait for the other gary-install run to finish, then try again.\nIf no other run is active, the lock is released automatically; check for a stuck process holding %s."
)

// Subprocess messages.
const (
	ProcExitStderrFmt = "%s exited with status %d: %s: %w"
	ProcExitFmt       = "%s exited with status %d: %w"
	ProcStartFmt      = "start %s: %w"
)
