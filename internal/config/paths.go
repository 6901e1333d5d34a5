package config

import "path/filepath"

// Layout holds the resolved filesystem locations for one install run.
type Layout struct {
	InstallDir    string
	LockPath      string
	RuntimeDir    string
	RuntimePython string
	EntryPoint    string
	SetupScript   string
	LauncherDir   string
	LauncherPath  string
	RCFiles       []string
	GOOS          string
}

// Layout resolves the config's paths for goos. The lock sits next to the
// install dir so it survives the backup rename.
func (c Config) Layout(goos string) Layout {
	installDir := filepath.Clean(c.Install.Dir)
	runtimeDir := filepath.Join(installDir, c.Install.RuntimeDir)
	launcherName := c.Launcher.Name
	if goos == "windows" {
		launcherName += ".bat"
	}
	return Layout{
		InstallDir:    installDir,
		LockPath:      installDir + ".lock",
		RuntimeDir:    runtimeDir,
		RuntimePython: RuntimePython(runtimeDir, goos),
		EntryPoint:    filepath.Join(installDir, c.Install.EntryPoint),
		SetupScript:   filepath.Join(installDir, c.Install.SetupScript),
		LauncherDir:   filepath.Clean(c.Launcher.Dir),
		LauncherPath:  filepath.Join(c.Launcher.Dir, launcherName),
		RCFiles:       append([]string(nil), c.Shell.RCFiles...),
		GOOS:          goos,
	}
}

// RuntimePython returns the interpreter path inside a venv rooted at dir.
func RuntimePython(dir string, goos string) string {
	if goos == "windows" {
		return filepath.Join(dir, "Scripts", "python.exe")
	}
	return filepath.Join(dir, "bin", "python")
}
