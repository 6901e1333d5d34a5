// Package config resolves where the tool is fetched from, where it is
// installed, and which host programs the installer may use.
package config

import (
	"path/filepath"
)

// Transfer mechanisms understood by the fetcher.
const (
	TransferCurl = "curl"
	TransferWget = "wget"
	// TransferHTTP downloads in-process and needs no host tool.
	TransferHTTP = "http"
)

// Default values for the gary agent package.
const (
	DefaultURL          = "https://github.com/gary-dev/gary/archive/refs/heads/main.tar.gz"
	DefaultMirrorURL    = "https://gitee.com/gary-dev/gary/repository/archive/main.tar.gz"
	DefaultInstallDir   = ".gary"
	DefaultRuntimeDir   = ".venv"
	DefaultEntryPoint   = "stm32_agent.py"
	DefaultSetupScript  = "setup.py"
	DefaultLauncherName = "gary"
	DefaultMajor        = 3
	DefaultMinMinor     = 8
)

// Config holds every installer setting. Zero values are never used directly;
// Load starts from Defaults and overlays the config file and environment.
type Config struct {
	Source   SourceConfig   `toml:"source"`
	Install  InstallConfig  `toml:"install"`
	Runtime  RuntimeConfig  `toml:"runtime"`
	Transfer TransferConfig `toml:"transfer"`
	Launcher LauncherConfig `toml:"launcher"`
	Shell    ShellConfig    `toml:"shell"`
}

// SourceConfig names the remote artifact and its alternate access point.
type SourceConfig struct {
	URL       string `toml:"url"`
	MirrorURL string `toml:"mirror_url"`
}

// InstallConfig describes the installation root and the files inside the package.
type InstallConfig struct {
	Dir string `toml:"dir"`
	// RuntimeDir, EntryPoint and SetupScript are relative to Dir.
	RuntimeDir  string   `toml:"runtime_dir"`
	EntryPoint  string   `toml:"entry_point"`
	SetupScript string   `toml:"setup_script"`
	// SetupArgs are passed to the setup script after --auto.
	SetupArgs []string `toml:"setup_args"`
}

// RuntimeConfig lists interpreter candidates in priority order and the
// accepted version range (Major exactly, minor at least MinMinor).
type RuntimeConfig struct {
	Interpreters []string `toml:"interpreters"`
	Major        int      `toml:"major"`
	MinMinor     int      `toml:"min_minor"`
}

// TransferConfig lists transfer mechanisms in priority order.
type TransferConfig struct {
	Tools []string `toml:"tools"`
}

// LauncherConfig places the generated wrapper.
type LauncherConfig struct {
	Dir  string `toml:"dir"`
	Name string `toml:"name"`
}

// ShellConfig lists shell start-up files in priority order.
type ShellConfig struct {
	RCFiles []string `toml:"rc_files"`
}

// Defaults returns the configuration for goos with paths under home.
func Defaults(goos string, home string) Config {
	return Config{
		Source: SourceConfig{
			URL:       DefaultURL,
			MirrorURL: DefaultMirrorURL,
		},
		Install: InstallConfig{
			Dir:         filepath.Join(home, DefaultInstallDir),
			RuntimeDir:  DefaultRuntimeDir,
			EntryPoint:  DefaultEntryPoint,
			SetupScript: DefaultSetupScript,
		},
		Runtime: RuntimeConfig{
			Interpreters: defaultInterpreters(goos),
			Major:        DefaultMajor,
			MinMinor:     DefaultMinMinor,
		},
		Transfer: TransferConfig{
			Tools: []string{TransferCurl, TransferWget},
		},
		Launcher: LauncherConfig{
			Dir:  filepath.Join(home, ".local", "bin"),
			Name: DefaultLauncherName,
		},
		Shell: ShellConfig{
			RCFiles: defaultRCFiles(goos, home),
		},
	}
}

func defaultInterpreters(goos string) []string {
	if goos == "windows" {
		return []string{"py", "python", "python3"}
	}
	return []string{"python3.13", "python3.12", "python3.11", "python3.10", "python3.9", "python3.8", "python3", "python"}
}

func defaultRCFiles(goos string, home string) []string {
	switch goos {
	case "windows":
		return nil
	case "darwin":
		return []string{
			filepath.Join(home, ".zshrc"),
			filepath.Join(home, ".bash_profile"),
			filepath.Join(home, ".bashrc"),
		}
	default:
		return []string{
			filepath.Join(home, ".bashrc"),
			filepath.Join(home, ".zshrc"),
			filepath.Join(home, ".profile"),
		}
	}
}
