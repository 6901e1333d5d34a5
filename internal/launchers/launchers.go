// Package launchers writes the wrapper that starts the installed agent with
// its isolated runtime.
package launchers

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/gary-dev/gary-install/internal/fsutil"
	"github.com/gary-dev/gary-install/internal/messages"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// ProxyVars are cleared before the entry point starts.
var ProxyVars = []string{"HTTP_PROXY", "http_proxy", "HTTPS_PROXY", "https_proxy", "ALL_PROXY", "all_proxy"}

const (
	shellTemplatePath = "templates/gary.sh.tmpl"
	batTemplatePath   = "templates/gary.bat.tmpl"
)

// System is the minimal interface needed for launcher operations.
type System interface {
	MkdirAll(path string, perm os.FileMode) error
	WriteFileAtomic(filename string, data []byte, perm os.FileMode) error
}

// RealSystem implements System using actual system calls.
type RealSystem struct{}

// MkdirAll creates a directory and all parent directories.
func (RealSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// WriteFileAtomic writes data to path atomically.
func (RealSystem) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return fsutil.WriteFileAtomic(path, data, perm)
}

// Launcher describes one wrapper. Python and EntryPoint are embedded
// literally; they are never resolved through symlinks.
type Launcher struct {
	Path       string
	Python     string
	EntryPoint string
	GOOS       string
}

// Render returns the wrapper's content for l.GOOS.
func Render(l Launcher) ([]byte, error) {
	templatePath := shellTemplatePath
	if l.GOOS == "windows" {
		templatePath = batTemplatePath
	}
	raw, err := templateFS.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf(messages.LauncherReadTemplateFmt, templatePath, err)
	}
	tmpl, err := template.New(filepath.Base(templatePath)).Funcs(template.FuncMap{
		"shquote":  shellQuote,
		"batquote": batQuote,
	}).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf(messages.LauncherParseTemplateFmt, templatePath, err)
	}

	var buf bytes.Buffer
	data := struct {
		Launcher
		ProxyVars []string
	}{Launcher: l, ProxyVars: ProxyVars}
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf(messages.LauncherRenderFmt, templatePath, err)
	}
	if l.GOOS == "windows" {
		return bytes.ReplaceAll(buf.Bytes(), []byte("\n"), []byte("\r\n")), nil
	}
	return buf.Bytes(), nil
}

// Write renders l and replaces l.Path atomically, creating its directory.
func Write(sys System, l Launcher) error {
	content, err := Render(l)
	if err != nil {
		return err
	}
	dir := filepath.Dir(l.Path)
	if err := sys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf(messages.LauncherCreateDirFmt, dir, err)
	}
	if err := sys.WriteFileAtomic(l.Path, content, 0o755); err != nil {
		return fmt.Errorf(messages.LauncherWriteFmt, l.Path, err)
	}
	return nil
}

// shellQuote wraps s in single quotes for /bin/sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// batQuote escapes percent signs for cmd.exe; Windows paths cannot contain '"'.
func batQuote(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}
