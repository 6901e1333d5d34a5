// Package shellpath makes the launcher directory reachable from the user's
// shell by appending one export line to a start-up file.
package shellpath

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aymanbagabas/go-udiff"

	"github.com/gary-dev/gary-install/internal/fsutil"
	"github.com/gary-dev/gary-install/internal/logging"
	"github.com/gary-dev/gary-install/internal/messages"
)

// Marker trails every line this package writes.
const Marker = "# added by gary-install"

// Status reports what Integrate did.
type Status int

const (
	// StatusAppended means File received the export line.
	StatusAppended Status = iota
	// StatusPresent means every existing file already referenced the
	// directory; File is the first of them.
	StatusPresent
	// StatusNoFile means none of the candidate files exist.
	StatusNoFile
)

// System is the filesystem surface Integrate needs.
type System interface {
	ReadFile(name string) ([]byte, error)
	AppendFile(name string, data []byte) error
}

// RealSystem implements System on the OS filesystem.
type RealSystem struct{}

// ReadFile reads the named file.
func (RealSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// AppendFile appends data to an existing file.
func (RealSystem) AppendFile(name string, data []byte) error {
	return fsutil.AppendFile(name, data)
}

// Result describes the outcome of Integrate.
type Result struct {
	Status Status
	// File is the modified or already-integrated file; empty for StatusNoFile.
	File string
	Line string
}

// Integrate scans rcFiles in order and appends the export line to the first
// existing file that does not already reference dir. At most one file is
// modified. When every existing file references dir the result is
// StatusPresent naming the first of them.
func Integrate(sys System, dir string, rcFiles []string, home string) (Result, error) {
	log := logging.GetLogger("shellpath")
	line := ExportLine(dir, home)
	result := Result{Status: StatusNoFile, Line: line}

	for _, rc := range rcFiles {
		content, err := sys.ReadFile(rc)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return result, fmt.Errorf(messages.ShellReadRCFmt, rc, err)
		}
		if References(content, dir, home) {
			log.Debug().Str("file", rc).Msg("already on PATH")
			if result.Status == StatusNoFile {
				result.Status = StatusPresent
				result.File = rc
			}
			continue
		}

		if err := sys.AppendFile(rc, appendData(content, line)); err != nil {
			return result, fmt.Errorf(messages.ShellAppendRCFmt, rc, err)
		}
		log.Info().Str("file", rc).Str("dir", dir).Msg("PATH entry appended")
		result.Status = StatusAppended
		result.File = rc
		return result, nil
	}
	return result, nil
}

// ExportLine returns the line that prepends dir to PATH, spelled relative to
// $HOME when dir is inside home.
func ExportLine(dir string, home string) string {
	entry := filepath.ToSlash(dir)
	if rel, ok := underHome(dir, home); ok {
		entry = "$HOME/" + rel
	}
	return fmt.Sprintf(`export PATH="%s:$PATH"  %s`, entry, Marker)
}

// References reports whether content mentions dir by its absolute path or by
// its $HOME, ${HOME} or ~ spelling.
func References(content []byte, dir string, home string) bool {
	spellings := []string{filepath.ToSlash(filepath.Clean(dir))}
	if rel, ok := underHome(dir, home); ok {
		spellings = append(spellings, "$HOME/"+rel, "${HOME}/"+rel, "~/"+rel)
	}
	for _, s := range spellings {
		if bytes.Contains(content, []byte(s)) {
			return true
		}
	}
	return false
}

// Preview renders the change Integrate would make to file as a unified diff.
func Preview(file string, content []byte, dir string, home string) string {
	next := string(content) + string(appendData(content, ExportLine(dir, home)))
	return udiff.Unified(file, file, string(content), next)
}

func appendData(existing []byte, line string) []byte {
	var buf bytes.Buffer
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(line)
	buf.WriteByte('\n')
	return buf.Bytes()
}

func underHome(dir string, home string) (string, bool) {
	if home == "" {
		return "", false
	}
	rel, err := filepath.Rel(filepath.Clean(home), filepath.Clean(dir))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
