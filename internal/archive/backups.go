package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gary-dev/gary-install/internal/messages"
)

const (
	backupInfix       = ".bak."
	backupStampLayout = "20060102-150405"
)

// Backup is a previous installation that was moved aside.
type Backup struct {
	Path    string
	Created time.Time
}

// ListBackups returns the backups of target, newest first. A missing parent
// directory yields an empty list.
func ListBackups(sys System, target string) ([]Backup, error) {
	if sys == nil {
		sys = RealSystem{}
	}
	parent := filepath.Dir(target)
	prefix := filepath.Base(target) + backupInfix
	entries, err := sys.ReadDir(parent)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf(messages.ArchiveListBackupsFmt, parent, err)
	}

	var backups []Backup
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		stamp := strings.TrimPrefix(name, prefix)
		stamp, _, _ = strings.Cut(stamp, ".")
		created, err := time.ParseInLocation(backupStampLayout, stamp, time.Local)
		if err != nil {
			continue
		}
		backups = append(backups, Backup{Path: filepath.Join(parent, name), Created: created})
	}
	// The stamp layout sorts lexically; a nanosecond suffix sorts after its base.
	sort.Slice(backups, func(i, j int) bool {
		return filepath.Base(backups[i].Path) > filepath.Base(backups[j].Path)
	})
	return backups, nil
}
