// Package archive replaces the installation root with the contents of a
// downloaded tarball. A prior installation is renamed to a timestamped backup
// before anything new is written.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gary-dev/gary-install/internal/logging"
	"github.com/gary-dev/gary-install/internal/messages"
)

// Artifact is the downloaded archive. Release removes it from disk.
type Artifact interface {
	Name() string
	Release() error
}

// Installer swaps in a new installation at Target.
type Installer struct {
	Target string
	// Now stamps backup names; nil means time.Now.
	Now    func() time.Time
	System System
}

// Result describes a completed install.
type Result struct {
	Target string
	// Backup is the path the previous installation was moved to, or empty.
	Backup string
	Files  int
}

// Install backs up any existing Target, recreates it empty and extracts
// artifact into it, dropping the archive's top-level directory. The artifact
// is released exactly once on every path out of Install.
func (in Installer) Install(artifact Artifact) (Result, error) {
	log := logging.GetLogger("archive")
	defer func() {
		if err := artifact.Release(); err != nil {
			log.Warn().Err(err).Msg("artifact cleanup failed")
		}
	}()

	sys := in.System
	if sys == nil {
		sys = RealSystem{}
	}
	now := time.Now
	if in.Now != nil {
		now = in.Now
	}
	result := Result{Target: in.Target}

	backup, err := backupExisting(sys, in.Target, now())
	if err != nil {
		return result, err
	}
	result.Backup = backup
	if backup != "" {
		log.Info().Str("from", in.Target).Str("to", backup).Msg("existing installation moved aside")
	}

	if err := sys.MkdirAll(in.Target, 0o755); err != nil {
		return result, fmt.Errorf(messages.ArchiveCreateRootFmt, in.Target, err)
	}

	start := time.Now()
	files, err := Extract(artifact.Name(), in.Target)
	result.Files = files
	if err != nil {
		return result, err
	}
	logging.LogDuration(log, start, "extract")
	return result, nil
}

func backupExisting(sys System, target string, now time.Time) (string, error) {
	if _, err := sys.Lstat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf(messages.ArchiveStatTargetFmt, target, err)
	}
	dest, err := backupPath(sys, target, now)
	if err != nil {
		return "", err
	}
	if err := sys.Rename(target, dest); err != nil {
		return "", fmt.Errorf(messages.ArchiveBackupRenameFmt, target, dest, err)
	}
	return dest, nil
}

func backupPath(sys System, target string, now time.Time) (string, error) {
	base := target + backupInfix + now.Format(backupStampLayout)
	candidates := []string{base, fmt.Sprintf("%s.%09d", base, now.Nanosecond())}
	for _, candidate := range candidates {
		_, err := sys.Lstat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf(messages.ArchiveStatTargetFmt, candidate, err)
		}
	}
	return "", fmt.Errorf(messages.ArchiveBackupTakenFmt, candidates[len(candidates)-1])
}

// symlink is a link member held back until every other member is on disk.
type symlink struct {
	member   string
	rel      string
	linkname string
}

// Extract unpacks the gzip-compressed tarball at src into dest, stripping one
// leading path component. It returns the number of regular files written.
// Symlinks are created last, and only in directories that are not themselves
// reached through a link.
func Extract(src string, dest string) (int, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf(messages.ArchiveOpenFmt, src, err)
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return 0, fmt.Errorf(messages.ArchiveGzipFmt, src, err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	files := 0
	var links []symlink
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return files, fmt.Errorf(messages.ArchiveReadFmt, src, err)
		}
		written, link, err := extractMember(tr, hdr, dest)
		if err != nil {
			return files, err
		}
		if link != nil {
			links = append(links, *link)
		}
		if written {
			files++
		}
	}
	return files, createSymlinks(dest, links)
}

func extractMember(tr *tar.Reader, hdr *tar.Header, dest string) (bool, *symlink, error) {
	switch hdr.Typeflag {
	case tar.TypeXGlobalHeader, tar.TypeXHeader:
		return false, nil, nil
	}
	rel, err := stripComponent(hdr.Name)
	if err != nil {
		return false, nil, err
	}
	if rel == "" {
		return false, nil, nil
	}
	target := filepath.Join(dest, filepath.FromSlash(rel))
	mode := hdr.FileInfo().Mode().Perm()

	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, mode|0o700); err != nil {
			return false, nil, fmt.Errorf(messages.ArchiveWriteMemberFmt, hdr.Name, err)
		}
		return false, nil, nil
	case tar.TypeReg:
		return true, nil, writeFile(tr, hdr.Name, target, mode)
	case tar.TypeSymlink:
		if path.IsAbs(hdr.Linkname) || escapes(path.Join(path.Dir(rel), hdr.Linkname)) {
			return false, nil, fmt.Errorf(messages.ArchiveUnsafeLinkFmt, hdr.Name, hdr.Linkname)
		}
		return false, &symlink{member: hdr.Name, rel: rel, linkname: hdr.Linkname}, nil
	case tar.TypeLink:
		linkRel, err := stripComponent(hdr.Linkname)
		if err != nil || linkRel == "" {
			return false, nil, fmt.Errorf(messages.ArchiveUnsafeLinkFmt, hdr.Name, hdr.Linkname)
		}
		if err := prepareParent(target); err != nil {
			return false, nil, fmt.Errorf(messages.ArchiveWriteMemberFmt, hdr.Name, err)
		}
		if err := os.Link(filepath.Join(dest, filepath.FromSlash(linkRel)), target); err != nil {
			return false, nil, fmt.Errorf(messages.ArchiveWriteMemberFmt, hdr.Name, err)
		}
		return true, nil, nil
	default:
		log := logging.GetLogger("archive")
		log.Debug().Str("member", hdr.Name).Int("type", int(hdr.Typeflag)).Msg("skipping unsupported member")
		return false, nil, nil
	}
}

// stripComponent drops the archive's wrapper directory from name. A leading
// "./" does not count as a component.
func stripComponent(name string) (string, error) {
	if path.IsAbs(name) || filepath.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return "", fmt.Errorf(messages.ArchiveUnsafePathFmt, name)
	}
	trimmed := name
	for strings.HasPrefix(trimmed, "./") {
		trimmed = strings.TrimPrefix(trimmed, "./")
	}
	_, rest, found := strings.Cut(trimmed, "/")
	if !found {
		return "", nil
	}
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return "", nil
	}
	cleaned := path.Clean(rest)
	if cleaned == "." {
		return "", nil
	}
	if escapes(cleaned) {
		return "", fmt.Errorf(messages.ArchiveUnsafePathFmt, name)
	}
	return cleaned, nil
}

func escapes(rel string) bool {
	cleaned := path.Clean(rel)
	return cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned)
}

func createSymlinks(dest string, links []symlink) error {
	for _, l := range links {
		if err := checkParents(dest, l.member, l.rel); err != nil {
			return err
		}
		target := filepath.Join(dest, filepath.FromSlash(l.rel))
		if err := prepareParent(target); err != nil {
			return fmt.Errorf(messages.ArchiveWriteMemberFmt, l.member, err)
		}
		if err := os.Symlink(l.linkname, target); err != nil {
			return fmt.Errorf(messages.ArchiveWriteMemberFmt, l.member, err)
		}
	}
	if len(links) == 0 {
		return nil
	}

	// Link chains can resolve outside dest even when each target looks
	// local on its own.
	root, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return fmt.Errorf(messages.ArchiveStatTargetFmt, dest, err)
	}
	for _, l := range links {
		target := filepath.Join(dest, filepath.FromSlash(l.rel))
		resolved, err := filepath.EvalSymlinks(target)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil || !within(root, resolved) {
			_ = os.Remove(target)
			return fmt.Errorf(messages.ArchiveUnsafeLinkFmt, l.member, l.linkname)
		}
	}
	return nil
}

// checkParents fails when a directory on the way to rel inside dest is a
// symlink.
func checkParents(dest string, member string, rel string) error {
	dir := path.Dir(rel)
	if dir == "." {
		return nil
	}
	current := dest
	for _, part := range strings.Split(dir, "/") {
		current = filepath.Join(current, part)
		info, err := os.Lstat(current)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf(messages.ArchiveWriteMemberFmt, member, err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf(messages.ArchiveUnsafePathFmt, member)
		}
	}
	return nil
}

func within(root string, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func prepareParent(target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func writeFile(r io.Reader, member string, target string, mode os.FileMode) error {
	if err := prepareParent(target); err != nil {
		return fmt.Errorf(messages.ArchiveWriteMemberFmt, member, err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf(messages.ArchiveWriteMemberFmt, member, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return fmt.Errorf(messages.ArchiveWriteMemberFmt, member, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf(messages.ArchiveWriteMemberFmt, member, err)
	}
	// OpenFile honours the umask; restore the archived bits.
	if err := os.Chmod(target, mode); err != nil {
		return fmt.Errorf(messages.ArchiveWriteMemberFmt, member, err)
	}
	return nil
}
