package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gary-dev/gary-install/internal/messages"
)

var validTransfers = map[string]struct{}{
	TransferCurl: {},
	TransferWget: {},
	TransferHTTP: {},
}

// Validate ensures the config is complete and consistent. source names the
// config file in error messages.
func (c Config) Validate(source string) error {
	if err := validateURL(c.Source.URL); err != nil {
		return fmt.Errorf(messages.ConfigInvalidURLFmt, source, "source.url", err)
	}
	if strings.TrimSpace(c.Source.MirrorURL) != "" {
		if err := validateURL(c.Source.MirrorURL); err != nil {
			return fmt.Errorf(messages.ConfigInvalidURLFmt, source, "source.mirror_url", err)
		}
	}
	if !filepath.IsAbs(c.Install.Dir) {
		return fmt.Errorf(messages.ConfigPathNotAbsoluteFmt, source, "install.dir", c.Install.Dir)
	}
	if !filepath.IsAbs(c.Launcher.Dir) {
		return fmt.Errorf(messages.ConfigPathNotAbsoluteFmt, source, "launcher.dir", c.Launcher.Dir)
	}
	dir := filepath.Clean(c.Install.Dir)
	if filepath.Dir(dir) == dir {
		return fmt.Errorf(messages.ConfigInstallDirOverlapFmt, source, c.Install.Dir, "filesystem root", dir)
	}
	if err := checkInstallDir(source, c.Install.Dir, "launcher dir", c.Launcher.Dir); err != nil {
		return err
	}
	for _, rel := range []struct{ key, value string }{
		{"install.runtime_dir", c.Install.RuntimeDir},
		{"install.entry_point", c.Install.EntryPoint},
		{"install.setup_script", c.Install.SetupScript},
	} {
		if err := validateRelative(rel.value); err != nil {
			return fmt.Errorf(messages.ConfigInvalidRelativeFmt, source, rel.key, rel.value)
		}
	}
	name := strings.TrimSpace(c.Launcher.Name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf(messages.ConfigInvalidLauncherNameFmt, source, c.Launcher.Name)
	}
	if len(c.Runtime.Interpreters) == 0 {
		return fmt.Errorf(messages.ConfigEmptyListFmt, source, "runtime.interpreters")
	}
	if c.Runtime.Major < 3 || c.Runtime.MinMinor < 0 {
		return fmt.Errorf(messages.ConfigInvalidVersionFmt, source, c.Runtime.Major, c.Runtime.MinMinor)
	}
	if len(c.Transfer.Tools) == 0 {
		return fmt.Errorf(messages.ConfigEmptyListFmt, source, "transfer.tools")
	}
	for _, tool := range c.Transfer.Tools {
		if _, ok := validTransfers[tool]; !ok {
			return fmt.Errorf(messages.ConfigUnknownTransferFmt, source, tool, TransferCurl, TransferWget, TransferHTTP)
		}
	}
	for _, rc := range c.Shell.RCFiles {
		if !filepath.IsAbs(rc) {
			return fmt.Errorf(messages.ConfigPathNotAbsoluteFmt, source, "shell.rc_files", rc)
		}
		if err := checkInstallDir(source, c.Install.Dir, "shell file", rc); err != nil {
			return err
		}
	}
	return nil
}

// checkInstallDir rejects an install dir that is other or one of its
// ancestors. The backup step renames the whole install dir.
func checkInstallDir(source string, installDir string, what string, other string) error {
	if other == "" {
		return nil
	}
	rel, err := filepath.Rel(filepath.Clean(installDir), filepath.Clean(other))
	if err != nil {
		return nil
	}
	if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return fmt.Errorf(messages.ConfigInstallDirOverlapFmt, source, installDir, what, other)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf(messages.ConfigURLSchemeFmt, u.Scheme)
	}
	if u.Host == "" {
		return errors.New(messages.ConfigURLHostMissing)
	}
	return nil
}

// validateRelative rejects empty, absolute and escaping paths.
func validateRelative(p string) error {
	if strings.TrimSpace(p) == "" || filepath.IsAbs(p) {
		return errors.New("path must be relative")
	}
	clean := filepath.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return errors.New("path must stay inside the install dir")
	}
	return nil
}
