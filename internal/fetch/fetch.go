// Package fetch downloads the packaged artifact into a uniquely named
// temporary file. Every call performs a full fetch; there is no resume and
// no retry.
package fetch

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gary-dev/gary-install/internal/config"
	"github.com/gary-dev/gary-install/internal/logging"
	"github.com/gary-dev/gary-install/internal/messages"
	"github.com/gary-dev/gary-install/internal/probe"
	"github.com/gary-dev/gary-install/internal/proc"
)

const userAgent = "gary-install"

var (
	// No timeout: a hung transfer blocks the run, matching the external tools.
	httpClient = &http.Client{}
	newID      = uuid.NewString
	closeFile  = (*os.File).Close
)

// Artifact is a downloaded archive on disk. Release deletes it exactly once.
type Artifact struct {
	path string
	once sync.Once
	err  error
}

// Name returns the artifact's file path.
func (a *Artifact) Name() string {
	return a.path
}

// Release removes the artifact file. Later calls return the first result.
func (a *Artifact) Release() error {
	a.once.Do(func() {
		err := os.Remove(a.path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			a.err = fmt.Errorf(messages.FetchRemoveArtifactFmt, a.path, err)
		}
		log := logging.GetLogger("fetch")
		log.Debug().Str("artifact", a.path).Err(a.err).Msg("artifact released")
	})
	return a.err
}

// Fetcher downloads with the mechanism chosen by the probe.
type Fetcher struct {
	Transfer probe.Transfer
	Runner   proc.Runner
	// TempDir holds the artifact; empty means os.TempDir().
	TempDir string
}

// Fetch downloads url to a fresh temporary file. On failure the partial file
// is removed and no Artifact is returned.
func (f Fetcher) Fetch(url string) (*Artifact, error) {
	log := logging.GetLogger("fetch")
	dir := f.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "gary-"+newID()+".tar.gz")
	// O_EXCL reserves the name so a concurrent run can never share it.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf(messages.FetchCreateTempFmt, path, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = file.Close()
			_ = os.Remove(path)
		}
	}()

	start := time.Now()
	log.Info().Str("url", url).Str("tool", f.Transfer.Name).Str("dest", path).Msg("download started")
	switch f.Transfer.Name {
	case config.TransferHTTP:
		if err = downloadHTTP(url, file); err == nil {
			err = closeFile(file)
		}
	case config.TransferCurl, config.TransferWget:
		if err = closeFile(file); err == nil {
			err = f.Runner.Run(proc.Command{Path: f.Transfer.Path, Args: toolArgs(f.Transfer.Name, path, url)})
		}
	default:
		err = fmt.Errorf(messages.FetchUnknownTransferFmt, f.Transfer.Name)
	}
	if err != nil {
		return nil, fmt.Errorf(messages.FetchFailedFmt, url, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf(messages.FetchFailedFmt, url, err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf(messages.FetchEmptyFmt, url)
	}
	committed = true
	logging.LogDuration(log, start, "download")
	return &Artifact{path: path}, nil
}

func toolArgs(tool string, dest string, url string) []string {
	if tool == config.TransferWget {
		return []string{"-q", "-O", dest, url}
	}
	return []string{"-fsSL", "-o", dest, url}
}

func downloadHTTP(url string, dest io.Writer) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf(messages.FetchUnexpectedStatusFmt, resp.Status)
	}
	if _, err := io.Copy(dest, resp.Body); err != nil {
		return err
	}
	return nil
}
