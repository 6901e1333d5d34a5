package bootstrap

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal failure.
type Kind string

// Failure kinds. Every kind ends the run.
const (
	KindEnvironmentMissing       Kind = "EnvironmentMissing"
	KindDownloadFailure          Kind = "DownloadFailure"
	KindExtractionFailure        Kind = "ExtractionFailure"
	KindProvisioningFailure      Kind = "ProvisioningFailure"
	KindDependencyInstallFailure Kind = "DependencyInstallFailure"
	KindWriteFailure             Kind = "WriteFailure"
	KindConcurrentRun            Kind = "ConcurrentRun"
	KindConfigInvalid            Kind = "ConfigInvalid"
)

// Error is the first failure of a run, tagged with the step that produced it
// and a remediation hint for the user.
type Error struct {
	Kind Kind
	Step string
	Hint string
	Err  error
}

func (e *Error) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Kind, e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
