// Package report prints the installer's human-facing progress. Debug detail
// goes to the logger instead.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/gary-dev/gary-install/internal/messages"
)

// Status classifies a check line.
type Status int

const (
	// StatusOK prints a green OK label.
	StatusOK Status = iota
	// StatusWarn prints a yellow WARN label; the check does not fail the run.
	StatusWarn
	// StatusFail prints a red FAIL label and makes check exit non-zero.
	StatusFail
)

// Reporter writes status lines to Out.
type Reporter struct {
	Out io.Writer
}

// New returns a Reporter writing to out.
func New(out io.Writer) *Reporter {
	return &Reporter{Out: out}
}

// Header prints the banner line.
func (r *Reporter) Header(format string, args ...any) {
	r.printf("%s\n", color.New(color.Bold).Sprintf(format, args...))
}

// Step announces step i of n.
func (r *Reporter) Step(i int, n int, title string) {
	r.printf("\n%s\n", color.CyanString(messages.ReportStepFmt, i, n, title))
}

// OK confirms a completed action.
func (r *Reporter) OK(format string, args ...any) {
	r.printf(messages.ReportLineFmt, color.GreenString(messages.ReportOKLabel), fmt.Sprintf(format, args...))
}

// Info prints a neutral detail line.
func (r *Reporter) Info(format string, args ...any) {
	r.printf(messages.ReportLineFmt, color.CyanString(messages.ReportInfoLabel), fmt.Sprintf(format, args...))
}

// Warn prints a warning and an optional hint.
func (r *Reporter) Warn(msg string, hint string) {
	r.printf(messages.ReportLineFmt, color.YellowString(messages.ReportWarnLabel), msg)
	r.Hint(hint)
}

// Fail prints the single highlighted diagnostic for a fatal error.
func (r *Reporter) Fail(kind string, msg string, hint string) {
	r.printf(messages.ReportLineFmt, color.New(color.FgRed, color.Bold).Sprint(messages.ReportFailLabel), color.RedString(messages.ReportFailFmt, kind, msg))
	r.Hint(hint)
}

// Check prints one inspection result.
func (r *Reporter) Check(status Status, name string, msg string, hint string) {
	var label string
	switch status {
	case StatusOK:
		label = color.GreenString(messages.ReportOKLabel)
	case StatusWarn:
		label = color.YellowString(messages.ReportWarnLabel)
	default:
		label = color.RedString(messages.ReportFailLabel)
	}
	r.printf(messages.ReportCheckLineFmt, label, name, msg)
	r.Hint(hint)
}

// Hint renders a multi-line remediation with consistent indentation.
func (r *Reporter) Hint(hint string) {
	if strings.TrimSpace(hint) == "" {
		return
	}
	for i, line := range strings.Split(strings.TrimRight(hint, "\n"), "\n") {
		switch {
		case i == 0:
			r.printf("%s%s\n", messages.ReportHintPrefix, line)
		case line == "":
			r.printf("%s\n", strings.TrimRight(messages.ReportHintIndent, " "))
		default:
			r.printf("%s%s\n", messages.ReportHintIndent, line)
		}
	}
}

// Block prints pre-formatted text such as a diff, indented.
func (r *Reporter) Block(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		r.printf("%s%s\n", messages.ReportHintIndent, line)
	}
}

// Summary prints the closing lines of a successful run.
func (r *Reporter) Summary(title string, lines ...string) {
	r.printf("\n%s\n", color.GreenString(title))
	for _, line := range lines {
		r.printf("%s%s\n", messages.ReportHintIndent, line)
	}
}

func (r *Reporter) printf(format string, args ...any) {
	if r == nil || r.Out == nil {
		return
	}
	_, _ = fmt.Fprintf(r.Out, format, args...)
}
