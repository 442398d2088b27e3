package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrPDFToolNotFound is returned when pdftotext is not on PATH.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PopplerExtractor shells out to poppler's pdftotext, which separates pages
// with form feeds.
type PopplerExtractor struct {
	runner CommandRunner
}

func NewPopplerExtractor() *PopplerExtractor {
	return &PopplerExtractor{runner: execRunner{}}
}

// NewPopplerExtractorWithRunner is used by tests to stub the command.
func NewPopplerExtractorWithRunner(runner CommandRunner) *PopplerExtractor {
	return &PopplerExtractor{runner: runner}
}

// CheckAvailable reports whether pdftotext can be found.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns a hint for installing pdftotext.
func InstallInstructions() string {
	return `pdftotext is part of poppler:
  macOS:  brew install poppler
  Debian: apt install poppler-utils`
}

func (e *PopplerExtractor) ExtractPages(ctx context.Context, path string) ([]string, error) {
	out, err := e.runner.Run(ctx, "pdftotext", "-enc", "UTF-8", path, "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, ErrPDFToolNotFound
		}
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}
	return splitPages(string(out)), nil
}

func splitPages(out string) []string {
	if out == "" {
		return nil
	}
	// every page, including the last, is terminated by a form feed
	out = strings.TrimSuffix(out, "\f")
	return strings.Split(out, "\f")
}
