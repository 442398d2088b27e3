package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	args   []string
}

func (m *mockRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	m.args = args
	return m.output, m.err
}

func TestPoppler_SplitsPagesOnFormFeed(t *testing.T) {
	runner := &mockRunner{output: []byte("Page one text\n\fPage two\n\f\fPage four\n\f")}
	e := NewPopplerExtractorWithRunner(runner)

	pages, err := e.ExtractPages(context.Background(), "/docs/a.pdf")
	require.NoError(t, err)

	assert.Equal(t, []string{"Page one text\n", "Page two\n", "", "Page four\n"}, pages)
	assert.Contains(t, runner.args, "/docs/a.pdf")
	assert.Equal(t, "-", runner.args[len(runner.args)-1])
}

func TestPoppler_EmptyOutput(t *testing.T) {
	e := NewPopplerExtractorWithRunner(&mockRunner{})
	pages, err := e.ExtractPages(context.Background(), "/docs/a.pdf")
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestPoppler_RunnerError(t *testing.T) {
	e := NewPopplerExtractorWithRunner(&mockRunner{err: errors.New("pdftotext crashed")})

	pages, err := e.ExtractPages(context.Background(), "/docs/a.pdf")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
	assert.Nil(t, pages)
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestNative_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0644))

	_, err := NewNativeExtractor().ExtractPages(context.Background(), path)
	assert.Error(t, err)
}

func TestNative_MissingFile(t *testing.T) {
	_, err := NewNativeExtractor().ExtractPages(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Error(t, err)
}
