package pdftext

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoader(max int64) *Loader {
	return NewLoader(max, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		op   string
		want error
	}{
		{"empty path", "", "stat", ErrEmptyPath},
		{"missing", filepath.Join(dir, "missing.pdf"), "stat", fs.ErrNotExist},
		{"directory", dir, "stat", ErrIsDirectory},
		{"not a pdf", writeFile(t, dir, "notes.txt", []byte("DDT 1")), "stat", ErrNotPDF},
		{"empty", writeFile(t, dir, "empty.pdf", nil), "stat", ErrEmptyFile},
		{"too large", writeFile(t, dir, "big.pdf", make([]byte, 64)), "stat", ErrTooLarge},
	}
	l := newLoader(32)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Load(tt.path)
			require.Error(t, err)
			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tt.op, le.Op)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadRejectsCorruptPDF(t *testing.T) {
	p := writeFile(t, t.TempDir(), "broken.pdf", []byte("this is not a PDF document at all"))
	_, _, err := newLoader(1<<20).LoadText(p)
	require.Error(t, err)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "validate", le.Op)
	assert.Equal(t, p, le.Path)
	assert.Contains(t, err.Error(), "pdf validate")
}

func TestPathGuard(t *testing.T) {
	root := t.TempDir()
	g, err := NewPathGuard(root)
	require.NoError(t, err)

	abs, err := g.Resolve("ddt/1.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "ddt", "1.pdf"), abs)

	_, err = g.Resolve(filepath.Join(root, "..", "elsewhere.pdf"))
	assert.ErrorIs(t, err, ErrOutsideRoot)

	_, err = g.Resolve("../../etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideRoot)

	_, err = g.Resolve("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = NewPathGuard("")
	assert.Error(t, err)
}

func TestPathGuardMissingRootConfinesNothing(t *testing.T) {
	g, err := NewPathGuard(filepath.Join(t.TempDir(), "later"))
	require.NoError(t, err)
	_, err = g.Resolve("/tmp/x.pdf")
	assert.NoError(t, err)
}

func TestFindPDFs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.pdf", []byte("x"))
	writeFile(t, dir, "A.PDF", []byte("x"))
	writeFile(t, dir, "notes.txt", []byte("x"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))

	got, err := FindPDFs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "A.PDF"), filepath.Join(dir, "b.pdf")}, got)

	_, err = FindPDFs(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
