package pdftext

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PathGuard keeps tool paths inside the configured directory.
type PathGuard struct {
	root string
}

// NewPathGuard creates a guard for root. The directory need not exist yet.
func NewPathGuard(root string) (*PathGuard, error) {
	if root == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	return &PathGuard{root: root}, nil
}

// Root returns the configured directory.
func (g *PathGuard) Root() string { return g.root }

// Resolve makes path absolute, relative paths being taken from the root,
// and checks that it stays within the root.
func (g *PathGuard) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", ErrEmptyPath
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	ok, err := g.within(abs)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return abs, nil
}

func (g *PathGuard) within(path string) (bool, error) {
	// a root that does not exist yet confines nothing
	if _, err := os.Stat(g.root); os.IsNotExist(err) {
		return true, nil
	}
	absRoot, err := filepath.Abs(g.root)
	if err != nil {
		return false, fmt.Errorf("failed to resolve configured directory: %w", err)
	}
	cleanRoot := filepath.Clean(absRoot)
	realRoot := cleanRoot
	if r, err := filepath.EvalSymlinks(cleanRoot); err == nil {
		realRoot = r
	}

	cleanPath := filepath.Clean(path)
	realPath := cleanPath
	if r, err := filepath.EvalSymlinks(cleanPath); err == nil {
		realPath = r
	}

	inside := func(p string) bool {
		for _, root := range []string{cleanRoot, realRoot} {
			if p == root || strings.HasPrefix(p, root+string(filepath.Separator)) {
				return true
			}
		}
		return false
	}
	return inside(cleanPath) && inside(realPath), nil
}

// FindPDFs lists the PDF files directly inside dir, sorted by name.
func FindPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
