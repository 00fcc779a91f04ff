package pdftext

import (
	"errors"
	"fmt"
)

// LoadError reports which step of loading a file failed.
type LoadError struct {
	Op   string `json:"operation"`
	Path string `json:"path"`
	Err  error  `json:"error"`
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("pdf %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Common load failures
var (
	ErrEmptyPath    = errors.New("path cannot be empty")
	ErrIsDirectory  = errors.New("path is a directory, not a file")
	ErrNotPDF       = errors.New("file is not a PDF")
	ErrEmptyFile    = errors.New("file is empty")
	ErrTooLarge     = errors.New("file too large")
	ErrOutsideRoot  = errors.New("path is outside configured directory")
	ErrNoTextLayer  = errors.New("no text layer")
	ErrPageRecovery = errors.New("page content could not be decoded")
)

func loadErr(op, path string, err error) *LoadError {
	return &LoadError{Op: op, Path: path, Err: err}
}
