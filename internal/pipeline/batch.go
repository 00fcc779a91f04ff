package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-ddt-reader/internal/document"
	"github.com/a3tai/mcp-ddt-reader/internal/layout"
)

// ErrPanic wraps a panic recovered while extracting one document.
var ErrPanic = errors.New("extraction panicked")

// Input is one document to extract.
type Input struct {
	Text     string
	FileName string
	Rows     []layout.Row
}

// Result is the outcome for one input. Exactly one of Document and Err is set.
type Result struct {
	FileName string
	Document *document.Document
	Err      error
}

// TextLoader reads the text and rows of a file.
type TextLoader interface {
	LoadText(path string) (string, []layout.Row, error)
}

// ExtractBatch extracts every input with at most workers running at once.
// Per-document failures land in the results; the returned error is only set
// when ctx ends before the batch completes.
func (p *Pipeline) ExtractBatch(ctx context.Context, inputs []Input, workers int) ([]Result, error) {
	return p.fanOut(ctx, len(inputs), workers, func(i int) Result {
		in := inputs[i]
		doc, err := p.Extract(in.Text, in.FileName, in.Rows)
		return Result{FileName: in.FileName, Document: doc, Err: err}
	}, func(i int) string { return inputs[i].FileName })
}

// ExtractFiles loads and extracts each path. Load errors are reported per file.
func (p *Pipeline) ExtractFiles(ctx context.Context, loader TextLoader, paths []string, workers int) ([]Result, error) {
	return p.fanOut(ctx, len(paths), workers, func(i int) Result {
		text, rows, err := loader.LoadText(paths[i])
		if err != nil {
			return Result{FileName: paths[i], Err: err}
		}
		doc, err := p.Extract(text, paths[i], rows)
		return Result{FileName: paths[i], Document: doc, Err: err}
	}, func(i int) string { return paths[i] })
}

// safeRun turns a panic in one document into that document's error.
func (p *Pipeline) safeRun(run func(int) Result, i int, fileName string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("extract.panic", "file", fileName, "panic", r)
			res = Result{FileName: fileName, Err: fmt.Errorf("%w: %v", ErrPanic, r)}
		}
	}()
	return run(i)
}

func (p *Pipeline) fanOut(ctx context.Context, n, workers int, run func(int) Result, name func(int) string) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	start := time.Now()
	results := make([]Result, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range n {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{FileName: name(i), Err: err}
				return err
			}
			results[i] = p.safeRun(run, i, name(i))
			return nil
		})
	}
	err := g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	p.logger.Info("batch.done",
		"documents", n,
		"failed", failed,
		"workers", workers,
		"duration", time.Since(start),
	)
	return results, err
}
