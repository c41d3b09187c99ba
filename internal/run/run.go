// Package run implements the find, update and validate pipelines behind the
// command line.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jacoelho/docq/internal/config"
	"github.com/jacoelho/docq/internal/document"
	"github.com/jacoelho/docq/internal/projection"
	"github.com/jacoelho/docq/internal/results"
	"github.com/jacoelho/docq/internal/throttle"
	"go.uber.org/zap"
)

// Stdin names standard input as a source.
const Stdin = "-"

// errLimitReached stops a pipeline once enough documents were written.
var errLimitReached = errors.New("limit reached")

// Runner reads documents from sources and writes results to one output.
type Runner struct {
	logger    *zap.Logger
	out       *document.Writer
	stdin     io.Reader
	throttle  *throttle.Throttle
	selection *projection.Projection
	format    document.Format
	limit     int
	upsert    bool
	diff      bool
	written   int
}

// New creates a Runner writing to stdout and reading Stdin sources from
// stdin.
func New(cfg *config.Config, logger *zap.Logger, stdout io.Writer, stdin io.Reader) (*Runner, error) {
	r := &Runner{
		logger:   logger,
		out:      document.NewWriter(stdout),
		stdin:    stdin,
		throttle: throttle.New(cfg.Rate, cfg.Burst),
		limit:    cfg.Limit,
		upsert:   cfg.Upsert,
		diff:     cfg.Diff,
	}

	if cfg.Input != "" {
		format, err := document.ParseFormat(cfg.Input)
		if err != nil {
			return nil, err
		}
		r.format = format
	}

	if cfg.Select != "" {
		selection, err := projection.Compile(cfg.Select)
		if err != nil {
			return nil, err
		}
		r.selection = selection
	}
	return r, nil
}

// Rate returns the documents per second the Runner writes, 0 when unpaced.
func (r *Runner) Rate() float64 {
	return r.throttle.Rate()
}

// LoadSpec reads a specification from a file, or parses arg itself when it
// is an inline extended JSON object.
func LoadSpec(arg string) (any, error) {
	if trimmed := bytes.TrimSpace([]byte(arg)); len(trimmed) > 0 && trimmed[0] == '{' {
		return document.LoadSpec(trimmed, document.JSON)
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", arg, err)
	}
	spec, err := document.LoadSpec(data, document.FormatOf(arg))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", arg, err)
	}
	return spec, nil
}

// visitFunc handles one document. Returning an error stops the pipeline.
type visitFunc func(ctx context.Context, doc map[string]any, counts *results.Counts) error

// process feeds every document of every source to visit, stopping at the
// first error.
func (r *Runner) process(ctx context.Context, sources []string, visit visitFunc) (*results.Summary, error) {
	if len(sources) == 0 {
		sources = []string{Stdin}
	}

	summary := results.NewSummary(len(sources))
	start := time.Now()
	var firstError error

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			firstError = err
			break
		}

		begin := time.Now()
		counts, err := r.processSource(ctx, source, visit)
		stop := errors.Is(err, errLimitReached)
		if stop {
			err = nil
		}

		summary.Add(results.NewSourceResultBuilder(source).
			WithCounts(counts).
			WithDuration(time.Since(begin)).
			WithError(err))

		if err != nil {
			firstError = err
			break
		}
		if stop {
			r.logger.Debug("limit reached", zap.Int("limit", r.limit))
			break
		}
	}

	summary.SetTotalDuration(time.Since(start))
	summary.Log(r.logger)
	return summary, firstError
}

func (r *Runner) processSource(ctx context.Context, source string, visit visitFunc) (results.Counts, error) {
	var counts results.Counts

	in, format, err := r.open(source)
	if err != nil {
		return counts, err
	}
	defer in.Close()

	reader := document.NewReader(in, format)
	for {
		doc, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return counts, nil
		}
		if err != nil {
			return counts, fmt.Errorf("%s: %w", source, err)
		}

		counts.Read++
		if err := visit(ctx, doc, &counts); err != nil {
			if errors.Is(err, errLimitReached) {
				return counts, err
			}
			return counts, fmt.Errorf("%s: document %d: %w", source, counts.Read, err)
		}
	}
}

func (r *Runner) open(source string) (io.ReadCloser, document.Format, error) {
	format := r.format
	if source == Stdin {
		if format == "" {
			format = document.JSON
		}
		return io.NopCloser(r.stdin), format, nil
	}

	if format == "" {
		format = document.FormatOf(source)
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", source, err)
	}
	return f, format, nil
}

// emit writes doc, or every node the projection selects from it.
func (r *Runner) emit(ctx context.Context, doc map[string]any, counts *results.Counts) error {
	docs := []map[string]any{doc}
	if r.selection != nil {
		docs = r.selection.Documents(doc)
	}

	for _, out := range docs {
		if r.limitReached() {
			return errLimitReached
		}
		if err := r.throttle.Wait(ctx); err != nil {
			return err
		}
		if err := r.out.Write(out); err != nil {
			return err
		}
		counts.Written++
		r.written++
		if r.limitReached() {
			return errLimitReached
		}
	}
	return nil
}

func (r *Runner) limitReached() bool {
	return r.limit > 0 && r.written >= r.limit
}
