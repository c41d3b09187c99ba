package run

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"regexp"

	"github.com/google/uuid"
	"github.com/jacoelho/docq"
	"github.com/jacoelho/docq/internal/exit"
	"github.com/jacoelho/docq/internal/results"
	"github.com/jacoelho/docq/internal/spec"
	"github.com/jacoelho/docq/internal/value"
	"github.com/mitchellh/copystructure"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Find writes the documents matching query.
func (r *Runner) Find(ctx context.Context, query any, sources []string) (*results.Summary, error) {
	match, err := docq.CompileFilter(query)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}

	return r.process(ctx, sources, func(ctx context.Context, doc map[string]any, counts *results.Counts) error {
		if !match(doc) {
			r.logger.Debug("document rejected", zap.Int("document", counts.Read))
			return nil
		}
		counts.Matched++
		return r.emit(ctx, doc, counts)
	})
}

// Update applies update to the documents matching query and writes every
// document, changed or not. With diff only updated documents are written,
// as {"before": ..., "after": ...}. With upsert a document is inserted when
// nothing matched.
func (r *Runner) Update(ctx context.Context, query, update any, sources []string) (*results.Summary, error) {
	match, err := docq.CompileFilter(query)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	apply, err := docq.CompileUpdate(update)
	if err != nil {
		return nil, fmt.Errorf("compile update: %w", err)
	}

	summary, err := r.process(ctx, sources, func(ctx context.Context, doc map[string]any, counts *results.Counts) error {
		if !match(doc) {
			if r.diff {
				return nil
			}
			return r.emit(ctx, doc, counts)
		}
		counts.Matched++

		var before map[string]any
		if r.diff {
			snap, err := snapshot(doc)
			if err != nil {
				return err
			}
			before = snap
		}

		updated, err := apply(doc)
		if err != nil {
			counts.Failed++
			return err
		}
		r.logger.Debug("document updated", zap.Int("document", counts.Read))

		if r.diff {
			return r.emit(ctx, map[string]any{"before": before, "after": updated}, counts)
		}
		return r.emit(ctx, updated, counts)
	})
	if err != nil || !r.upsert || summary.Totals.Matched > 0 {
		return summary, err
	}

	return summary, r.insert(ctx, summary, query, update)
}

// insert builds a document from the equality conditions of query, gives it
// an _id when it has none and applies update in insert mode.
func (r *Runner) insert(ctx context.Context, summary *results.Summary, query, update any) error {
	apply, err := docq.CompileUpsert(update)
	if err != nil {
		return fmt.Errorf("compile update: %w", err)
	}

	doc := map[string]any{}
	if err := seed(doc, query); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	if _, ok := doc["_id"]; !ok {
		doc["_id"] = uuid.NewString()
	}

	inserted, err := apply(doc)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	r.logger.Info("document inserted", zap.Any("_id", inserted["_id"]))

	var counts results.Counts
	out := inserted
	if r.diff {
		out = map[string]any{"before": nil, "after": inserted}
	}
	err = r.emit(ctx, out, &counts)
	summary.Add(results.NewSourceResultBuilder("upsert").WithCounts(counts))
	if errors.Is(err, errLimitReached) {
		return nil
	}
	return err
}

// seed copies the equality conditions of query into doc: plain field values,
// $eq operands and the conditions nested in $and.
func seed(doc map[string]any, query any) error {
	tree, ok := spec.AsTree(query)
	if !ok {
		return nil
	}

	for _, entry := range tree {
		if entry.Key == "$and" {
			clauses, _ := spec.AsList(entry.Value)
			for _, clause := range clauses {
				if err := seed(doc, clause); err != nil {
					return err
				}
			}
			continue
		}
		if spec.IsOperator(entry.Key) {
			continue
		}

		v, ok := equality(entry.Value)
		if !ok {
			continue
		}
		if _, err := docq.Access(entry.Key).Set(doc, value.Normalize(v)); err != nil {
			return err
		}
	}
	return nil
}

func equality(condition any) (any, bool) {
	switch condition.(type) {
	case primitive.Regex, *regexp.Regexp:
		return nil, false
	}

	tree, ok := spec.AsTree(condition)
	if !ok || !tree.HasOperators() {
		return condition, true
	}
	return tree.Get("$eq")
}

// Validate writes the documents that do not satisfy schema and reports them
// as an *exit.FailureError.
func (r *Runner) Validate(ctx context.Context, schema any, sources []string) (*results.Summary, error) {
	valid, err := docq.CompileSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	summary, err := r.process(ctx, sources, func(ctx context.Context, doc map[string]any, counts *results.Counts) error {
		if valid(doc) {
			counts.Matched++
			return nil
		}
		counts.Failed++
		r.logger.Info("document failed validation", zap.Int("document", counts.Read))
		return r.emit(ctx, doc, counts)
	})
	if err != nil {
		return summary, err
	}
	if summary.Totals.Failed > 0 {
		return summary, &exit.FailureError{Failed: summary.Totals.Failed}
	}
	return summary, nil
}

var snapshotConfig = copystructure.Config{Copiers: snapshotCopiers()}

func snapshotCopiers() map[reflect.Type]copystructure.CopierFunc {
	copiers := maps.Clone(copystructure.Copiers)
	// Decimal128 keeps its digits in unexported fields.
	copiers[reflect.TypeOf(primitive.Decimal128{})] = func(v any) (any, error) {
		return v, nil
	}
	return copiers
}

func snapshot(doc map[string]any) (map[string]any, error) {
	copied, err := snapshotConfig.Copy(doc)
	if err != nil {
		return nil, fmt.Errorf("snapshot document: %w", err)
	}
	return copied.(map[string]any), nil
}
